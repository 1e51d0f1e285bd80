package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/pagination"
)

// OrderList is one cursor page of order headers.
type OrderList struct {
	Items      []models.Order
	NextCursor string
}

// Repository persists orders, their line items, and the product snapshots
// captured at placement time.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertItems(ctx context.Context, items []models.OrderItem) error
	UpsertSnapshot(ctx context.Context, snapshot *models.ProductSnapshot) error
	InsertSnapshotImages(ctx context.Context, images []models.SnapshotImage) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderList, error)
	SnapshotImagesFor(ctx context.Context, prodIDs []string) ([]models.SnapshotImage, error)
	UpdateDelivery(ctx context.Context, orderNumber, status string, date time.Time) (int64, error)
	Delete(ctx context.Context, orderNumber string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) InsertOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) InsertItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// UpsertSnapshot refreshes the snapshot row on conflict so a repeat order of
// the same product carries the latest captured fields.
func (r *repository) UpsertSnapshot(ctx context.Context, snapshot *models.ProductSnapshot) error {
	return r.db.WithContext(ctx).
		Omit("Images").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "prod_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "category", "price_cents", "description", "updated_at",
			}),
		}).
		Create(snapshot).Error
}

func (r *repository) InsertSnapshotImages(ctx context.Context, images []models.SnapshotImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.page(ctx, query, params)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params) (*OrderList, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.Order{}), params)
}

func (r *repository) page(_ context.Context, query *gorm.DB, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Items = rows
	return list, nil
}

func (r *repository) SnapshotImagesFor(ctx context.Context, prodIDs []string) ([]models.SnapshotImage, error) {
	if len(prodIDs) == 0 {
		return nil, nil
	}
	var images []models.SnapshotImage
	err := r.db.WithContext(ctx).
		Where("prod_id IN ?", prodIDs).
		Order("id ASC").
		Find(&images).Error
	return images, err
}

func (r *repository) UpdateDelivery(ctx context.Context, orderNumber, status string, date time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Updates(map[string]any{
			"delivery_status": status,
			"delivery_date":   date,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, orderNumber string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Delete(&models.Order{})
	return res.RowsAffected, res.Error
}
