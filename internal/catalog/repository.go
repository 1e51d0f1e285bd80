package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	"github.com/oneclickretail/oneclick-backend/pkg/pagination"
)

// ProductList is one cursor page of catalog rows.
type ProductList struct {
	Items      []models.Product
	NextCursor string
}

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Category     enums.ProductCategory
	ApprovedOnly bool
}

// Repository persists the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByProdID(ctx context.Context, prodID string) (*models.Product, error)
	FindManyByProdIDs(ctx context.Context, prodIDs []string) ([]models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error)
	Save(ctx context.Context, product *models.Product) error
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateImages(ctx context.Context, id uuid.UUID, images pq.StringArray) error
	UpsertFeatures(ctx context.Context, features *models.ProductFeatures) error
	Delete(ctx context.Context, prodID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByProdID(ctx context.Context, prodID string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Features").
		Where("prod_id = ?", prodID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindManyByProdIDs(ctx context.Context, prodIDs []string) ([]models.Product, error) {
	if len(prodIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("prod_id IN ?", prodIDs).
		Find(&products).Error
	return products, err
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.ApprovedOnly {
		query = query.Where("status = ?", enums.ProductStatusApproved)
	}

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

	var rows []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &ProductList{}
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

func (r *repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateImages(ctx context.Context, id uuid.UUID, images pq.StringArray) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("images", images).Error
}

func (r *repository) UpsertFeatures(ctx context.Context, features *models.ProductFeatures) error {
	return r.db.WithContext(ctx).Save(features).Error
}

func (r *repository) Delete(ctx context.Context, prodID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("prod_id = ?", prodID).
		Delete(&models.Product{})
	return res.RowsAffected, res.Error
}
