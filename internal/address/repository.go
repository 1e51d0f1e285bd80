package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
)

// Repository persists customer address books.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, address *models.UserAddress) error
	FindByID(ctx context.Context, userID, addressID uuid.UUID) (*models.UserAddress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error)
	Update(ctx context.Context, address *models.UserAddress) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) (int64, error)
	ClearCurrent(ctx context.Context, userID uuid.UUID) error
	SetCurrent(ctx context.Context, userID, addressID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, address *models.UserAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) FindByID(ctx context.Context, userID, addressID uuid.UUID) (*models.UserAddress, error) {
	var row models.UserAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	var rows []models.UserAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, address *models.UserAddress) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *repository) Delete(ctx context.Context, userID, addressID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.UserAddress{})
	return res.RowsAffected, res.Error
}

func (r *repository) ClearCurrent(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.UserAddress{}).
		Where("user_id = ?", userID).
		Update("is_current", false).Error
}

func (r *repository) SetCurrent(ctx context.Context, userID, addressID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserAddress{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Update("is_current", true)
	return res.RowsAffected, res.Error
}
