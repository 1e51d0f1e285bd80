package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
)

// Repository persists product-scoped and site-wide coupon rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, coupon *models.Coupon) error
	FindByCodeAndProdIDs(ctx context.Context, code string, prodIDs []string) ([]models.Coupon, error)
	ListByProdID(ctx context.Context, prodID string) ([]models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	InsertCommon(ctx context.Context, coupon *models.CommonCoupon) error
	FindCommonByName(ctx context.Context, name string) (*models.CommonCoupon, error)
	ListCommon(ctx context.Context) ([]models.CommonCoupon, error)
	DeleteCommon(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) FindByCodeAndProdIDs(ctx context.Context, code string, prodIDs []string) ([]models.Coupon, error) {
	if len(prodIDs) == 0 {
		return nil, nil
	}
	var rows []models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ? AND prod_id IN ?", code, prodIDs).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByProdID(ctx context.Context, prodID string) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.db.WithContext(ctx).
		Where("prod_id = ?", prodID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Coupon{})
	return res.RowsAffected, res.Error
}

func (r *repository) InsertCommon(ctx context.Context, coupon *models.CommonCoupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) FindCommonByName(ctx context.Context, name string) (*models.CommonCoupon, error) {
	var row models.CommonCoupon
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListCommon(ctx context.Context) ([]models.CommonCoupon, error) {
	var rows []models.CommonCoupon
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) DeleteCommon(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.CommonCoupon{})
	return res.RowsAffected, res.Error
}
