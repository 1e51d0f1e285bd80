package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/metrics"
)

// RedeemResult is the outcome of applying a product coupon against a cart.
type RedeemResult struct {
	Discount decimal.Decimal
	Matched  int
}

// CouponInput carries an admin create request for a product-scoped coupon.
type CouponInput struct {
	ProdID        string
	Code          string
	DiscountValue decimal.Decimal
	ExpiresOn     time.Time
}

// CommonCouponInput carries an admin create request for a site-wide coupon.
type CommonCouponInput struct {
	Name             string
	Value            decimal.Decimal
	MinPurchaseCents int64
}

// Service exposes the coupon engine plus the admin CRUD surface.
type Service interface {
	Redeem(ctx context.Context, code string, prodIDs []string) (*RedeemResult, error)
	Create(ctx context.Context, input CouponInput) (*models.Coupon, error)
	ListForProduct(ctx context.Context, prodID string) ([]models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateCommon(ctx context.Context, input CommonCouponInput) (*models.CommonCoupon, error)
	ListCommon(ctx context.Context) ([]models.CommonCoupon, error)
	ApplyCommon(ctx context.Context, name string, subtotalCents int64) (*models.CommonCoupon, error)
	DeleteCommon(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo    Repository
	metrics *metrics.StoreMetrics
	now     func() time.Time
}

// NewService builds a coupon service with the required dependencies.
func NewService(repo Repository, storeMetrics *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{
		repo:    repo,
		metrics: storeMetrics,
		now:     time.Now,
	}, nil
}

// Redeem sums the discounts of every unexpired coupon row matching the code
// on any of the given products. A code shared across several products in the
// cart stacks additively.
func (s *service) Redeem(ctx context.Context, code string, prodIDs []string) (*RedeemResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if len(prodIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ids required")
	}

	rows, err := s.repo.FindByCodeAndProdIDs(ctx, code, prodIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up coupons")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid coupon.")
	}

	today := dateOf(s.now().UTC())
	result := &RedeemResult{Discount: decimal.Zero}
	for _, row := range rows {
		if dateOf(row.ExpiresOn.UTC()).Before(today) {
			continue
		}
		result.Discount = result.Discount.Add(row.DiscountValue)
		result.Matched++
	}
	if result.Matched == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Coupon has expired.")
	}
	s.metrics.IncCouponRedeemed("product")
	return result, nil
}

func (s *service) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if input.ProdID == "" || input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and code required")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.ExpiresOn.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date required")
	}
	row := &models.Coupon{
		ID:            uuid.New(),
		ProdID:        input.ProdID,
		Code:          strings.TrimSpace(input.Code),
		DiscountValue: input.DiscountValue,
		ExpiresOn:     input.ExpiresOn,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert coupon")
	}
	return row, nil
}

func (s *service) ListForProduct(ctx context.Context, prodID string) ([]models.Coupon, error) {
	if prodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	rows, err := s.repo.ListByProdID(ctx, prodID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func (s *service) CreateCommon(ctx context.Context, input CommonCouponInput) (*models.CommonCoupon, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon name required")
	}
	if !input.Value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	row := &models.CommonCoupon{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(input.Name),
		Value:            input.Value,
		MinPurchaseCents: input.MinPurchaseCents,
	}
	if err := s.repo.InsertCommon(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert common coupon")
	}
	return row, nil
}

func (s *service) ListCommon(ctx context.Context) ([]models.CommonCoupon, error) {
	rows, err := s.repo.ListCommon(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list common coupons")
	}
	return rows, nil
}

// ApplyCommon resolves a site-wide coupon and enforces its minimum purchase
// floor against the supplied subtotal.
func (s *service) ApplyCommon(ctx context.Context, name string, subtotalCents int64) (*models.CommonCoupon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon name required")
	}
	row, err := s.repo.FindCommonByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid coupon.")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up common coupon")
	}
	if subtotalCents < row.MinPurchaseCents {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase total below the coupon minimum")
	}
	s.metrics.IncCouponRedeemed("common")
	return row, nil
}

func (s *service) DeleteCommon(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.DeleteCommon(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete common coupon")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
