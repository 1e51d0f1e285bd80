package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
)

type stubCouponRepo struct {
	coupons []models.Coupon
	common  map[string]*models.CommonCoupon
}

func newStubCouponRepo() *stubCouponRepo {
	return &stubCouponRepo{common: map[string]*models.CommonCoupon{}}
}

func (s *stubCouponRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubCouponRepo) Insert(_ context.Context, coupon *models.Coupon) error {
	s.coupons = append(s.coupons, *coupon)
	return nil
}

func (s *stubCouponRepo) FindByCodeAndProdIDs(_ context.Context, code string, prodIDs []string) ([]models.Coupon, error) {
	wanted := map[string]struct{}{}
	for _, id := range prodIDs {
		wanted[id] = struct{}{}
	}
	var out []models.Coupon
	for _, coupon := range s.coupons {
		if coupon.Code != code {
			continue
		}
		if _, ok := wanted[coupon.ProdID]; !ok {
			continue
		}
		out = append(out, coupon)
	}
	return out, nil
}

func (s *stubCouponRepo) ListByProdID(_ context.Context, prodID string) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, coupon := range s.coupons {
		if coupon.ProdID == prodID {
			out = append(out, coupon)
		}
	}
	return out, nil
}

func (s *stubCouponRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	for i, coupon := range s.coupons {
		if coupon.ID == id {
			s.coupons = append(s.coupons[:i], s.coupons[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubCouponRepo) InsertCommon(_ context.Context, coupon *models.CommonCoupon) error {
	s.common[coupon.Name] = coupon
	return nil
}

func (s *stubCouponRepo) FindCommonByName(_ context.Context, name string) (*models.CommonCoupon, error) {
	if coupon, ok := s.common[name]; ok {
		return coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCouponRepo) ListCommon(_ context.Context) ([]models.CommonCoupon, error) {
	var out []models.CommonCoupon
	for _, coupon := range s.common {
		out = append(out, *coupon)
	}
	return out, nil
}

func (s *stubCouponRepo) DeleteCommon(_ context.Context, id uuid.UUID) (int64, error) {
	for name, coupon := range s.common {
		if coupon.ID == id {
			delete(s.common, name)
			return 1, nil
		}
	}
	return 0, nil
}

func newCouponService(t *testing.T, repo Repository, now time.Time) Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return now }
	return svc
}

func seedCoupon(repo *stubCouponRepo, prodID, code string, value int64, expiresOn time.Time) {
	repo.coupons = append(repo.coupons, models.Coupon{
		ID:            uuid.New(),
		ProdID:        prodID,
		Code:          code,
		DiscountValue: decimal.NewFromInt(value),
		ExpiresOn:     expiresOn,
	})
}

func TestRedeemSingleMatch(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P1", "SAVE10", 10, now.AddDate(0, 1, 0))
	svc := newCouponService(t, repo, now)

	result, err := svc.Redeem(context.Background(), "SAVE10", []string{"P1"})
	require.NoError(t, err)
	assert.True(t, result.Discount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, result.Matched)
}

func TestRedeemUnknownCodeIsInvalid(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P1", "SAVE10", 10, now.AddDate(0, 1, 0))
	svc := newCouponService(t, repo, now)

	_, err := svc.Redeem(context.Background(), "NOPE", []string{"P1"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, "Invalid coupon.", pkgerrors.As(err).Message())
}

func TestRedeemCodeOnOtherProductIsInvalid(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P2", "SAVE10", 10, now.AddDate(0, 1, 0))
	svc := newCouponService(t, repo, now)

	_, err := svc.Redeem(context.Background(), "SAVE10", []string{"P1"})
	require.Error(t, err)
	assert.Equal(t, "Invalid coupon.", pkgerrors.As(err).Message())
}

func TestRedeemAllExpiredIsStateConflict(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P1", "SAVE10", 10, now.AddDate(0, 0, -1))
	svc := newCouponService(t, repo, now)

	_, err := svc.Redeem(context.Background(), "SAVE10", []string{"P1"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, "Coupon has expired.", pkgerrors.As(err).Message())
}

func TestRedeemExpiryIsDatePrecision(t *testing.T) {
	// A coupon expiring today is still valid for the whole day.
	now := time.Date(2026, 4, 10, 23, 45, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P1", "SAVE10", 10, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
	svc := newCouponService(t, repo, now)

	result, err := svc.Redeem(context.Background(), "SAVE10", []string{"P1"})
	require.NoError(t, err)
	assert.True(t, result.Discount.Equal(decimal.NewFromInt(10)))
}

func TestRedeemStacksAcrossProducts(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P1", "SAVE10", 10, now.AddDate(0, 1, 0))
	seedCoupon(repo, "P2", "SAVE10", 15, now.AddDate(0, 1, 0))
	seedCoupon(repo, "P3", "SAVE10", 5, now.AddDate(0, 0, -2))
	svc := newCouponService(t, repo, now)

	result, err := svc.Redeem(context.Background(), "SAVE10", []string{"P1", "P2", "P3"})
	require.NoError(t, err)
	assert.True(t, result.Discount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 2, result.Matched)
}

func TestRedeemIsCommutativeInProductOrder(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	seedCoupon(repo, "P1", "SAVE10", 10, now.AddDate(0, 1, 0))
	seedCoupon(repo, "P2", "SAVE10", 15, now.AddDate(0, 1, 0))
	svc := newCouponService(t, repo, now)

	forward, err := svc.Redeem(context.Background(), "SAVE10", []string{"P1", "P2"})
	require.NoError(t, err)
	reverse, err := svc.Redeem(context.Background(), "SAVE10", []string{"P2", "P1"})
	require.NoError(t, err)
	assert.True(t, forward.Discount.Equal(reverse.Discount))
}

func TestApplyCommonEnforcesMinimumPurchase(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	repo := newStubCouponRepo()
	svc := newCouponService(t, repo, now)

	created, err := svc.CreateCommon(context.Background(), CommonCouponInput{
		Name:             "FESTIVE",
		Value:            decimal.NewFromInt(50),
		MinPurchaseCents: 500000,
	})
	require.NoError(t, err)

	_, err = svc.ApplyCommon(context.Background(), "FESTIVE", 499999)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	applied, err := svc.ApplyCommon(context.Background(), "FESTIVE", 500000)
	require.NoError(t, err)
	assert.Equal(t, created.ID, applied.ID)
}

func TestDeleteMissingCouponIsNotFound(t *testing.T) {
	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	svc := newCouponService(t, newStubCouponRepo(), now)

	err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
