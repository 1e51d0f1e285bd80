package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	"github.com/oneclickretail/oneclick-backend/internal/coupons"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

type createCouponRequest struct {
	ProdID        string          `json:"prod_id" validate:"required"`
	Code          string          `json:"code" validate:"required,min=2,max=40"`
	DiscountValue decimal.Decimal `json:"discount_value" validate:"required"`
	ExpiresOn     string          `json:"expires_on" validate:"required"`
}

type createCommonCouponRequest struct {
	Name             string          `json:"name" validate:"required,min=2,max=60"`
	Value            decimal.Decimal `json:"value" validate:"required"`
	MinPurchaseCents int64           `json:"min_purchase_cents,omitempty" validate:"omitempty,min=0"`
}

type couponResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProdID        string          `json:"prod_id"`
	Code          string          `json:"code"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	ExpiresOn     string          `json:"expires_on"`
}

type commonCouponResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Value            decimal.Decimal `json:"value"`
	MinPurchaseCents int64           `json:"min_purchase_cents"`
}

const couponDateLayout = "2006-01-02"

// parseExpiry accepts a bare date or a full RFC3339 timestamp.
func parseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(couponDateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expires_on date")
	}
	return t.UTC(), nil
}

func newCouponResponse(row models.Coupon) couponResponse {
	return couponResponse{
		ID:            row.ID,
		ProdID:        row.ProdID,
		Code:          row.Code,
		DiscountValue: row.DiscountValue,
		ExpiresOn:     row.ExpiresOn.UTC().Format(couponDateLayout),
	}
}

func newCommonCouponResponse(row models.CommonCoupon) commonCouponResponse {
	return commonCouponResponse{
		ID:               row.ID,
		Name:             row.Name,
		Value:            row.Value,
		MinPurchaseCents: row.MinPurchaseCents,
	}
}

func couponIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "couponId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon id")
	}
	return id, nil
}

// AdminCreateCoupon registers a product-scoped discount code.
func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var body createCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expiresOn, err := parseExpiry(body.ExpiresOn)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), coupons.CouponInput{
			ProdID:        body.ProdID,
			Code:          body.Code,
			DiscountValue: body.DiscountValue,
			ExpiresOn:     expiresOn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(*coupon))
	}
}

// AdminListCoupons returns the coupons attached to one product.
func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		prodID := strings.TrimSpace(r.URL.Query().Get("prod_id"))
		if prodID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "prod_id query parameter required"))
			return
		}

		rows, err := svc.ListForProduct(r.Context(), prodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]couponResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, newCouponResponse(row))
		}
		responses.WriteSuccess(w, map[string][]couponResponse{"coupons": out})
	}
}

// AdminDeleteCoupon removes one product coupon.
func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		id, err := couponIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Coupon deleted."})
	}
}

// AdminCreateCommonCoupon registers a site-wide coupon.
func AdminCreateCommonCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var body createCommonCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.CreateCommon(r.Context(), coupons.CommonCouponInput{
			Name:             body.Name,
			Value:            body.Value,
			MinPurchaseCents: body.MinPurchaseCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCommonCouponResponse(*coupon))
	}
}

// AdminListCommonCoupons returns all site-wide coupons.
func AdminListCommonCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		rows, err := svc.ListCommon(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]commonCouponResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, newCommonCouponResponse(row))
		}
		responses.WriteSuccess(w, map[string][]commonCouponResponse{"coupons": out})
	}
}

// AdminDeleteCommonCoupon removes one site-wide coupon.
func AdminDeleteCommonCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		id, err := couponIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCommon(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Coupon deleted."})
	}
}
