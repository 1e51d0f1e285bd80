package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	"github.com/oneclickretail/oneclick-backend/internal/coupons"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

type redeemCouponRequest struct {
	CouponCode string   `json:"coupon_code" validate:"required"`
	ProductIDs []string `json:"product_ids" validate:"required,min=1"`
}

type redeemCouponResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Discount decimal.Decimal `json:"discount"`
}

type applyCommonCouponRequest struct {
	Name          string `json:"name" validate:"required"`
	SubtotalCents int64  `json:"subtotal_cents" validate:"required,min=1"`
}

// RedeemCoupon validates a product coupon code against the cart's products
// and returns the summed discount.
func RedeemCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var body redeemCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redeem(r.Context(), body.CouponCode, body.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, redeemCouponResponse{
			Success:  true,
			Message:  "Coupon applied.",
			Discount: result.Discount,
		})
	}
}

// ApplyCommonCoupon validates a site-wide coupon against the purchase total.
func ApplyCommonCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var body applyCommonCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.ApplyCommon(r.Context(), body.Name, body.SubtotalCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, redeemCouponResponse{
			Success:  true,
			Message:  "Coupon applied.",
			Discount: coupon.Value,
		})
	}
}
