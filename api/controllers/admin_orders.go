package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	ordersvc "github.com/oneclickretail/oneclick-backend/internal/orders"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

type deliveryUpdateRequest struct {
	DeliveryStatus string     `json:"delivery_status" validate:"required"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
}

// AdminListOrders returns every customer's orders for the admin panel.
func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// AdminUpdateDelivery advances an order's delivery progress.
func AdminUpdateDelivery(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body deliveryUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.UpdateDelivery(r.Context(), chi.URLParam(r, "orderNumber"), ordersvc.DeliveryUpdate{
			DeliveryStatus: body.DeliveryStatus,
			DeliveryDate:   body.DeliveryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Delivery status updated."})
	}
}

// AdminDeleteOrder removes an order and its items.
func AdminDeleteOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "orderNumber")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Order deleted."})
	}
}
