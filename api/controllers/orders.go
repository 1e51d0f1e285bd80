package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	ordersvc "github.com/oneclickretail/oneclick-backend/internal/orders"
	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
	"github.com/oneclickretail/oneclick-backend/pkg/types"
)

// imageRefs accepts either a single string or a list of strings, the two
// shapes storefront clients send for a line's image reference.
type imageRefs []string

func (i *imageRefs) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*i = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*i = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("image must be a string or list of strings")
	}
	if single == "" {
		*i = nil
		return nil
	}
	*i = []string{single}
	return nil
}

type placeOrderLineRequest struct {
	ProductID   string    `json:"product_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,min=1"`
	Price       int64     `json:"price" validate:"required,min=1"`
	Name        string    `json:"name" validate:"required"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       imageRefs `json:"image,omitempty"`
}

type placeOrderRequest struct {
	UserID          string                  `json:"user_id,omitempty"`
	TotalAmount     int64                   `json:"total_amount" validate:"required,min=1"`
	PaymentMethod   string                  `json:"payment_method" validate:"required"`
	Status          string                  `json:"status,omitempty"`
	ShippingAddress *types.AddressSnapshot  `json:"shipping_address,omitempty"`
	AddressID       string                  `json:"address_id,omitempty"`
	CartItems       []placeOrderLineRequest `json:"cart_items" validate:"required,min=1"`
}

type orderItemResponse struct {
	ProdID         string   `json:"prod_id"`
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	LineTotalCents int64    `json:"line_total_cents"`
	Images         []string `json:"images,omitempty"`
}

type orderResponse struct {
	OrderNumber     string                 `json:"order_number"`
	Status          string                 `json:"status"`
	PaymentMethod   string                 `json:"payment_method"`
	TotalCents      int64                  `json:"total_cents"`
	DeliveryStatus  string                 `json:"delivery_status"`
	DeliveryDate    time.Time              `json:"delivery_date"`
	ShippingAddress *types.AddressSnapshot `json:"shipping_address,omitempty"`
	Items           []orderItemResponse    `json:"items,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type orderListResponse struct {
	Items      []orderResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderResponse(order models.Order, images map[string][]string) orderResponse {
	resp := orderResponse{
		OrderNumber:     order.OrderNumber,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		TotalCents:      order.TotalCents,
		DeliveryStatus:  order.DeliveryStatus,
		DeliveryDate:    order.DeliveryDate,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		entry := orderItemResponse{
			ProdID:         item.ProdID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			LineTotalCents: item.LineTotalCents,
		}
		if images != nil {
			entry.Images = images[item.ProdID]
		}
		resp.Items = append(resp.Items, entry)
	}
	return resp
}

func newOrderListResponse(list *ordersvc.OrderList) orderListResponse {
	resp := orderListResponse{Items: make([]orderResponse, 0, len(list.Items)), NextCursor: list.NextCursor}
	for _, order := range list.Items {
		resp.Items = append(resp.Items, newOrderResponse(order, nil))
	}
	return resp
}

// PlaceOrder handles the multipart place-order form: a JSON payload field
// plus optional image files matched to lines by original filename.
func PlaceOrder(svc ordersvc.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(uploads.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		raw := strings.TrimSpace(r.FormValue(multipartPayloadField))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payload field required"))
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONString(raw, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.PlaceInput{
			UserID:          uid,
			TotalCents:      body.TotalAmount,
			PaymentMethod:   body.PaymentMethod,
			ShippingAddress: body.ShippingAddress,
		}
		if body.AddressID != "" {
			addressID, err := uuid.Parse(body.AddressID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
				return
			}
			input.AddressID = addressID
		}

		for _, line := range body.CartItems {
			input.Lines = append(input.Lines, ordersvc.LineInput{
				ProdID:         line.ProductID,
				Name:           line.Name,
				Category:       line.Category,
				Description:    line.Description,
				Quantity:       line.Quantity,
				UnitPriceCents: line.Price,
				ImageRefs:      line.Image,
			})
		}

		if r.MultipartForm != nil {
			headers := r.MultipartForm.File[multipartImagesField]
			if len(headers) > uploads.MaxFiles {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many image files").WithDetails(map[string]any{"max": uploads.MaxFiles}))
				return
			}
			for _, header := range headers {
				file, err := header.Open()
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open uploaded file"))
					return
				}
				defer file.Close()
				input.Uploads = append(input.Uploads, ordersvc.ImageUpload{Filename: header.Filename, Reader: file})
			}
		}

		result, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"message":   "Order placed successfully.",
			"unique_id": result.OrderNumber,
		})
	}
}

// ListOrders returns the customer's own orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), uid, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// OrderDetail returns one order with its snapshot images. Customers only
// see their own orders; staff see everything.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), chi.URLParam(r, "orderNumber"), uid, isStaff(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(detail.Order, detail.Images))
	}
}
