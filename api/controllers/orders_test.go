package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/api/middleware"
	ordersvc "github.com/oneclickretail/oneclick-backend/internal/orders"
	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/pagination"
)

type stubOrdersService struct {
	placed    *ordersvc.PlaceInput
	placeErr  error
	detail    *ordersvc.OrderDetail
	detailErr error
	list      *ordersvc.OrderList
}

func (s *stubOrdersService) Place(_ context.Context, input ordersvc.PlaceInput) (*ordersvc.PlaceResult, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	s.placed = &input
	return &ordersvc.PlaceResult{OrderNumber: "ORD00001234", Order: &models.Order{OrderNumber: "ORD00001234"}}, nil
}

func (s *stubOrdersService) ListForUser(_ context.Context, _ uuid.UUID, _ pagination.Params) (*ordersvc.OrderList, error) {
	if s.list != nil {
		return s.list, nil
	}
	return &ordersvc.OrderList{}, nil
}

func (s *stubOrdersService) ListAll(_ context.Context, _ pagination.Params) (*ordersvc.OrderList, error) {
	if s.list != nil {
		return s.list, nil
	}
	return &ordersvc.OrderList{}, nil
}

func (s *stubOrdersService) Get(_ context.Context, _ string, _ uuid.UUID, _ bool) (*ordersvc.OrderDetail, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detail, nil
}

func (s *stubOrdersService) UpdateDelivery(_ context.Context, _ string, _ ordersvc.DeliveryUpdate) error {
	return nil
}

func (s *stubOrdersService) Delete(_ context.Context, _ string) error {
	return nil
}

func testUploadsConfig() config.UploadsConfig {
	return config.UploadsConfig{Dir: "uploads", MaxFiles: 5, MaxUploadMB: 20, PublicPrefix: "/uploads"}
}

func multipartOrderRequest(t *testing.T, payload string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("payload", payload); err != nil {
		t.Fatalf("write payload field: %v", err)
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	return req
}

func TestPlaceOrderSuccess(t *testing.T) {
	svc := &stubOrdersService{}
	handler := PlaceOrder(svc, testUploadsConfig(), nil)

	payload := `{"total_amount":250,"payment_method":"cod","address_id":"` + uuid.NewString() + `","cart_items":[{"product_id":"PRD00000001","quantity":2,"price":100,"name":"Phone","image":"phone.jpg"},{"product_id":"PRD00000002","quantity":1,"price":50,"name":"Case","image":["case.jpg","case-alt.jpg"]}]}`
	req := multipartOrderRequest(t, payload, map[string]string{"phone.jpg": "jpegbytes"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Message  string `json:"message"`
			UniqueID string `json:"unique_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.UniqueID != "ORD00001234" {
		t.Fatalf("unexpected unique id: %s", envelope.Data.UniqueID)
	}

	if svc.placed == nil {
		t.Fatal("expected service to receive input")
	}
	if len(svc.placed.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(svc.placed.Lines))
	}
	if got := svc.placed.Lines[0].ImageRefs; len(got) != 1 || got[0] != "phone.jpg" {
		t.Fatalf("expected single string image ref, got %v", got)
	}
	if got := svc.placed.Lines[1].ImageRefs; len(got) != 2 {
		t.Fatalf("expected list image refs, got %v", got)
	}
	if len(svc.placed.Uploads) != 1 || svc.placed.Uploads[0].Filename != "phone.jpg" {
		t.Fatalf("expected uploaded file forwarded, got %+v", svc.placed.Uploads)
	}
}

func TestPlaceOrderRequiresPayloadField(t *testing.T) {
	handler := PlaceOrder(&stubOrdersService{}, testUploadsConfig(), nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPlaceOrderRequiresAuthContext(t *testing.T) {
	handler := PlaceOrder(&stubOrdersService{}, testUploadsConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderDetailNotFoundPassthrough(t *testing.T) {
	svc := &stubOrdersService{detailErr: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	handler := OrderDetail(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD00009999", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderNumber", "ORD00009999")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderDetailRendersSnapshotImages(t *testing.T) {
	order := models.Order{
		OrderNumber:    "ORD00001234",
		Status:         enums.OrderStatusPending,
		PaymentMethod:  enums.PaymentMethodCOD,
		TotalCents:     250,
		DeliveryStatus: enums.DeliveryStatusInitial,
		DeliveryDate:   time.Now().UTC(),
		Items: []models.OrderItem{
			{ProdID: "PRD00000001", Name: "Phone", Quantity: 2, LineTotalCents: 200},
		},
	}
	svc := &stubOrdersService{detail: &ordersvc.OrderDetail{
		Order:  order,
		Images: map[string][]string{"PRD00000001": {"/uploads/orders/1-phone.jpg"}},
	}}
	handler := OrderDetail(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD00001234", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderNumber", "ORD00001234")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(envelope.Data.Items))
	}
	if len(envelope.Data.Items[0].Images) != 1 {
		t.Fatalf("expected snapshot image on item, got %v", envelope.Data.Items[0].Images)
	}
}
