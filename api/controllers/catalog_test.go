package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/oneclickretail/oneclick-backend/internal/catalog"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/pagination"
)

type stubCatalogService struct {
	list        *catalog.ProductList
	listErr     error
	detail      *catalog.ProductDetail
	detailErr   error
	lastDrafts  bool
	lastCategry string
}

func (s *stubCatalogService) Create(_ context.Context, _ catalog.CreateInput) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) Update(_ context.Context, _ string, _ catalog.UpdateInput) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) Approve(_ context.Context, _ string) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) SetAvailability(_ context.Context, _ string, _ enums.ProductAvailability) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) AddImages(_ context.Context, _ string, _ []catalog.ImageUpload) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) ReplaceImage(_ context.Context, _ string, _ int, _ catalog.ImageUpload) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) DeleteImage(_ context.Context, _ string, _ int) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) List(_ context.Context, category string, _ pagination.Params, includeDrafts bool) (*catalog.ProductList, error) {
	s.lastCategry = category
	s.lastDrafts = includeDrafts
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

func (s *stubCatalogService) Get(_ context.Context, _ string, includeDrafts bool) (*catalog.ProductDetail, error) {
	s.lastDrafts = includeDrafts
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detail, nil
}

func (s *stubCatalogService) Delete(_ context.Context, _ string) error { return nil }

func catalogRequest(target, category string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("category", category)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCatalogListReturnsApprovedOnly(t *testing.T) {
	svc := &stubCatalogService{list: &catalog.ProductList{
		Items: []models.Product{
			{ProdID: "PRD00000001", Name: "Phone", Category: enums.ProductCategoryMobiles, Status: enums.ProductStatusApproved, PriceCents: 100000},
		},
		NextCursor: "cursor-1",
	}}
	handler := CatalogList(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, catalogRequest("/api/v1/catalog/mobiles", "mobiles"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastDrafts {
		t.Fatal("expected storefront listing to exclude drafts")
	}
	if svc.lastCategry != "mobiles" {
		t.Fatalf("expected category mobiles, got %s", svc.lastCategry)
	}

	var envelope struct {
		Data productListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].ProdID != "PRD00000001" {
		t.Fatalf("unexpected items: %+v", envelope.Data.Items)
	}
	if envelope.Data.NextCursor != "cursor-1" {
		t.Fatalf("expected next cursor, got %q", envelope.Data.NextCursor)
	}
}

func TestCatalogListRejectsBadLimit(t *testing.T) {
	handler := CatalogList(&stubCatalogService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, catalogRequest("/api/v1/catalog/mobiles?limit=abc", "mobiles"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCatalogDetailResolvesAccessories(t *testing.T) {
	svc := &stubCatalogService{detail: &catalog.ProductDetail{
		Product: models.Product{ProdID: "PRD00000001", Name: "Phone", Status: enums.ProductStatusApproved},
		Accessories: []models.Product{
			{ProdID: "PRD00000002", Name: "Case", Status: enums.ProductStatusApproved},
		},
	}}
	handler := CatalogDetail(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/mobiles/PRD00000001", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("category", "mobiles")
	rc.URLParams.Add("prodId", "PRD00000001")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data productDetailResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Accessories) != 1 || envelope.Data.Accessories[0].ProdID != "PRD00000002" {
		t.Fatalf("unexpected accessories: %+v", envelope.Data.Accessories)
	}
}

func TestCatalogDetailHidesDrafts(t *testing.T) {
	svc := &stubCatalogService{detailErr: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := CatalogDetail(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/mobiles/PRD00000009", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("prodId", "PRD00000009")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
