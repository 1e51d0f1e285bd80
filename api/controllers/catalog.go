package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	"github.com/oneclickretail/oneclick-backend/internal/catalog"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

type featuresResponse struct {
	Memory    *string `json:"memory,omitempty"`
	Storage   *string `json:"storage,omitempty"`
	Processor *string `json:"processor,omitempty"`
	Camera    *string `json:"camera,omitempty"`
	Display   *string `json:"display,omitempty"`
	Battery   *string `json:"battery,omitempty"`
	OS        *string `json:"os,omitempty"`
	Network   *string `json:"network,omitempty"`
	Other     *string `json:"other,omitempty"`
}

type productResponse struct {
	ProdID              string            `json:"prod_id"`
	Name                string            `json:"name"`
	Category            string            `json:"category"`
	Description         string            `json:"description"`
	PriceCents          int64             `json:"price_cents"`
	ListPriceCents      int64             `json:"list_price_cents"`
	EffectivePriceCents int64             `json:"effective_price_cents"`
	OfferPriceCents     *int64            `json:"offer_price_cents,omitempty"`
	OfferStartsAt       *time.Time        `json:"offer_starts_at,omitempty"`
	OfferEndsAt         *time.Time        `json:"offer_ends_at,omitempty"`
	DeliveryChargeCents int64             `json:"delivery_charge_cents"`
	Status              string            `json:"status"`
	Availability        string            `json:"availability"`
	Images              []string          `json:"images"`
	AccessoryProdIDs    []string          `json:"accessory_prod_ids"`
	Features            *featuresResponse `json:"features,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

type productDetailResponse struct {
	productResponse
	Accessories []productResponse `json:"accessories"`
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func newProductResponse(product models.Product) productResponse {
	resp := productResponse{
		ProdID:              product.ProdID,
		Name:                product.Name,
		Category:            string(product.Category),
		Description:         product.Description,
		PriceCents:          product.PriceCents,
		ListPriceCents:      product.ListPriceCents,
		EffectivePriceCents: product.EffectivePriceCents(time.Now().UTC()),
		OfferPriceCents:     product.OfferPriceCents,
		OfferStartsAt:       product.OfferStartsAt,
		OfferEndsAt:         product.OfferEndsAt,
		DeliveryChargeCents: product.DeliveryChargeCents,
		Status:              string(product.Status),
		Availability:        string(product.Availability),
		Images:              append([]string{}, product.Images...),
		AccessoryProdIDs:    append([]string{}, product.AccessoryProdIDs...),
		CreatedAt:           product.CreatedAt,
	}
	if product.Features != nil {
		resp.Features = &featuresResponse{
			Memory:    product.Features.Memory,
			Storage:   product.Features.Storage,
			Processor: product.Features.Processor,
			Camera:    product.Features.Camera,
			Display:   product.Features.Display,
			Battery:   product.Features.Battery,
			OS:        product.Features.OS,
			Network:   product.Features.Network,
			Other:     product.Features.Other,
		}
	}
	return resp
}

func newProductListResponse(list *catalog.ProductList) productListResponse {
	resp := productListResponse{Items: make([]productResponse, 0, len(list.Items)), NextCursor: list.NextCursor}
	for _, product := range list.Items {
		resp.Items = append(resp.Items, newProductResponse(product))
	}
	return resp
}

// CatalogList returns the approved storefront listings for one category.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), chi.URLParam(r, "category"), params, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductListResponse(list))
	}
}

// CatalogDetail returns one approved listing with its resolved accessories.
func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		detail, err := svc.Get(r.Context(), chi.URLParam(r, "prodId"), false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := productDetailResponse{productResponse: newProductResponse(detail.Product)}
		resp.Accessories = make([]productResponse, 0, len(detail.Accessories))
		for _, accessory := range detail.Accessories {
			resp.Accessories = append(resp.Accessories, newProductResponse(accessory))
		}
		responses.WriteSuccess(w, resp)
	}
}
