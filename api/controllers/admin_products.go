package controllers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	"github.com/oneclickretail/oneclick-backend/internal/catalog"
	"github.com/oneclickretail/oneclick-backend/pkg/config"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

const multipartPayloadField = "payload"
const multipartImagesField = "images"

type featuresRequest struct {
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

func (f *featuresRequest) toInput() *catalog.FeaturesInput {
	if f == nil {
		return nil
	}
	return &catalog.FeaturesInput{
		Memory:    f.Memory,
		Storage:   f.Storage,
		Processor: f.Processor,
		Camera:    f.Camera,
		Display:   f.Display,
		Battery:   f.Battery,
		OS:        f.OS,
		Network:   f.Network,
		Other:     f.Other,
	}
}

type createProductRequest struct {
	Name                string           `json:"name" validate:"required,min=2,max=200"`
	Category            string           `json:"category" validate:"required"`
	Description         string           `json:"description,omitempty"`
	PriceCents          int64            `json:"price_cents" validate:"required,min=1"`
	ListPriceCents      int64            `json:"list_price_cents,omitempty" validate:"omitempty,min=0"`
	DeliveryChargeCents int64            `json:"delivery_charge_cents,omitempty" validate:"omitempty,min=0"`
	AccessoryProdIDs    []string         `json:"accessory_prod_ids,omitempty"`
	Features            *featuresRequest `json:"features,omitempty"`
}

type updateProductRequest struct {
	Name                *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description         *string          `json:"description,omitempty"`
	PriceCents          *int64           `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	ListPriceCents      *int64           `json:"list_price_cents,omitempty" validate:"omitempty,min=0"`
	DeliveryChargeCents *int64           `json:"delivery_charge_cents,omitempty" validate:"omitempty,min=0"`
	Availability        *string          `json:"availability,omitempty"`
	OfferPriceCents     *int64           `json:"offer_price_cents,omitempty" validate:"omitempty,min=1"`
	OfferStartsAt       *time.Time       `json:"offer_starts_at,omitempty"`
	OfferEndsAt         *time.Time       `json:"offer_ends_at,omitempty"`
	ClearOffer          bool             `json:"clear_offer,omitempty"`
	AccessoryProdIDs    []string         `json:"accessory_prod_ids,omitempty"`
	Features            *featuresRequest `json:"features,omitempty"`
}

// parseMultipartUploads parses the request form and collects the uploaded
// image files in submission order.
func parseMultipartUploads(r *http.Request, uploads config.UploadsConfig) ([]catalog.ImageUpload, error) {
	if err := r.ParseMultipartForm(uploads.MaxUploadBytes()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[multipartImagesField]
	if len(headers) > uploads.MaxFiles {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many image files").WithDetails(map[string]any{"max": uploads.MaxFiles})
	}

	files := make([]catalog.ImageUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeUploads(files)
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open uploaded file")
		}
		files = append(files, catalog.ImageUpload{Filename: header.Filename, Reader: file})
	}
	return files, nil
}

// closeUploads releases the file handles behind the parsed uploads.
func closeUploads(files []catalog.ImageUpload) {
	for _, f := range files {
		if closer, ok := f.Reader.(io.Closer); ok {
			closer.Close()
		}
	}
}

// AdminCreateProduct handles the multipart product-create form: a JSON
// payload field plus up to the configured number of image files.
func AdminCreateProduct(svc catalog.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		files, err := parseMultipartUploads(r, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUploads(files)

		raw := strings.TrimSpace(r.FormValue(multipartPayloadField))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payload field required"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONString(raw, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), catalog.CreateInput{
			Name:                body.Name,
			Category:            body.Category,
			Description:         body.Description,
			PriceCents:          body.PriceCents,
			ListPriceCents:      body.ListPriceCents,
			DeliveryChargeCents: body.DeliveryChargeCents,
			AccessoryProdIDs:    body.AccessoryProdIDs,
			Features:            body.Features.toInput(),
			Images:              files,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*product))
	}
}

// AdminUpdateProduct applies a partial catalog update.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), chi.URLParam(r, "prodId"), catalog.UpdateInput{
			Name:                body.Name,
			Description:         body.Description,
			PriceCents:          body.PriceCents,
			ListPriceCents:      body.ListPriceCents,
			DeliveryChargeCents: body.DeliveryChargeCents,
			Availability:        body.Availability,
			OfferPriceCents:     body.OfferPriceCents,
			OfferStartsAt:       body.OfferStartsAt,
			OfferEndsAt:         body.OfferEndsAt,
			ClearOffer:          body.ClearOffer,
			AccessoryProdIDs:    body.AccessoryProdIDs,
			Features:            body.Features.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// AdminDeleteProduct removes a listing and its stored image files.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "prodId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Product deleted."})
	}
}

// AdminApproveProduct publishes a draft listing to the storefront.
func AdminApproveProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.Approve(r.Context(), chi.URLParam(r, "prodId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// AdminListProducts returns listings including unapproved drafts.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.List(r.Context(), r.URL.Query().Get("category"), params, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductListResponse(list))
	}
}

// AdminAddProductImages appends uploaded images to a listing.
func AdminAddProductImages(svc catalog.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		files, err := parseMultipartUploads(r, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUploads(files)
		if len(files) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one image file required"))
			return
		}

		product, err := svc.AddImages(r.Context(), chi.URLParam(r, "prodId"), files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// AdminReplaceProductImage swaps the image at a positional index.
func AdminReplaceProductImage(svc catalog.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		index, err := imageIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		files, err := parseMultipartUploads(r, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUploads(files)
		if len(files) != 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "exactly one image file required"))
			return
		}

		product, err := svc.ReplaceImage(r.Context(), chi.URLParam(r, "prodId"), index, files[0])
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// AdminDeleteProductImage removes the image at a positional index.
func AdminDeleteProductImage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		index, err := imageIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.DeleteImage(r.Context(), chi.URLParam(r, "prodId"), index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

func imageIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Invalid image index.")
	}
	return index, nil
}
