package catalog

import (
	"io"
	"time"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
)

// ImageUpload is one multipart file forwarded by a controller.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

// FeaturesInput carries the category-dependent spec sheet fields.
type FeaturesInput struct {
	Memory    *string
	Storage   *string
	Processor *string
	Camera    *string
	Display   *string
	Battery   *string
	OS        *string
	Network   *string
	Other     *string
}

// CreateInput carries an admin product-create request.
type CreateInput struct {
	Name                string
	Category            string
	Description         string
	PriceCents          int64
	ListPriceCents      int64
	DeliveryChargeCents int64
	AccessoryProdIDs    []string
	Features            *FeaturesInput
	Images              []ImageUpload
}

// UpdateInput carries an admin partial update. Nil fields stay untouched.
type UpdateInput struct {
	Name                *string
	Description         *string
	PriceCents          *int64
	ListPriceCents      *int64
	DeliveryChargeCents *int64
	Availability        *string
	OfferPriceCents     *int64
	OfferStartsAt       *time.Time
	OfferEndsAt         *time.Time
	ClearOffer          bool
	AccessoryProdIDs    []string
	Features            *FeaturesInput
}

// ProductDetail is a catalog row plus its resolved accessory listings.
type ProductDetail struct {
	Product     models.Product
	Accessories []models.Product
}

func applyFeatures(product models.Product, input *FeaturesInput) *models.ProductFeatures {
	if input == nil {
		return nil
	}
	return &models.ProductFeatures{
		ProductID: product.ID,
		Memory:    input.Memory,
		Storage:   input.Storage,
		Processor: input.Processor,
		Camera:    input.Camera,
		Display:   input.Display,
		Battery:   input.Battery,
		OS:        input.OS,
		Network:   input.Network,
		Other:     input.Other,
	}
}

// categoryOf parses and validates the category path segment.
func categoryOf(raw string) (enums.ProductCategory, error) {
	return enums.ParseProductCategory(raw)
}
