package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/oneclickretail/oneclick-backend/pkg/enums"
)

// Product is the canonical catalog listing across every category. The
// Images slice is ordered; its indices are the contract for the positional
// replace/delete operations.
type Product struct {
	ID                  uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProdID              string                    `gorm:"column:prod_id;not null;uniqueIndex"`
	Name                string                    `gorm:"column:name;not null"`
	Category            enums.ProductCategory     `gorm:"column:category;not null;index"`
	Description         string                    `gorm:"column:description;not null;default:''"`
	PriceCents          int64                     `gorm:"column:price_cents;not null"`
	ListPriceCents      int64                     `gorm:"column:list_price_cents;not null;default:0"`
	OfferPriceCents     *int64                    `gorm:"column:offer_price_cents"`
	OfferStartsAt       *time.Time                `gorm:"column:offer_starts_at"`
	OfferEndsAt         *time.Time                `gorm:"column:offer_ends_at"`
	DeliveryChargeCents int64                     `gorm:"column:delivery_charge_cents;not null;default:0"`
	Status              enums.ProductStatus       `gorm:"column:status;not null;default:'draft'"`
	Availability        enums.ProductAvailability `gorm:"column:availability;not null;default:'in_stock'"`
	Images              pq.StringArray            `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	AccessoryProdIDs    pq.StringArray            `gorm:"column:accessory_prod_ids;type:text[];not null;default:ARRAY[]::text[]"`
	Features            *ProductFeatures          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents returns the offer price while an offer window is
// active, and the regular price otherwise.
func (p Product) EffectivePriceCents(now time.Time) int64 {
	if p.OfferPriceCents == nil {
		return p.PriceCents
	}
	if p.OfferStartsAt != nil && now.Before(*p.OfferStartsAt) {
		return p.PriceCents
	}
	if p.OfferEndsAt != nil && now.After(*p.OfferEndsAt) {
		return p.PriceCents
	}
	return *p.OfferPriceCents
}
