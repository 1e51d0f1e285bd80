package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a product-scoped discount code. The same code may exist on
// multiple products; redemption sums every matching unexpired row.
type Coupon struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProdID        string          `gorm:"column:prod_id;not null;index"`
	Code          string          `gorm:"column:code;not null;index"`
	DiscountValue decimal.Decimal `gorm:"column:discount_value;type:numeric(12,2);not null"`
	ExpiresOn     time.Time       `gorm:"column:expires_on;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CommonCoupon is a site-wide discount code with a minimum purchase floor.
// The floor is stored here but enforced by the caller, not the engine.
type CommonCoupon struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null;uniqueIndex"`
	Value            decimal.Decimal `gorm:"column:value;type:numeric(12,2);not null"`
	MinPurchaseCents int64           `gorm:"column:min_purchase_cents;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
