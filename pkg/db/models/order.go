package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	"github.com/oneclickretail/oneclick-backend/pkg/types"
)

// Order is the order header. OrderNumber is the human-readable business id
// (ORD + 8 digits) guarded by a unique index and insert-time retry.
type Order struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                 `gorm:"column:order_number;not null;uniqueIndex"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	TotalCents      int64                  `gorm:"column:total_cents;not null"`
	PaymentMethod   enums.PaymentMethod    `gorm:"column:payment_method;not null"`
	Status          enums.OrderStatus      `gorm:"column:status;not null;default:'pending'"`
	DeliveryStatus  string                 `gorm:"column:delivery_status;not null"`
	DeliveryDate    time.Time              `gorm:"column:delivery_date;not null"`
	AddressID       uuid.UUID              `gorm:"column:address_id;type:uuid;not null"`
	ShippingAddress *types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Items           []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
