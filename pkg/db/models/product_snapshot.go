package models

import (
	"time"
)

// ProductSnapshot mirrors catalog fields captured at order time, keyed by
// the business prod id. Orders keep rendering correctly even after the
// catalog entry is edited or deleted.
type ProductSnapshot struct {
	ProdID      string          `gorm:"column:prod_id;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Category    string          `gorm:"column:category;not null"`
	PriceCents  int64           `gorm:"column:price_cents;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Images      []SnapshotImage `gorm:"foreignKey:ProdID;references:ProdID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// SnapshotImage is one stored image reference attached to a product
// snapshot at order time, either an uploaded filename or a carried-over URL.
type SnapshotImage struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProdID    string    `gorm:"column:prod_id;not null;index"`
	Image     string    `gorm:"column:image;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
