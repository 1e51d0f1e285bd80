package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductFeatures carries the category-dependent spec sheet (phone and
// computer attributes). One-to-one with Product; created and deleted with it.
type ProductFeatures struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Memory    *string   `gorm:"column:memory"`
	Storage   *string   `gorm:"column:storage"`
	Processor *string   `gorm:"column:processor"`
	Camera    *string   `gorm:"column:camera"`
	Display   *string   `gorm:"column:display"`
	Battery   *string   `gorm:"column:battery"`
	OS        *string   `gorm:"column:os"`
	Network   *string   `gorm:"column:network"`
	Other     *string   `gorm:"column:other"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
