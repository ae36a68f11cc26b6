package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog row read at checkout.
type Product struct {
	ID                       uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	VendorID                 uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name                     string              `gorm:"column:name;not null"`
	PricePerUnit             decimal.Decimal     `gorm:"column:price_per_unit;type:numeric(14,3);not null"`
	SpecialPrice             decimal.NullDecimal `gorm:"column:special_price;type:numeric(14,3)"`
	SpecialPriceStartingDate *time.Time          `gorm:"column:special_price_starting_date"`
	SpecialPriceEndingDate   *time.Time          `gorm:"column:special_price_ending_date"`
	IsActive                 bool                `gorm:"column:is_active;not null"`
	CreatedAt                time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Variations               []ProductVariation  `gorm:"foreignKey:ProductID;references:ID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductVariation is a selectable option with its own price.
type ProductVariation struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,3);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (v *ProductVariation) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
