package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PersonnelCategory is the category name under which staff bookings are listed
const PersonnelCategory = "personal"

// Product represents a rentable catalog item, a consumable or a staff booking
type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name             string          `gorm:"size:255;not null" json:"name"`
	Slug             string          `gorm:"size:255;unique;not null" json:"slug"`
	Description      *string         `gorm:"type:text" json:"description,omitempty"`
	PricePerDay      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price_per_day"`
	PricePerUnit     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price_per_unit"`
	PurchasePrice    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"purchase_price"`
	ShippingCost     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"shipping_cost"`
	InstallationCost decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"installation_cost"`
	IsConsumable     bool            `gorm:"not null" json:"is_consumable"`
	IsPack           bool            `gorm:"not null" json:"is_pack"`
	Stock            int             `gorm:"default:0" json:"stock"`
	Active           bool            `gorm:"not null;index" json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Kind derives how the product is priced. The Category relation must be loaded
// for staff bookings to be recognised.
func (p *Product) Kind() enum.ItemKind {
	if p.Category != nil && strings.EqualFold(strings.TrimSpace(p.Category.Name), PersonnelCategory) {
		return enum.ItemKindPersonnel
	}
	if p.IsConsumable {
		return enum.ItemKindConsumable
	}
	return enum.ItemKindProduct
}

// SalePrice returns the per-unit price for consumables and the daily (or
// hourly, for staff) rate for everything else
func (p *Product) SalePrice() decimal.Decimal {
	if p.Kind() == enum.ItemKindConsumable {
		return p.PricePerUnit
	}
	return p.PricePerDay
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new category
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
