package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRequest represents a product create or update request. Omitted
// fields are left unchanged on update.
type ProductRequest struct {
	CategoryID       *uuid.UUID       `json:"category_id"`
	Name             *string          `json:"name" binding:"omitempty,min=2,max=255"`
	Description      *string          `json:"description"`
	PricePerDay      *decimal.Decimal `json:"price_per_day"`
	PricePerUnit     *decimal.Decimal `json:"price_per_unit"`
	PurchasePrice    *decimal.Decimal `json:"purchase_price"`
	ShippingCost     *decimal.Decimal `json:"shipping_cost"`
	InstallationCost *decimal.Decimal `json:"installation_cost"`
	IsConsumable     *bool            `json:"is_consumable"`
	IsPack           *bool            `json:"is_pack"`
	Stock            *int             `json:"stock"`
	Active           *bool            `json:"active"`
}

// CreateCategoryRequest represents a category creation request
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	PacksOnly  bool   `form:"packs_only"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}
