package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
)

// ProductDTO is the catalog read model exposed over the API.
type ProductDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountPrice   *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice  decimal.Decimal  `json:"effective_price"`
	ImageURLs       []string         `json:"image_urls,omitempty"`
	IsActive        bool             `json:"is_active"`
	QuantityInStock int              `json:"quantity_in_stock"`
	InStock         bool             `json:"in_stock"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ProductListResult bundles a page of products with the next cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO merges the product row with its inventory record. A missing
// inventory record reads as zero stock at list price.
func NewProductDTO(product *models.Product, inventory *models.InventoryRecord) *ProductDTO {
	dto := &ProductDTO{
		ID:             product.ID,
		Name:           product.Name,
		Slug:           product.Slug,
		Description:    product.Description,
		Price:          product.Price,
		EffectivePrice: effectivePrice(product, inventory),
		ImageURLs:      product.ImageURLs,
		IsActive:       product.IsActive,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
	if inventory != nil {
		dto.DiscountPrice = inventory.DiscountPrice
		dto.QuantityInStock = inventory.QuantityInStock
		dto.InStock = inventory.QuantityInStock > 0
	}
	return dto
}

func effectivePrice(product *models.Product, inventory *models.InventoryRecord) decimal.Decimal {
	if inventory != nil && inventory.DiscountPrice != nil && inventory.DiscountPrice.IsPositive() {
		return *inventory.DiscountPrice
	}
	return product.Price
}
