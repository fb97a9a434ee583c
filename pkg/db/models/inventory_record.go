package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord tracks per-product stock. QuantityInStock never drops below
// zero; the decrement path enforces that with a conditional update and the
// schema backs it with a CHECK constraint.
type InventoryRecord struct {
	ProductID       uuid.UUID        `gorm:"column:product_id;type:uuid;primaryKey"`
	QuantityInStock int              `gorm:"column:quantity_in_stock;not null;default:0"`
	ReorderLevel    int              `gorm:"column:reorder_level;not null;default:0"`
	DiscountPrice   *decimal.Decimal `gorm:"column:discount_price;type:numeric(14,2)"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
