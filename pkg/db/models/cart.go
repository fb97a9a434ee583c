package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Cart is the mutable shopping cart. At most one active cart exists per
// customer, enforced by a partial unique index on (customer_id) where
// status='active'.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	TotalAmount decimal.Decimal  `gorm:"column:total_amount;type:numeric(14,2);not null;default:0"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
