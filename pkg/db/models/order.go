package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Order is created exactly once per order placement transaction. Line data is
// immutable afterwards; only status and the timeline move.
type Order struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID            uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderDate             time.Time            `gorm:"column:order_date;not null"`
	Status                enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'new'"`
	AddressID             uuid.UUID            `gorm:"column:address_id;type:uuid;not null"`
	PaymentMethod         string               `gorm:"column:payment_method;not null"`
	ShippingMethod        enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method;not null"`
	ShippingFee           decimal.Decimal      `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	Subtotal              decimal.Decimal      `gorm:"column:subtotal;type:numeric(14,2);not null"`
	DiscountAmount        decimal.Decimal      `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	Total                 decimal.Decimal      `gorm:"column:total;type:numeric(14,2);not null"`
	EstimatedDeliveryDate time.Time            `gorm:"column:estimated_delivery_date;not null"`
	Note                  string               `gorm:"column:note"`
	Details               []OrderDetail        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Timeline              []OrderTimelineEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
