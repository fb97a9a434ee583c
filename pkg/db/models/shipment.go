package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Shipment is created alongside the order and walks the carrier state
// machine. DeliveryDate is set when the shipment is marked delivered.
type Shipment struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Provider              string               `gorm:"column:provider;not null"`
	TrackingNumber        string               `gorm:"column:tracking_number;not null;uniqueIndex"`
	ShippingCost          decimal.Decimal      `gorm:"column:shipping_cost;type:numeric(14,2);not null"`
	Status                enums.ShipmentStatus `gorm:"column:status;type:shipment_status;not null;default:'pending'"`
	EstimatedDeliveryDate time.Time            `gorm:"column:estimated_delivery_date;not null"`
	DeliveryDate          *time.Time           `gorm:"column:delivery_date"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
