package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// CheckoutSession is the durable wizard state: one row per customer, expiring
// after a short TTL that is extended for the gateway round trip. Card details
// are never stored raw, only the masked last4/provider pair.
type CheckoutSession struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	Step           enums.CheckoutStep    `gorm:"column:step;type:checkout_step;not null;default:'address'"`
	AddressID      *uuid.UUID            `gorm:"column:address_id;type:uuid"`
	ShippingMethod *enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method"`
	PaymentChannel *enums.PaymentChannel `gorm:"column:payment_channel;type:payment_channel"`
	CardLast4      string                `gorm:"column:card_last4"`
	CardProvider   string                `gorm:"column:card_provider"`
	TermsAccepted  bool                  `gorm:"column:terms_accepted;not null;default:false"`
	OrderNote      string                `gorm:"column:order_note"`
	GatewayTotal   *decimal.Decimal      `gorm:"column:gateway_total;type:numeric(14,2)"`
	GatewayRef     string                `gorm:"column:gateway_ref"`
	ExpiresAt      time.Time             `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
