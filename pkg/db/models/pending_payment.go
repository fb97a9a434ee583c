package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// PendingPayment records a gateway payment that succeeded while order
// creation failed. Rows are durable so a restart cannot lose money; the
// reconciliation worker retries order creation from the surviving context.
type PendingPayment struct {
	ID               uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID    string                     `gorm:"column:transaction_id;not null;uniqueIndex"`
	GatewayReference string                     `gorm:"column:gateway_reference"`
	Amount           decimal.Decimal            `gorm:"column:amount;type:numeric(14,2);not null"`
	OrderID          *uuid.UUID                 `gorm:"column:order_id;type:uuid"`
	CustomerID       *uuid.UUID                 `gorm:"column:customer_id;type:uuid"`
	AddressID        *uuid.UUID                 `gorm:"column:address_id;type:uuid"`
	ShippingMethod   *enums.ShippingMethod      `gorm:"column:shipping_method;type:shipping_method"`
	OrderNote        string                     `gorm:"column:order_note"`
	PaymentTime      time.Time                  `gorm:"column:payment_time;not null"`
	Status           enums.PendingPaymentStatus `gorm:"column:status;type:pending_payment_status;not null;default:'pending_order_creation'"`
	Attempts         int                        `gorm:"column:attempts;not null;default:0"`
	LastError        string                     `gorm:"column:last_error"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
