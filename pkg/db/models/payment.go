package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Payment tracks money movement for an order. A gateway confirmation updates
// the row created at placement rather than inserting a second one; refunds
// insert a negative-amount row.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Method        string              `gorm:"column:method;not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	TransactionID string              `gorm:"column:transaction_id;not null;uniqueIndex"`
	Note          string              `gorm:"column:note"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
