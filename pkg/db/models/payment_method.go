package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is a saved way to pay. Card numbers are stored masked only
// (xxxx-xxxx-xxxx-last4); the default-flag invariant matches Address.
type PaymentMethod struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Provider      string    `gorm:"column:provider"`
	AccountNumber string    `gorm:"column:account_number"`
	IsDefault     bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
