package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is customer-owned shipping reference data. When any addresses exist
// for a customer exactly one carries is_default, enforced by a partial unique
// index on (customer_id) where is_default.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Recipient  string    `gorm:"column:recipient;not null"`
	Phone      string    `gorm:"column:phone;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	Ward       string    `gorm:"column:ward"`
	District   string    `gorm:"column:district"`
	City       string    `gorm:"column:city;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
