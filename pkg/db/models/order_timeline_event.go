package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// OrderTimelineEvent is an append-only audit entry for an order.
type OrderTimelineEvent struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Description string            `gorm:"column:description"`
	Icon        string            `gorm:"column:icon"`
	IconBg      string            `gorm:"column:icon_bg"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
