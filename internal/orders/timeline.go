package orders

import (
	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
)

type timelineEntry struct {
	description string
	icon        string
	iconBg      string
}

// Presentation metadata per status, rendered by the storefront order page.
var timelineByStatus = map[enums.OrderStatus]timelineEntry{
	enums.OrderStatusNew:        {description: "Đơn hàng đã được đặt", icon: "fa-shopping-cart", iconBg: "bg-info"},
	enums.OrderStatusProcessing: {description: "Đơn hàng đang được xử lý", icon: "fa-cog", iconBg: "bg-primary"},
	enums.OrderStatusShipped:    {description: "Đơn hàng đã được giao cho đơn vị vận chuyển", icon: "fa-truck", iconBg: "bg-warning"},
	enums.OrderStatusDelivered:  {description: "Đơn hàng đã được giao thành công", icon: "fa-check", iconBg: "bg-success"},
	enums.OrderStatusCancelled:  {description: "Đơn hàng đã bị hủy", icon: "fa-times", iconBg: "bg-danger"},
}

// NewTimelineEvent builds the audit entry recorded when an order enters the
// given status.
func NewTimelineEvent(orderID uuid.UUID, status enums.OrderStatus) *models.OrderTimelineEvent {
	entry := timelineByStatus[status]
	return &models.OrderTimelineEvent{
		ID:          uuid.New(),
		OrderID:     orderID,
		Status:      status,
		Description: entry.description,
		Icon:        entry.icon,
		IconBg:      entry.iconBg,
	}
}
