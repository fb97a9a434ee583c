package enums

import "fmt"

// ShipmentStatus tracks a shipment through the carrier hand-off. Failed may
// only recover to pending; delivered is terminal.
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusFailed    ShipmentStatus = "failed"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusInTransit,
	ShipmentStatusDelivered,
	ShipmentStatusFailed,
}

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPending:   {ShipmentStatusInTransit, ShipmentStatusFailed},
	ShipmentStatusInTransit: {ShipmentStatusDelivered, ShipmentStatusFailed},
	ShipmentStatusFailed:    {ShipmentStatusPending},
	ShipmentStatusDelivered: {},
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the target status is reachable in one step.
// A same-status transition is allowed and treated by callers as a no-op.
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	if s == target {
		return true
	}
	for _, candidate := range shipmentTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
