package enums

import "fmt"

// PendingPaymentStatus tracks a gateway payment captured without an order.
// Rows start as pending_order_creation and settle to completed once the
// reconciliation worker (or an operator) creates the order, or failed when
// the surviving context is unusable.
type PendingPaymentStatus string

const (
	PendingPaymentStatusPendingOrderCreation PendingPaymentStatus = "pending_order_creation"
	PendingPaymentStatusCompleted            PendingPaymentStatus = "completed"
	PendingPaymentStatusFailed               PendingPaymentStatus = "failed"
)

var validPendingPaymentStatuses = []PendingPaymentStatus{
	PendingPaymentStatusPendingOrderCreation,
	PendingPaymentStatusCompleted,
	PendingPaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PendingPaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PendingPaymentStatus.
func (p PendingPaymentStatus) IsValid() bool {
	for _, candidate := range validPendingPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePendingPaymentStatus converts raw input into a PendingPaymentStatus.
func ParsePendingPaymentStatus(value string) (PendingPaymentStatus, error) {
	for _, candidate := range validPendingPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending payment status %q", value)
}
