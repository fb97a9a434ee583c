package enums

import "fmt"

// PaymentChannel identifies how a customer pays at checkout.
type PaymentChannel string

const (
	PaymentChannelCOD    PaymentChannel = "cod"
	PaymentChannelBank   PaymentChannel = "bank"
	PaymentChannelCredit PaymentChannel = "credit"
	PaymentChannelMomo   PaymentChannel = "momo"
	PaymentChannelVNPay  PaymentChannel = "vnpay"
)

var validPaymentChannels = []PaymentChannel{
	PaymentChannelCOD,
	PaymentChannelBank,
	PaymentChannelCredit,
	PaymentChannelMomo,
	PaymentChannelVNPay,
}

// RequiresGateway reports whether confirmation must detour through an
// external payment gateway before the order is placed.
func (p PaymentChannel) RequiresGateway() bool {
	return p == PaymentChannelVNPay
}

// Label returns the human-readable name stored on orders and saved payment
// methods.
func (p PaymentChannel) Label() string {
	switch p {
	case PaymentChannelCOD:
		return "Cash on Delivery"
	case PaymentChannelBank:
		return "Bank Transfer"
	case PaymentChannelCredit:
		return "Credit Card"
	case PaymentChannelMomo:
		return "MoMo"
	case PaymentChannelVNPay:
		return "VNPay"
	default:
		return string(p)
	}
}

// String implements fmt.Stringer.
func (p PaymentChannel) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentChannel.
func (p PaymentChannel) IsValid() bool {
	for _, candidate := range validPaymentChannels {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentChannel converts raw input into a PaymentChannel.
func ParsePaymentChannel(value string) (PaymentChannel, error) {
	for _, candidate := range validPaymentChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment channel %q", value)
}
