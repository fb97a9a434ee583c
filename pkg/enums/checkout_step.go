package enums

import "fmt"

// CheckoutStep orders the four wizard steps. A step may only be entered once
// every earlier step has a recorded selection.
type CheckoutStep string

const (
	CheckoutStepAddress  CheckoutStep = "address"
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepPayment  CheckoutStep = "payment"
	CheckoutStepConfirm  CheckoutStep = "confirm"
)

var checkoutStepOrder = []CheckoutStep{
	CheckoutStepAddress,
	CheckoutStepShipping,
	CheckoutStepPayment,
	CheckoutStepConfirm,
}

// Index returns the zero-based wizard position, or -1 for unknown steps.
func (c CheckoutStep) Index() int {
	for i, candidate := range checkoutStepOrder {
		if candidate == c {
			return i
		}
	}
	return -1
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	return c.Index() >= 0
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range checkoutStepOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
