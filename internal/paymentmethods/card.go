package paymentmethods

import (
	"strings"
)

// Card provider labels shown to the customer.
const (
	ProviderVisa       = "Visa"
	ProviderMasterCard = "MasterCard"
	ProviderCard       = "Card"
)

// MaskCardNumber reduces a card number to xxxx-xxxx-xxxx-<last4>. Numbers
// shorter than four digits are masked whole.
func MaskCardNumber(number string) string {
	digits := digitsOnly(number)
	if len(digits) < 4 {
		return "xxxx-xxxx-xxxx-xxxx"
	}
	return "xxxx-xxxx-xxxx-" + digits[len(digits)-4:]
}

// CardProvider infers the brand label from the leading digit.
func CardProvider(number string) string {
	digits := digitsOnly(number)
	if digits == "" {
		return ProviderCard
	}
	switch digits[0] {
	case '4':
		return ProviderVisa
	case '5':
		return ProviderMasterCard
	default:
		return ProviderCard
	}
}

// CardLast4 returns the trailing four digits, or the empty string.
func CardLast4(number string) string {
	digits := digitsOnly(number)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
