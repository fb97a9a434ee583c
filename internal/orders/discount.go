package orders

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Recognized discount codes. Unrecognized codes still earn the courtesy rate.
const (
	DiscountCodeFreeShip    = "FREESHIP"
	DiscountCodeWelcome     = "WELCOME10"
	DiscountCodeBlackFriday = "BLACKFRIDAY"
)

var (
	welcomeRate     = decimal.New(10, -2)
	blackFridayRate = decimal.New(20, -2)
	courtesyRate    = decimal.New(5, -2)
)

// DiscountAmount resolves a code against the order's subtotal and shipping
// fee. FREESHIP refunds the fee; the percentage codes discount the subtotal.
func DiscountAmount(code string, subtotal, shippingFee decimal.Decimal) decimal.Decimal {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case DiscountCodeFreeShip:
		return shippingFee
	case DiscountCodeWelcome:
		return subtotal.Mul(welcomeRate).Round(2)
	case DiscountCodeBlackFriday:
		return subtotal.Mul(blackFridayRate).Round(2)
	default:
		return subtotal.Mul(courtesyRate).Round(2)
	}
}
