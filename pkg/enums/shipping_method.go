package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ShippingMethod identifies one of the fixed shipping options. Fees,
// delivery estimates and carrier assignment are all keyed off the method.
// Overnight is an accepted alias priced like same-day.
type ShippingMethod string

const (
	ShippingMethodStandard  ShippingMethod = "standard"
	ShippingMethodExpress   ShippingMethod = "express"
	ShippingMethodSameDay   ShippingMethod = "same_day"
	ShippingMethodOvernight ShippingMethod = "overnight"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
	ShippingMethodSameDay,
	ShippingMethodOvernight,
}

type shippingMethodInfo struct {
	feeVND         int64
	deliveryDays   int
	provider       string
	trackingPrefix string
}

var shippingMethodTable = map[ShippingMethod]shippingMethodInfo{
	ShippingMethodStandard:  {feeVND: 30000, deliveryDays: 5, provider: "Giao Hàng Tiết Kiệm", trackingPrefix: "GHTK"},
	ShippingMethodExpress:   {feeVND: 50000, deliveryDays: 3, provider: "Giao Hàng Nhanh", trackingPrefix: "GHN"},
	ShippingMethodSameDay:   {feeVND: 70000, deliveryDays: 1, provider: "Giao Hàng Hỏa Tốc", trackingPrefix: "HT"},
	ShippingMethodOvernight: {feeVND: 70000, deliveryDays: 1, provider: "Giao Hàng Hỏa Tốc", trackingPrefix: "HT"},
}

// Fallback for unknown codes mirrors the standard tier with a generic
// carrier, so a stale client cannot stall checkout.
var defaultShippingInfo = shippingMethodInfo{feeVND: 30000, deliveryDays: 5, provider: "Giao Hàng Tiết Kiệm", trackingPrefix: "STD"}

func (s ShippingMethod) info() shippingMethodInfo {
	if info, ok := shippingMethodTable[s]; ok {
		return info
	}
	return defaultShippingInfo
}

// Fee returns the flat shipping fee in VND.
func (s ShippingMethod) Fee() decimal.Decimal {
	return decimal.NewFromInt(s.info().feeVND)
}

// DeliveryDays returns the estimated delivery offset in days.
func (s ShippingMethod) DeliveryDays() int {
	return s.info().deliveryDays
}

// Provider returns the carrier assigned to this method.
func (s ShippingMethod) Provider() string {
	return s.info().provider
}

// TrackingPrefix returns the carrier prefix used when minting tracking
// numbers.
func (s ShippingMethod) TrackingPrefix() string {
	return s.info().trackingPrefix
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
