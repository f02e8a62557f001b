package enums

import "fmt"

// ShippingMethod selects the delivery speed and its flat rate.
type ShippingMethod string

const (
	ShippingMethodStandard  ShippingMethod = "standard"
	ShippingMethodExpress   ShippingMethod = "express"
	ShippingMethodOvernight ShippingMethod = "overnight"
	ShippingMethodPickup    ShippingMethod = "pickup"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
	ShippingMethodOvernight,
	ShippingMethodPickup,
}

// String implements fmt.Stringer.
func (v ShippingMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ShippingMethod.
func (v ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == v {
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
