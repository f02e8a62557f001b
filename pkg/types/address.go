package types

import (
	"fmt"
	"strings"
)

// Address is a postal address snapshot stored as JSON on orders.
type Address struct {
	FirstName string  `json:"firstName" validate:"required,max=50"`
	LastName  string  `json:"lastName" validate:"required,max=50"`
	Street    string  `json:"street" validate:"required,max=200"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"required,max=100"`
	ZipCode   string  `json:"zipCode" validate:"required,max=20"`
	Country   string  `json:"country" validate:"required,max=60"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// IsZero reports whether no street was supplied.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Street) == ""
}

// Full renders the address on a single line.
func (a Address) Full() string {
	return fmt.Sprintf("%s %s, %s, %s, %s %s, %s", a.FirstName, a.LastName, a.Street, a.City, a.State, a.ZipCode, a.Country)
}
