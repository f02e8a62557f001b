package checkout

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the configured shipping and tax rules.
type Pricing struct {
	TaxRate                decimal.Decimal
	StandardShippingCents  int
	ExpressShippingCents   int
	OvernightShippingCents int
	FreeShippingThreshold  int
}

// NewPricing builds the pricing rules from checkout config.
func NewPricing(cfg config.CheckoutConfig) (Pricing, error) {
	rate, err := cfg.TaxRateDecimal()
	if err != nil {
		return Pricing{}, err
	}
	p := Pricing{
		TaxRate:                rate,
		StandardShippingCents:  cfg.StandardShippingCents,
		ExpressShippingCents:   cfg.ExpressShippingCents,
		OvernightShippingCents: cfg.OvernightShippingCents,
		FreeShippingThreshold:  cfg.FreeShippingThresholdCent,
	}
	if p.StandardShippingCents < 0 || p.ExpressShippingCents < 0 || p.OvernightShippingCents < 0 {
		return Pricing{}, fmt.Errorf("shipping rates must be >= 0")
	}
	return p, nil
}

// ShippingCents returns the rate for the method. Standard shipping is free at or
// above the threshold; pickup is always free.
func (p Pricing) ShippingCents(method enums.ShippingMethod, subtotal int) int {
	switch method {
	case enums.ShippingMethodStandard:
		if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
			return 0
		}
		return p.StandardShippingCents
	case enums.ShippingMethodExpress:
		return p.ExpressShippingCents
	case enums.ShippingMethodOvernight:
		return p.OvernightShippingCents
	default:
		return 0
	}
}

// TaxCents applies the tax rate to the discounted subtotal, rounded to the cent.
func (p Pricing) TaxCents(taxable int) int {
	if taxable <= 0 {
		return 0
	}
	return int(p.TaxRate.Mul(decimal.NewFromInt(int64(taxable))).Round(0).IntPart())
}

// Quote computes the full breakdown. total = subtotal + shipping + tax - discount.
func (p Pricing) Quote(subtotal int, method enums.ShippingMethod, coupon *models.Coupon) models.OrderPricing {
	discount := CouponDiscount(coupon, subtotal)
	shipping := p.ShippingCents(method, subtotal)
	tax := p.TaxCents(subtotal - discount)
	return models.OrderPricing{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TaxCents:      tax,
		DiscountCents: discount,
		TotalCents:    subtotal + shipping + tax - discount,
	}
}

// CouponDiscount is the discount a coupon grants on subtotal, never above it.
// Percentages round half up to the cent.
func CouponDiscount(coupon *models.Coupon, subtotal int) int {
	if coupon == nil || subtotal <= 0 {
		return 0
	}
	var discount int
	switch coupon.DiscountType {
	case enums.DiscountPercentage:
		discount = int(decimal.NewFromInt(int64(subtotal)).
			Mul(decimal.NewFromInt(int64(coupon.Value))).
			Div(hundred).
			Round(0).
			IntPart())
	case enums.DiscountFixed:
		discount = coupon.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
