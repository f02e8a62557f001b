package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const idempotencyHeader = "Idempotency-Key"

type checkoutRequest struct {
	ShippingAddress types.Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address `json:"billing_address,omitempty" validate:"omitempty"`
	SameAsShipping  bool           `json:"same_as_shipping"`
	PaymentMethod   string         `json:"payment_method" validate:"required"`
	ShippingMethod  string         `json:"shipping_method" validate:"required"`
	CouponCode      string         `json:"coupon_code,omitempty" validate:"max=50"`
	CustomerNote    string         `json:"customer_note,omitempty" validate:"max=500"`
}

func (p checkoutRequest) toInput(idempotencyKey string) (checkoutsvc.PlaceOrderInput, error) {
	payment, err := enums.ParsePaymentMethod(strings.TrimSpace(p.PaymentMethod))
	if err != nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	shipping, err := enums.ParseShippingMethod(strings.TrimSpace(p.ShippingMethod))
	if err != nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
	}
	if !p.SameAsShipping && p.BillingAddress == nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "billing address is required unless same_as_shipping is set")
	}
	return checkoutsvc.PlaceOrderInput{
		ShippingAddress: p.ShippingAddress,
		BillingAddress:  p.BillingAddress,
		SameAsShipping:  p.SameAsShipping,
		PaymentMethod:   payment,
		ShippingMethod:  shipping,
		CouponCode:      p.CouponCode,
		CustomerNote:    p.CustomerNote,
		IdempotencyKey:  idempotencyKey,
	}, nil
}

// CheckoutPlaceOrder converts the caller's cart into an order. A repeated
// Idempotency-Key returns the order created by the first request.
func CheckoutPlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(strings.TrimSpace(r.Header.Get(idempotencyHeader)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ordersvc.NewOrderDTO(*order, time.Now(), false))
	}
}
