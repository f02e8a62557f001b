package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

type couponResponse struct {
	ID               uuid.UUID          `json:"id"`
	Code             string             `json:"code"`
	DiscountType     enums.DiscountType `json:"discount_type"`
	Value            int                `json:"value"`
	MinSubtotalCents int                `json:"min_subtotal_cents"`
	IsActive         bool               `json:"is_active"`
	ExpiresAt        *time.Time         `json:"expires_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

func newCouponResponse(c models.Coupon) couponResponse {
	return couponResponse{
		ID:               c.ID,
		Code:             c.Code,
		DiscountType:     c.DiscountType,
		Value:            c.Value,
		MinSubtotalCents: c.MinSubtotalCents,
		IsActive:         c.IsActive,
		ExpiresAt:        c.ExpiresAt,
		CreatedAt:        c.CreatedAt,
	}
}

type createCouponRequest struct {
	Code             string     `json:"code" validate:"required,max=50"`
	DiscountType     string     `json:"discount_type" validate:"required"`
	Value            int        `json:"value" validate:"required,min=1"`
	MinSubtotalCents int        `json:"min_subtotal_cents" validate:"min=0"`
	IsActive         *bool      `json:"is_active,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

func AdminCouponCreate(svc checkoutsvc.CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountType, err := enums.ParseDiscountType(strings.TrimSpace(payload.DiscountType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}
		coupon, err := svc.CreateCoupon(r.Context(), checkoutsvc.CreateCouponInput{
			Code:             payload.Code,
			DiscountType:     discountType,
			Value:            payload.Value,
			MinSubtotalCents: payload.MinSubtotalCents,
			IsActive:         payload.IsActive,
			ExpiresAt:        payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(*coupon))
	}
}

func AdminCouponList(svc checkoutsvc.CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupons, err := svc.ListCoupons(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]couponResponse, 0, len(coupons))
		for _, c := range coupons {
			out = append(out, newCouponResponse(c))
		}
		responses.WriteSuccess(w, out)
	}
}
