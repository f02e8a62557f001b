package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AppliedCoupon records the coupon that priced an order.
type AppliedCoupon struct {
	Code                 string             `json:"code"`
	DiscountType         enums.DiscountType `json:"discountType"`
	DiscountValue        int                `json:"discountValue"`
	AppliedDiscountCents int                `json:"appliedDiscountCents"`
}

// ReturnRequest is the optional return sub-record of a delivered order.
type ReturnRequest struct {
	Requested         bool               `json:"requested"`
	RequestedAt       time.Time          `json:"requestedAt"`
	Reason            string             `json:"reason"`
	Status            enums.ReturnStatus `json:"status"`
	ProcessedAt       *time.Time         `json:"processedAt,omitempty"`
	ProcessedBy       *uuid.UUID         `json:"processedBy,omitempty"`
	RefundAmountCents *int               `json:"refundAmountCents,omitempty"`
}

// ReviewResponse is the seller reply attached to a review.
type ReviewResponse struct {
	Comment     string    `json:"comment"`
	RespondedBy uuid.UUID `json:"respondedBy"`
	RespondedAt time.Time `json:"respondedAt"`
}
