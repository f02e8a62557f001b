package payloads

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderCreatedEvent signals a checkout that produced a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	TotalCents    int                 `json:"total_cents"`
	Currency      string              `json:"currency"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CouponCode    string              `json:"coupon_code,omitempty"`
}

// OrderStatusChangedEvent is emitted for every status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Note        string            `json:"note,omitempty"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderPaidEvent is emitted when a payment completes.
type OrderPaidEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	TransactionID string    `json:"transaction_id"`
	AmountCents   int       `json:"amount_cents"`
	PaidAt        time.Time `json:"paid_at"`
}

// OrderPaymentFailedEvent is emitted when the payment provider reports a failure.
type OrderPaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderRefundedEvent carries both the refunded amount and the running total.
type OrderRefundedEvent struct {
	OrderID            uuid.UUID           `json:"order_id"`
	OrderNumber        string              `json:"order_number"`
	AmountCents        int                 `json:"amount_cents"`
	TotalRefundedCents int                 `json:"total_refunded_cents"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	RefundedAt         time.Time           `json:"refunded_at"`
}

// ReturnRequestedEvent is emitted when a customer opens a return.
type ReturnRequestedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
}

// ReturnProcessedEvent is emitted when an admin moves a return forward.
type ReturnProcessedEvent struct {
	OrderID           uuid.UUID          `json:"order_id"`
	OrderNumber       string             `json:"order_number"`
	Status            enums.ReturnStatus `json:"status"`
	RefundAmountCents *int               `json:"refund_amount_cents,omitempty"`
}

// ReviewModeratedEvent reports a moderation decision on a review.
type ReviewModeratedEvent struct {
	ReviewID   uuid.UUID              `json:"review_id"`
	ProductID  uuid.UUID              `json:"product_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Status     enums.ModerationStatus `json:"status"`
	IsApproved bool                   `json:"is_approved"`
}
