package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// OrderItemDTO is one snapshot line.
type OrderItemDTO struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	Name            string     `json:"name"`
	ImageURL        *string    `json:"image_url,omitempty"`
	Color           string     `json:"color"`
	Size            enums.Size `json:"size"`
	Quantity        int        `json:"quantity"`
	UnitPriceCents  int        `json:"unit_price_cents"`
	TotalPriceCents int        `json:"total_price_cents"`
}

// StatusHistoryDTO is one audit entry.
type StatusHistoryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Note      string            `json:"note,omitempty"`
	ActorID   *uuid.UUID        `json:"actor_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PricingDTO is the pricing breakdown in cents.
type PricingDTO struct {
	SubtotalCents int `json:"subtotal_cents"`
	ShippingCents int `json:"shipping_cents"`
	TaxCents      int `json:"tax_cents"`
	DiscountCents int `json:"discount_cents"`
	TotalCents    int `json:"total_cents"`
}

// PaymentDTO mirrors the payment sub-record.
type PaymentDTO struct {
	Method            enums.PaymentMethod `json:"method"`
	Status            enums.PaymentStatus `json:"status"`
	TransactionID     *string             `json:"transaction_id,omitempty"`
	PaymentIntentID   *string             `json:"payment_intent_id,omitempty"`
	FailureReason     *string             `json:"failure_reason,omitempty"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	RefundedAt        *time.Time          `json:"refunded_at,omitempty"`
	RefundAmountCents int                 `json:"refund_amount_cents"`
	Currency          enums.Currency      `json:"currency"`
}

// ShippingDTO mirrors the fulfillment sub-record.
type ShippingDTO struct {
	Method            enums.ShippingMethod `json:"method"`
	Carrier           *string              `json:"carrier,omitempty"`
	TrackingNumber    *string              `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time           `json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty"`
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                    uuid.UUID            `json:"id"`
	OrderNumber           string               `json:"order_number"`
	UserID                uuid.UUID            `json:"user_id"`
	Status                enums.OrderStatus    `json:"status"`
	Items                 []OrderItemDTO       `json:"items"`
	Pricing               PricingDTO           `json:"pricing"`
	ShippingAddress       types.Address        `json:"shipping_address"`
	BillingAddress        types.Address        `json:"billing_address"`
	BillingSameAsShipping bool                 `json:"billing_same_as_shipping"`
	Payment               PaymentDTO           `json:"payment"`
	Shipping              ShippingDTO          `json:"shipping"`
	CustomerNote          *string              `json:"customer_note,omitempty"`
	InternalNote          *string              `json:"internal_note,omitempty"`
	Coupon                *types.AppliedCoupon `json:"coupon,omitempty"`
	ReturnRequest         *types.ReturnRequest `json:"return_request,omitempty"`
	StatusHistory         []StatusHistoryDTO   `json:"status_history,omitempty"`
	TotalItems            int                  `json:"total_items"`
	OrderAgeDays          int                  `json:"order_age_days"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// OrderList is a cursor page of a customer's orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// AdminOrderList is an offset page of orders for back-office screens.
type AdminOrderList struct {
	Orders []OrderDTO          `json:"orders"`
	Page   pagination.PageInfo `json:"page"`
}

// SalesStats summarizes orders with completed payments in a window.
type SalesStats struct {
	From                   time.Time `json:"from"`
	To                     time.Time `json:"to"`
	OrderCount             int64     `json:"order_count"`
	RevenueCents           int64     `json:"revenue_cents"`
	AverageOrderValueCents int64     `json:"average_order_value_cents"`
	ItemCount              int64     `json:"item_count"`
}

// NewOrderDTO maps the model. Internal notes are only exposed when includeInternal is set.
func NewOrderDTO(o models.Order, now time.Time, includeInternal bool) OrderDTO {
	dto := OrderDTO{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		UserID:                o.UserID,
		Status:                o.Status,
		Items:                 make([]OrderItemDTO, 0, len(o.Items)),
		Pricing: PricingDTO{
			SubtotalCents: o.Pricing.SubtotalCents,
			ShippingCents: o.Pricing.ShippingCents,
			TaxCents:      o.Pricing.TaxCents,
			DiscountCents: o.Pricing.DiscountCents,
			TotalCents:    o.Pricing.TotalCents,
		},
		ShippingAddress:       o.ShippingAddress,
		BillingAddress:        o.BillingAddress,
		BillingSameAsShipping: o.BillingSameAsShipping,
		Payment: PaymentDTO{
			Method:            o.Payment.Method,
			Status:            o.Payment.Status,
			TransactionID:     o.Payment.TransactionID,
			PaymentIntentID:   o.Payment.PaymentIntentID,
			FailureReason:     o.Payment.FailureReason,
			PaidAt:            o.Payment.PaidAt,
			RefundedAt:        o.Payment.RefundedAt,
			RefundAmountCents: o.Payment.RefundAmountCents,
			Currency:          o.Payment.Currency,
		},
		Shipping: ShippingDTO{
			Method:            o.Shipping.Method,
			Carrier:           o.Shipping.Carrier,
			TrackingNumber:    o.Shipping.TrackingNumber,
			EstimatedDelivery: o.Shipping.EstimatedDelivery,
			ShippedAt:         o.Shipping.ShippedAt,
			DeliveredAt:       o.Shipping.DeliveredAt,
		},
		CustomerNote:  o.CustomerNote,
		Coupon:        o.Coupon,
		ReturnRequest: o.ReturnRequest,
		TotalItems:    o.TotalItems(),
		OrderAgeDays:  OrderAgeDays(o.CreatedAt, now),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if includeInternal {
		dto.InternalNote = o.InternalNote
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Name:            item.Name,
			ImageURL:        item.ImageURL,
			Color:           item.Color,
			Size:            item.Size,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	for _, entry := range o.StatusHistory {
		dto.StatusHistory = append(dto.StatusHistory, StatusHistoryDTO{
			Status:    entry.Status,
			Note:      entry.Note,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto
}

// OrderAgeDays counts whole days since creation.
func OrderAgeDays(createdAt, now time.Time) int {
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}
