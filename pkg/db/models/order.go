package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the immutable-once-placed snapshot produced at checkout.
type Order struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber           string               `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID                uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:ix_orders_user_created,priority:1"`
	Status                enums.OrderStatus    `gorm:"column:status;type:text;not null;index:ix_orders_status"`
	Pricing               OrderPricing         `gorm:"embedded;embeddedPrefix:pricing_"`
	ShippingAddress       types.Address        `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	BillingAddress        types.Address        `gorm:"column:billing_address;type:jsonb;serializer:json;not null"`
	BillingSameAsShipping bool                 `gorm:"column:billing_same_as_shipping;not null"`
	Payment               OrderPayment         `gorm:"embedded;embeddedPrefix:payment_"`
	Shipping              OrderShipping        `gorm:"embedded;embeddedPrefix:shipping_"`
	CustomerNote          *string              `gorm:"column:customer_note"`
	InternalNote          *string              `gorm:"column:internal_note"`
	Coupon                *types.AppliedCoupon `gorm:"column:coupon;type:jsonb;serializer:json"`
	ReturnRequest         *types.ReturnRequest `gorm:"column:return_request;type:jsonb;serializer:json"`
	Items                 []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory         []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime;index:ix_orders_user_created,priority:2,sort:desc"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TotalItems sums the purchased quantities.
func (o Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderPricing is the pricing breakdown. Total = subtotal + shipping + tax - discount.
type OrderPricing struct {
	SubtotalCents int `gorm:"column:subtotal_cents;not null"`
	ShippingCents int `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents      int `gorm:"column:tax_cents;not null;default:0"`
	DiscountCents int `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int `gorm:"column:total_cents;not null"`
}

// OrderPayment is the payment sub-record.
type OrderPayment struct {
	Method            enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;index:ix_orders_payment_status"`
	TransactionID     *string             `gorm:"column:transaction_id"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id"`
	FailureReason     *string             `gorm:"column:failure_reason"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	RefundedAt        *time.Time          `gorm:"column:refunded_at"`
	RefundAmountCents int                 `gorm:"column:refund_amount_cents;not null;default:0"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null"`
}

// OrderShipping is the fulfillment sub-record.
type OrderShipping struct {
	Method            enums.ShippingMethod `gorm:"column:method;type:text;not null"`
	Carrier           *string              `gorm:"column:carrier"`
	TrackingNumber    *string              `gorm:"column:tracking_number"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery"`
	ShippedAt         *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt       *time.Time           `gorm:"column:delivered_at"`
}

// OrderItem is a line snapshot copied from the cart at checkout.
type OrderItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:ix_order_items_order"`
	ProductID       uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index:ix_order_items_product"`
	VariantSizeID   uuid.UUID  `gorm:"column:variant_size_id;type:uuid;not null"`
	Name            string     `gorm:"column:name;not null"`
	ImageURL        *string    `gorm:"column:image_url"`
	Color           string     `gorm:"column:color;not null"`
	Size            enums.Size `gorm:"column:size;type:text;not null"`
	Quantity        int        `gorm:"column:quantity;not null"`
	UnitPriceCents  int        `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int        `gorm:"column:total_price_cents;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderStatusHistory is one append-only entry of the status audit log.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index:ix_order_status_history_order"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Note      string            `gorm:"column:note;not null"`
	ActorID   *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;not null"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// TableName keeps the singular history table name.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

// OrderSequence is the per-day order number counter.
type OrderSequence struct {
	Day       string    `gorm:"column:day;primaryKey"`
	Value     int64     `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}
