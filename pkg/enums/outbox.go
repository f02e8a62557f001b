package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateReview  OutboxAggregateType = "review"
	AggregateProduct OutboxAggregateType = "product"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateReview,
	AggregateProduct,
}

// String implements fmt.Stringer.
func (v OutboxAggregateType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (v OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into a OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validOutboxAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderPaid          OutboxEventType = "order_paid"
	EventOrderPaymentFailed OutboxEventType = "order_payment_failed"
	EventOrderRefunded      OutboxEventType = "order_refunded"
	EventReturnRequested    OutboxEventType = "return_requested"
	EventReturnProcessed    OutboxEventType = "return_processed"
	EventReviewModerated    OutboxEventType = "review_moderated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderPaid,
	EventOrderPaymentFailed,
	EventOrderRefunded,
	EventReturnRequested,
	EventReturnProcessed,
	EventReviewModerated,
}

// String implements fmt.Stringer.
func (v OutboxEventType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OutboxEventType.
func (v OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into a OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
