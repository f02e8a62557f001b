package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultReturnWindow = 30 * 24 * time.Hour
	maxReasonLength     = 500
	maxNoteLength       = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// Actor is the caller asserted by the gateway headers.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// IsAdmin reports whether the actor may act on any order.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin || a.Role == enums.ActorRoleSystem
}

func (a Actor) ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}

func (a Actor) id() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// Service exposes order reads and lifecycle operations.
type Service interface {
	GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, input ListUserOrdersInput) (*OrderList, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*AdminOrderList, error)
	SalesStats(ctx context.Context, from, to time.Time) (*SalesStats, error)

	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error)
	UpdateShipping(ctx context.Context, actor Actor, id uuid.UUID, input ShippingInput) (*OrderDTO, error)
	SetInternalNote(ctx context.Context, actor Actor, id uuid.UUID, note string) (*OrderDTO, error)

	ProcessPayment(ctx context.Context, actor Actor, id uuid.UUID, input PaymentInput) (*OrderDTO, error)
	FailPayment(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error)
	Refund(ctx context.Context, actor Actor, id uuid.UUID, amountCents int) (*OrderDTO, error)

	RequestReturn(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error)
	ProcessReturn(ctx context.Context, actor Actor, id uuid.UUID, input ProcessReturnInput) (*OrderDTO, error)
}

// ListUserOrdersInput filters a customer's order history.
type ListUserOrdersInput struct {
	Status *enums.OrderStatus
	Params pagination.Params
}

// ListOrdersInput filters the admin order listing.
type ListOrdersInput struct {
	From   *time.Time
	To     *time.Time
	Status *enums.OrderStatus
	Page   pagination.PageParams
}

// UpdateStatusInput drives the generic admin transition.
type UpdateStatusInput struct {
	Status   enums.OrderStatus
	Note     string
	Shipping *ShippingInput
}

// ShippingInput carries carrier details recorded with a shipment.
type ShippingInput struct {
	Carrier           string
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// PaymentInput carries provider identifiers of a completed payment.
type PaymentInput struct {
	TransactionID   string
	PaymentIntentID string
}

// ProcessReturnInput is the admin decision on a return request.
type ProcessReturnInput struct {
	Status            enums.ReturnStatus
	RefundAmountCents *int
}

// Options carries service tunables.
type Options struct {
	ReturnWindow time.Duration
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Tx          txRunner
	Repo        *Repository
	ProductRepo *product.Repository
	Outbox      outboxPublisher
	Cache       productInvalidator
	Logger      *logger.Logger
}

type service struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// NewService builds the order service.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if deps.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if opts.ReturnWindow <= 0 {
		opts.ReturnWindow = defaultReturnWindow
	}
	return &service{deps: deps, opts: opts, now: time.Now}, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(*order, s.now(), actor.IsAdmin())
	return &dto, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, input ListUserOrdersInput) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	cursor, err := pagination.ParseCursor(input.Params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.deps.Repo.ListByUser(ctx, UserOrderFilters{
		UserID: userID,
		Status: input.Status,
		Cursor: cursor,
		Limit:  input.Params.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	now := s.now()
	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		out.Orders = append(out.Orders, NewOrderDTO(row, now, false))
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*AdminOrderList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.From != nil && input.To != nil && !input.From.Before(*input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	rows, total, err := s.deps.Repo.List(ctx, AdminOrderFilters{
		From:   input.From,
		To:     input.To,
		Status: input.Status,
	}, input.Page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	now := s.now()
	out := &AdminOrderList{Orders: make([]OrderDTO, 0, len(rows)), Page: pagination.NewPageInfo(input.Page, total)}
	for _, row := range rows {
		out.Orders = append(out.Orders, NewOrderDTO(row, now, true))
	}
	return out, nil
}

// SalesStats aggregates completed payments created within [from, to).
func (s *service) SalesStats(ctx context.Context, from, to time.Time) (*SalesStats, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid date range is required")
	}
	count, revenue, items, err := s.deps.Repo.SalesTotals(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate sales")
	}
	stats := &SalesStats{
		From:         from.UTC(),
		To:           to.UTC(),
		OrderCount:   count,
		RevenueCents: revenue,
		ItemCount:    items,
	}
	if count > 0 {
		stats.AverageOrderValueCents = decimal.NewFromInt(revenue).
			Div(decimal.NewFromInt(count)).
			Round(0).
			IntPart()
	}
	return stats, nil
}

// UpdateStatus is the generic admin transition. Cancellation and shipment keep
// their dedicated side effects; shipment needs a tracking number.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if len(input.Note) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note cannot exceed 1000 characters")
	}

	switch input.Status {
	case enums.OrderStatusCancelled:
		return s.Cancel(ctx, actor, id, input.Note)
	case enums.OrderStatusReturned:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "orders are returned by completing a return request")
	case enums.OrderStatusShipped:
		if input.Shipping == nil || strings.TrimSpace(input.Shipping.TrackingNumber) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required to mark an order shipped")
		}
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		updates := map[string]any{}
		switch input.Status {
		case enums.OrderStatusShipped:
			updates["shipping_shipped_at"] = now
			applyShipping(updates, *input.Shipping)
		case enums.OrderStatusDelivered:
			updates["shipping_delivered_at"] = now
		}
		note := strings.TrimSpace(input.Note)
		if note == "" {
			note = "Status changed to " + string(input.Status)
		}
		return s.transition(ctx, tx, order, input.Status, note, actor, updates, now)
	})
}

// Cancel moves a not-yet-shipped order to cancelled and restocks every line.
func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason cannot exceed 500 characters")
	}

	var restocked []uuid.UUID
	dto, err := s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if !actor.IsAdmin() && order.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err := checkTransition(order.Status, enums.OrderStatusCancelled); err != nil {
			return err
		}
		if err := s.restock(ctx, tx, order.Items); err != nil {
			return err
		}
		restocked = productIDs(order.Items)
		return s.transition(ctx, tx, order, enums.OrderStatusCancelled, "Cancelled: "+reason, actor, nil, now)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, restocked)
	return dto, nil
}

// UpdateShipping records carrier details. A processing order is marked shipped.
func (s *service) UpdateShipping(ctx context.Context, actor Actor, id uuid.UUID, input ShippingInput) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if strings.TrimSpace(input.TrackingNumber) == "" || strings.TrimSpace(input.Carrier) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier and tracking number required")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		updates := map[string]any{}
		applyShipping(updates, input)
		switch order.Status {
		case enums.OrderStatusProcessing:
			updates["shipping_shipped_at"] = now
			note := fmt.Sprintf("Shipped via %s (%s)", strings.TrimSpace(input.Carrier), strings.TrimSpace(input.TrackingNumber))
			return s.transition(ctx, tx, order, enums.OrderStatusShipped, note, actor, updates, now)
		case enums.OrderStatusShipped:
			return s.updateFields(ctx, tx, order, updates)
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidState, "shipping details can only be set on processing or shipped orders").
				WithDetails(map[string]any{"status": order.Status})
		}
	})
}

func (s *service) SetInternalNote(ctx context.Context, actor Actor, id uuid.UUID, note string) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note cannot exceed 1000 characters")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		var value any
		if note != "" {
			value = note
		}
		return s.updateFields(ctx, tx, order, map[string]any{"internal_note": value})
	})
}

// ProcessPayment completes the payment and confirms a still-pending order.
func (s *service) ProcessPayment(ctx context.Context, actor Actor, id uuid.UUID, input PaymentInput) (*OrderDTO, error) {
	txID := strings.TrimSpace(input.TransactionID)
	if txID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		switch order.Payment.Status {
		case enums.PaymentStatusPending, enums.PaymentStatusProcessing, enums.PaymentStatusFailed:
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidState, "payment already settled").
				WithDetails(map[string]any{"payment_status": order.Payment.Status})
		}
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusReturned {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order is closed").
				WithDetails(map[string]any{"status": order.Status})
		}

		updates := map[string]any{
			"payment_status":         enums.PaymentStatusCompleted,
			"payment_transaction_id": txID,
			"payment_paid_at":        now,
			"payment_failure_reason": nil,
		}
		if intent := strings.TrimSpace(input.PaymentIntentID); intent != "" {
			updates["payment_payment_intent_id"] = intent
		}

		if order.Status == enums.OrderStatusPending {
			if err := s.transition(ctx, tx, order, enums.OrderStatusConfirmed, "Payment received", actor, updates, now); err != nil {
				return err
			}
		} else if err := s.updateFields(ctx, tx, order, updates); err != nil {
			return err
		}

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				TransactionID: txID,
				AmountCents:   order.Pricing.TotalCents,
				PaidAt:        now,
			},
			OccurredAt: now,
		})
	})
}

func (s *service) FailPayment(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure reason cannot exceed 500 characters")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		switch order.Payment.Status {
		case enums.PaymentStatusPending, enums.PaymentStatusProcessing:
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidState, "payment is not awaiting settlement").
				WithDetails(map[string]any{"payment_status": order.Payment.Status})
		}
		updates := map[string]any{"payment_status": enums.PaymentStatusFailed}
		if reason != "" {
			updates["payment_failure_reason"] = reason
		}
		if err := s.updateFields(ctx, tx, order, updates); err != nil {
			return err
		}
		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Reason:      reason,
			},
			OccurredAt: now,
		})
	})
}

// Refund records a partial or full refund. The running total never exceeds the order total.
func (s *service) Refund(ctx context.Context, actor Actor, id uuid.UUID, amountCents int) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		_, err := s.applyRefund(ctx, tx, order, amountCents, actor, now)
		return err
	})
}

// RequestReturn opens a return on a delivered order inside the return window.
func (s *service) RequestReturn(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason required")
	}
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason cannot exceed 500 characters")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if !actor.IsAdmin() && order.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "only delivered orders can be returned").
				WithDetails(map[string]any{"status": order.Status})
		}
		if order.ReturnRequest != nil && order.ReturnRequest.Requested {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "a return was already requested")
		}
		deliveredAt := order.UpdatedAt
		if order.Shipping.DeliveredAt != nil {
			deliveredAt = *order.Shipping.DeliveredAt
		}
		if now.Sub(deliveredAt) > s.opts.ReturnWindow {
			return pkgerrors.New(pkgerrors.CodeReturnWindowExpired, "the return window has closed").
				WithDetails(map[string]any{"delivered_at": deliveredAt, "window": s.opts.ReturnWindow.String()})
		}

		request := &types.ReturnRequest{
			Requested:   true,
			RequestedAt: now,
			Reason:      reason,
			Status:      enums.ReturnStatusPending,
		}
		if err := s.writeReturn(ctx, tx, order, request); err != nil {
			return err
		}
		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.ReturnRequestedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Reason:      reason,
			},
			OccurredAt: now,
		})
	})
}

// ProcessReturn applies an admin decision. Completion returns the order,
// restocks its lines and records the refund.
func (s *service) ProcessReturn(ctx context.Context, actor Actor, id uuid.UUID, input ProcessReturnInput) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	switch input.Status {
	case enums.ReturnStatusApproved, enums.ReturnStatusRejected, enums.ReturnStatusCompleted:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return decision must be approved, rejected or completed")
	}
	if input.RefundAmountCents != nil && *input.RefundAmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount cannot be negative")
	}

	var restocked []uuid.UUID
	dto, err := s.mutate(ctx, id, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		request := order.ReturnRequest
		if request == nil || !request.Requested {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "no return was requested")
		}
		if !canAdvanceReturn(request.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "return cannot move from "+string(request.Status)+" to "+string(input.Status))
		}

		processedAt := now
		request.Status = input.Status
		request.ProcessedAt = &processedAt
		request.ProcessedBy = actor.id()

		if input.Status == enums.ReturnStatusCompleted {
			if err := s.restock(ctx, tx, order.Items); err != nil {
				return err
			}
			restocked = productIDs(order.Items)

			amount := order.Pricing.TotalCents - order.Payment.RefundAmountCents
			if input.RefundAmountCents != nil {
				amount = *input.RefundAmountCents
			}
			if amount > 0 && refundable(order.Payment.Status) {
				refunded, err := s.applyRefund(ctx, tx, order, amount, actor, now)
				if err != nil {
					return err
				}
				request.RefundAmountCents = &refunded
			} else {
				zero := 0
				request.RefundAmountCents = &zero
			}
			if err := s.writeReturn(ctx, tx, order, request); err != nil {
				return err
			}
			if err := s.transition(ctx, tx, order, enums.OrderStatusReturned, "Return completed", actor, nil, now); err != nil {
				return err
			}
		} else if err := s.writeReturn(ctx, tx, order, request); err != nil {
			return err
		}

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnProcessed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.ReturnProcessedEvent{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				Status:            request.Status,
				RefundAmountCents: request.RefundAmountCents,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, restocked)
	return dto, nil
}

func canAdvanceReturn(from, to enums.ReturnStatus) bool {
	switch from {
	case enums.ReturnStatusPending:
		return to == enums.ReturnStatusApproved || to == enums.ReturnStatusRejected || to == enums.ReturnStatusCompleted
	case enums.ReturnStatusApproved:
		return to == enums.ReturnStatusCompleted || to == enums.ReturnStatusRejected
	default:
		return false
	}
}

func refundable(status enums.PaymentStatus) bool {
	return status == enums.PaymentStatusCompleted || status == enums.PaymentStatusPartiallyRefunded
}

// applyRefund rejects amounts above what is left to refund and returns the amount applied.
func (s *service) applyRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int, actor Actor, now time.Time) (int, error) {
	if !refundable(order.Payment.Status) {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidState, "only completed payments can be refunded").
			WithDetails(map[string]any{"payment_status": order.Payment.Status})
	}
	remaining := order.Pricing.TotalCents - order.Payment.RefundAmountCents
	if amountCents > remaining {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds the amount left to refund").
			WithDetails(map[string]any{"remaining_cents": remaining})
	}
	total := order.Payment.RefundAmountCents + amountCents
	status := enums.PaymentStatusPartiallyRefunded
	if total >= order.Pricing.TotalCents {
		status = enums.PaymentStatusRefunded
	}
	updates := map[string]any{
		"payment_status":              status,
		"payment_refund_amount_cents": total,
		"payment_refunded_at":         now,
	}
	if err := s.updateFields(ctx, tx, order, updates); err != nil {
		return 0, err
	}
	order.Payment.Status = status
	order.Payment.RefundAmountCents = total
	order.Payment.RefundedAt = &now

	err := s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderRefunded,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.OrderRefundedEvent{
			OrderID:            order.ID,
			OrderNumber:        order.OrderNumber,
			AmountCents:        amountCents,
			TotalRefundedCents: total,
			PaymentStatus:      status,
			RefundedAt:         now,
		},
		OccurredAt: now,
	})
	if err != nil {
		return 0, err
	}
	return amountCents, nil
}

// transition writes the status, appends the history entry and queues the
// status event in the caller's transaction.
func (s *service) transition(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, note string, actor Actor, updates map[string]any, now time.Time) error {
	if err := checkTransition(order.Status, to); err != nil {
		return err
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	if err := s.updateFields(ctx, tx, order, updates); err != nil {
		return err
	}

	entry := &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    to,
		Note:      note,
		ActorID:   actor.id(),
		CreatedAt: now,
	}
	if err := s.deps.Repo.WithTx(tx).AppendHistory(ctx, entry); err != nil {
		return err
	}

	from := order.Status
	order.Status = to
	return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			From:        from,
			To:          to,
			Note:        note,
			ChangedAt:   now,
		},
		OccurredAt: now,
	})
}

// updateFields writes guarded on the status the order was loaded with.
func (s *service) updateFields(ctx context.Context, tx *gorm.DB, order *models.Order, updates map[string]any) error {
	rows, err := s.deps.Repo.WithTx(tx).UpdateGuarded(ctx, order.ID, order.Status, updates)
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}
	return nil
}

func (s *service) writeReturn(ctx context.Context, tx *gorm.DB, order *models.Order, request *types.ReturnRequest) error {
	raw, err := json.Marshal(request)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode return request")
	}
	if err := s.updateFields(ctx, tx, order, map[string]any{"return_request": string(raw)}); err != nil {
		return err
	}
	order.ReturnRequest = request
	return nil
}

func (s *service) restock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	repo := s.deps.ProductRepo.WithTx(tx)
	for _, item := range items {
		rows, err := repo.ApplyStockDelta(ctx, item.VariantSizeID, item.Quantity)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"product_id": item.ProductID, "color": item.Color, "size": item.Size})
		}
		if err := repo.AdjustSalesCount(ctx, item.ProductID, -item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// mutate locks the order, runs fn in one transaction and returns the reloaded order.
func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, order *models.Order, now time.Time) error) (*OrderDTO, error) {
	ctx = s.deps.Logger.WithOrderID(ctx, id.String())
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.deps.Repo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		return fn(tx, order, s.now().UTC())
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		s.deps.Logger.Error(ctx, "order update failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"status":         order.Status,
		"payment_status": order.Payment.Status,
	}), "order updated")
	dto := NewOrderDTO(*order, s.now(), true)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) invalidate(ctx context.Context, ids []uuid.UUID) {
	if s.deps.Cache != nil && len(ids) > 0 {
		s.deps.Cache.Invalidate(ctx, ids...)
	}
}

func applyShipping(updates map[string]any, input ShippingInput) {
	if carrier := strings.TrimSpace(input.Carrier); carrier != "" {
		updates["shipping_carrier"] = carrier
	}
	if tracking := strings.TrimSpace(input.TrackingNumber); tracking != "" {
		updates["shipping_tracking_number"] = tracking
	}
	if input.EstimatedDelivery != nil {
		updates["shipping_estimated_delivery"] = input.EstimatedDelivery.UTC()
	}
}

func productIDs(items []models.OrderItem) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		out = append(out, item.ProductID)
	}
	return out
}
