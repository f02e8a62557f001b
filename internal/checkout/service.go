package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultMaxAttempts = 3
	idempotencyScope   = "checkout"
	maxNoteLength      = 500
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

// Service turns a user's cart into an order.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
}

// PlaceOrderInput captures the checkout payload.
type PlaceOrderInput struct {
	ShippingAddress types.Address
	BillingAddress  *types.Address
	SameAsShipping  bool
	PaymentMethod   enums.PaymentMethod
	ShippingMethod  enums.ShippingMethod
	CouponCode      string
	CustomerNote    string
	IdempotencyKey  string
}

// Options carries the tunables of the checkout service.
type Options struct {
	Pricing     Pricing
	Sequencer   Sequencer
	Location    *time.Location
	Currency    enums.Currency
	MaxAttempts int
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Tx          txRunner
	Repo        *Repository
	CartRepo    cart.CartRepository
	ProductRepo *product.Repository
	Outbox      outboxPublisher
	Idempotency *idempotency.Manager
	Cache       productInvalidator
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
}

type service struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if deps.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
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
	if opts.Sequencer == nil {
		opts.Sequencer = DBSequencer{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Currency == "" {
		opts.Currency = enums.CurrencyUSD
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &service{deps: deps, opts: opts, now: time.Now}, nil
}

// PlaceOrder runs checkout as one transaction. A collision on the order number
// retries the whole transaction up to MaxAttempts before surfacing CONFLICT.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if err := validateInput(userID, input); err != nil {
		s.deps.Metrics.IncFailure(string(pkgerrors.CodeValidation))
		return nil, err
	}
	ctx = s.deps.Logger.WithUserID(ctx, userID.String())

	key := strings.TrimSpace(input.IdempotencyKey)
	scope := idempotencyScope + ":" + userID.String()
	guarded := key != "" && s.deps.Idempotency != nil
	if guarded {
		replay, err := s.claim(ctx, scope, key, userID)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	order, err := s.placeWithRetry(ctx, userID, input)
	if err != nil {
		if guarded {
			if relErr := s.deps.Idempotency.Release(ctx, scope, key); relErr != nil {
				s.deps.Logger.Warn(s.deps.Logger.WithField(ctx, "error", relErr.Error()), "idempotency release failed")
			}
		}
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		s.deps.Metrics.IncFailure(string(code))
		return nil, err
	}

	if guarded {
		if err := s.deps.Idempotency.Complete(ctx, scope, key, order.ID.String()); err != nil {
			s.deps.Logger.Warn(s.deps.Logger.WithField(ctx, "error", err.Error()), "idempotency completion failed")
		}
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(ctx, productIDs...)
	}
	s.deps.Metrics.IncCreated(string(order.Payment.Method))

	logCtx := s.deps.Logger.WithOrderID(ctx, order.ID.String())
	logCtx = s.deps.Logger.WithFields(logCtx, map[string]any{
		"order_number": order.OrderNumber,
		"total_cents":  order.Pricing.TotalCents,
		"items":        len(order.Items),
	})
	s.deps.Logger.Info(logCtx, "order created")
	return order, nil
}

func (s *service) claim(ctx context.Context, scope, key string, userID uuid.UUID) (*models.Order, error) {
	result, claimed, err := s.deps.Idempotency.Claim(ctx, scope, key)
	if err != nil {
		if errors.Is(err, idempotency.ErrInFlight) {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "a checkout with this idempotency key is in progress")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	if claimed {
		return nil, nil
	}
	orderID, err := uuid.Parse(result)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key holds an unexpected value")
	}
	order, err := s.deps.Repo.FindOrder(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key belongs to another request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replayed order")
	}
	s.deps.Logger.Info(s.deps.Logger.WithOrderID(ctx, order.ID.String()), "checkout replayed from idempotency key")
	return order, nil
}

func (s *service) placeWithRetry(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		order, err := s.placeOnce(ctx, userID, input)
		if err == nil {
			return order, nil
		}
		if !db.IsUniqueViolation(err, "ux_orders_order_number", "orders.order_number") {
			if typed := pkgerrors.As(err); typed != nil {
				return nil, typed
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
		}
		lastErr = err
		s.deps.Metrics.IncRetry()
		s.deps.Logger.Warn(s.deps.Logger.WithField(ctx, "attempt", attempt), "order number collision, retrying checkout")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not assign a unique order number")
}

func (s *service) placeOnce(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	var order *models.Order
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now().UTC()
		cartRepo := s.deps.CartRepo.WithTx(tx)
		productRepo := s.deps.ProductRepo.WithTx(tx)
		repo := s.deps.Repo.WithTx(tx)

		userCart, err := cartRepo.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return err
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		items, err := snapshotLines(ctx, productRepo, userCart.Items)
		if err != nil {
			return err
		}
		subtotal := 0
		for _, item := range items {
			subtotal += item.TotalPriceCents
		}

		var coupon *models.Coupon
		if strings.TrimSpace(input.CouponCode) != "" {
			coupon, err = redeemableCoupon(ctx, repo, input.CouponCode, subtotal, now)
			if err != nil {
				return err
			}
		}
		pricing := s.opts.Pricing.Quote(subtotal, input.ShippingMethod, coupon)

		if err := consumeStock(ctx, productRepo, items); err != nil {
			return err
		}

		day := DayKey(now, s.opts.Location)
		seq, err := s.opts.Sequencer.Next(ctx, tx, day)
		if err != nil {
			return err
		}

		order = buildOrder(userID, input, items, pricing, coupon, s.opts.Currency)
		order.OrderNumber = FormatOrderNumber(day, seq)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		if err := cart.Clear(ctx, cartRepo, userCart); err != nil {
			return err
		}

		couponCode := ""
		if coupon != nil {
			couponCode = coupon.Code
		}
		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.ActorRoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        userID,
				TotalCents:    order.Pricing.TotalCents,
				Currency:      string(order.Payment.Currency),
				ItemCount:     order.TotalItems(),
				PaymentMethod: order.Payment.Method,
				CouponCode:    couponCode,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// snapshotLines copies name, primary image, and the live unit price of every cart line.
func snapshotLines(ctx context.Context, repo *product.Repository, lines []models.CartItem) ([]models.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok || !p.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		variant := p.FindVariant(line.Color)
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"product_id": line.ProductID, "color": line.Color})
		}
		entry := variant.FindSize(line.Size)
		if entry == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "size not found").
				WithDetails(map[string]any{"product_id": line.ProductID, "color": line.Color, "size": line.Size})
		}

		unit := p.CurrentPriceCents() + entry.PriceAdjustmentCents
		var image *string
		if primary := p.Images.Primary(); primary != nil {
			url := primary.URL
			image = &url
		}
		items = append(items, models.OrderItem{
			ID:              uuid.New(),
			ProductID:       p.ID,
			VariantSizeID:   entry.ID,
			Name:            p.Name,
			ImageURL:        image,
			Color:           variant.Color,
			Size:            entry.Size,
			Quantity:        line.Quantity,
			UnitPriceCents:  unit,
			TotalPriceCents: unit * line.Quantity,
		})
	}
	return items, nil
}

// consumeStock decrements every line with a conditional update, in variant id
// order so concurrent checkouts lock rows consistently.
func consumeStock(ctx context.Context, repo *product.Repository, items []models.OrderItem) error {
	ordered := make([]models.OrderItem, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].VariantSizeID.String() < ordered[j].VariantSizeID.String()
	})
	for _, item := range ordered {
		if _, err := product.AdjustStock(ctx, repo, item.ProductID, item.Color, item.Size, -item.Quantity); err != nil {
			return err
		}
		if err := repo.AdjustSalesCount(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func buildOrder(userID uuid.UUID, input PlaceOrderInput, items []models.OrderItem, pricing models.OrderPricing, coupon *models.Coupon, currency enums.Currency) *models.Order {
	billing := input.ShippingAddress
	sameAsShipping := true
	if !input.SameAsShipping && input.BillingAddress != nil && !input.BillingAddress.IsZero() {
		billing = *input.BillingAddress
		sameAsShipping = false
	}

	order := &models.Order{
		ID:                    uuid.New(),
		UserID:                userID,
		Status:                enums.OrderStatusPending,
		Pricing:               pricing,
		ShippingAddress:       input.ShippingAddress,
		BillingAddress:        billing,
		BillingSameAsShipping: sameAsShipping,
		Payment: models.OrderPayment{
			Method:   input.PaymentMethod,
			Status:   enums.PaymentStatusPending,
			Currency: currency,
		},
		Shipping: models.OrderShipping{Method: input.ShippingMethod},
		Items:    items,
	}
	if note := strings.TrimSpace(input.CustomerNote); note != "" {
		order.CustomerNote = &note
	}
	if coupon != nil {
		order.Coupon = &types.AppliedCoupon{
			Code:                 coupon.Code,
			DiscountType:         coupon.DiscountType,
			DiscountValue:        coupon.Value,
			AppliedDiscountCents: pricing.DiscountCents,
		}
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return order
}

func validateInput(userID uuid.UUID, input PlaceOrderInput) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.ShippingMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	addr := input.ShippingAddress
	missing := []string{}
	for field, value := range map[string]string{
		"firstName": addr.FirstName,
		"lastName":  addr.LastName,
		"street":    addr.Street,
		"city":      addr.City,
		"state":     addr.State,
		"zipCode":   addr.ZipCode,
		"country":   addr.Country,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if len(input.CustomerNote) > maxNoteLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer note cannot exceed 500 characters")
	}
	return nil
}
