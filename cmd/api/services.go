package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (routes.Services, error) {
	gormDB := dbClient.DB()

	productRepo := product.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	checkoutRepo := checkout.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	reviewRepo := reviews.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	var productCache *product.Cache
	if cfg.FeatureFlags.ProductCache {
		productCache = product.NewCache(redisClient, cfg.Cache.ProductTTL, logg)
	}

	productSvc, err := product.NewService(productRepo, dbClient, productCache, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("product service: %w", err)
	}

	cartSvc, err := cart.NewService(cartRepo, dbClient, productRepo, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("cart service: %w", err)
	}

	pricing, err := checkout.NewPricing(cfg.Checkout)
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout pricing: %w", err)
	}
	loc, err := cfg.Checkout.Location()
	if err != nil {
		return routes.Services{}, err
	}
	currency, err := enums.ParseCurrency(cfg.Checkout.Currency)
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout currency: %w", err)
	}
	var sequencer checkout.Sequencer = checkout.DBSequencer{}
	if strings.EqualFold(cfg.Checkout.Sequencer, config.SequencerRedis) {
		redisSeq, err := checkout.NewRedisSequencer(redisClient)
		if err != nil {
			return routes.Services{}, fmt.Errorf("order sequencer: %w", err)
		}
		sequencer = redisSeq
	}
	idem, err := idempotency.NewManager(redisClient, cfg.Checkout.IdempotencyTTL)
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout idempotency: %w", err)
	}
	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:          dbClient,
		Repo:        checkoutRepo,
		CartRepo:    cartRepo,
		ProductRepo: productRepo,
		Outbox:      outboxSvc,
		Idempotency: idem,
		Cache:       productCache,
		Metrics:     metrics.NewCheckoutMetrics(reg),
		Logger:      logg,
	}, checkout.Options{
		Pricing:     pricing,
		Sequencer:   sequencer,
		Location:    loc,
		Currency:    currency,
		MaxAttempts: cfg.Checkout.MaxAttempts,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout service: %w", err)
	}

	couponSvc, err := checkout.NewCouponService(checkoutRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("coupon service: %w", err)
	}

	orderSvc, err := orders.NewService(orders.Deps{
		Tx:          dbClient,
		Repo:        orderRepo,
		ProductRepo: productRepo,
		Outbox:      outboxSvc,
		Cache:       productCache,
		Logger:      logg,
	}, orders.Options{ReturnWindow: cfg.Checkout.ReturnWindow})
	if err != nil {
		return routes.Services{}, fmt.Errorf("order service: %w", err)
	}

	reviewSvc, err := reviews.NewService(reviews.Deps{
		Tx:          dbClient,
		Repo:        reviewRepo,
		ProductRepo: productRepo,
		Purchases:   orderRepo,
		Outbox:      outboxSvc,
		Limiter:     redisClient,
		Cache:       productCache,
		Logger:      logg,
	}, reviews.RateLimit{
		Limit:  cfg.RateLimit.ReviewLimit,
		Window: cfg.RateLimit.ReviewWindow,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("review service: %w", err)
	}

	return routes.Services{
		Products: productSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Coupons:  couponSvc,
		Orders:   orderSvc,
		Reviews:  reviewSvc,
	}, nil
}
