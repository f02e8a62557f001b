package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Products product.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Coupons  checkoutsvc.CouponService
	Orders   orders.Service
	Reviews  reviews.Service
}

// Infra carries the shared infrastructure the router needs besides services.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency middleware.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Identity(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})
	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.Get("/featured", controllers.ProductFeatured(svc.Products, logg))
			r.Get("/new-arrivals", controllers.ProductNewArrivals(svc.Products, logg))
			r.Get("/slug/{slug}", controllers.ProductGetBySlug(svc.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(svc.Products, logg))
			r.Post("/{productId}/view", controllers.ProductRecordView(svc.Products, logg))
			r.Get("/{productId}/sizes", controllers.ProductSizes(svc.Products, logg))
			r.Get("/{productId}/stock", controllers.ProductStock(svc.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Use(middleware.Idempotency(infra.Idempotency, logg))
				r.Post("/", controllers.AdminProductCreate(svc.Products, logg))
				r.Patch("/{productId}", controllers.AdminProductUpdate(svc.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDeactivate(svc.Products, logg))
				r.Post("/{productId}/stock", controllers.AdminProductAdjustStock(svc.Products, logg))
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{productId}", controllers.ReviewListForProduct(svc.Reviews, logg))
			r.Get("/product/{productId}/stats", controllers.ReviewProductStats(svc.Reviews, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Use(middleware.Idempotency(infra.Idempotency, logg))
				r.Post("/", controllers.ReviewCreate(svc.Reviews, logg))
				r.Post("/{reviewId}/vote", controllers.ReviewVote(svc.Reviews, logg))
				r.Post("/{reviewId}/flag", controllers.ReviewFlag(svc.Reviews, logg))
				r.Post("/{reviewId}/verify", controllers.ReviewVerifyPurchase(svc.Reviews, logg))
				r.Delete("/{reviewId}", controllers.ReviewDelete(svc.Reviews, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Use(middleware.Idempotency(infra.Idempotency, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svc.Cart, logg))
				r.Delete("/", controllers.CartClear(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
				r.Post("/merge", controllers.CartMerge(svc.Cart, logg))
			})

			r.Post("/checkout", controllers.CheckoutPlaceOrder(svc.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(svc.Orders, logg))
				r.Post("/{orderId}/return", controllers.OrderRequestReturn(svc.Orders, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Use(middleware.Idempotency(infra.Idempotency, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(svc.Orders, logg))
				r.Get("/stats", controllers.AdminOrderStats(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdminOrderUpdateStatus(svc.Orders, logg))
				r.Post("/{orderId}/shipping", controllers.AdminOrderUpdateShipping(svc.Orders, logg))
				r.Post("/{orderId}/note", controllers.AdminOrderInternalNote(svc.Orders, logg))
				r.Post("/{orderId}/payment", controllers.AdminOrderProcessPayment(svc.Orders, logg))
				r.Post("/{orderId}/payment/fail", controllers.AdminOrderFailPayment(svc.Orders, logg))
				r.Post("/{orderId}/refund", controllers.AdminOrderRefund(svc.Orders, logg))
				r.Post("/{orderId}/return", controllers.AdminOrderProcessReturn(svc.Orders, logg))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/pending", controllers.AdminReviewQueue(svc.Reviews, logg))
				r.Post("/{reviewId}/moderate", controllers.AdminReviewModerate(svc.Reviews, logg))
				r.Post("/{reviewId}/respond", controllers.AdminReviewRespond(svc.Reviews, logg))
				r.Post("/{reviewId}/verify", controllers.ReviewVerifyPurchase(svc.Reviews, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponList(svc.Coupons, logg))
				r.Post("/", controllers.AdminCouponCreate(svc.Coupons, logg))
			})
		})
	})

	return r
}
