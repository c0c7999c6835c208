package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/bankdetails"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/colors"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Redis may be nil in
// tests, in which case rate limiting and idempotency are bypassed.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Auth        auth.Service
	Users       users.Service
	BankDetails bankdetails.Service
	Addresses   address.Service
	Categories  categories.Service
	Products    products.Service
	Cart        cart.Service
	Orders      orders.Service
	Reviews     reviews.Service
	Coupons     coupons.Service
	Colors      colors.Service
}

func NewRouter(d Dependencies) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(d.Metrics),
		middleware.Logging(logg),
	)

	readiness := map[string]controllers.Pinger{"db": d.DB}
	// keep a nil *redis.Client out of the interfaces below
	var idempotencyStore redis.IdempotencyStore
	if d.Redis != nil {
		readiness["redis"] = d.Redis
		idempotencyStore = d.Redis
	}

	loginPolicy := middleware.RateLimitPolicy{
		Name:     "login",
		Window:   cfg.AuthRateLimit.LoginWindow,
		PerIP:    cfg.AuthRateLimit.LoginIPLimit,
		PerEmail: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.RateLimitPolicy{
		Name:     "register",
		Window:   cfg.AuthRateLimit.RegisterWindow,
		PerIP:    cfg.AuthRateLimit.RegisterIPLimit,
		PerEmail: cfg.AuthRateLimit.RegisterEmailLimit,
	}
	loginLimit := middleware.RateLimit(loginPolicy, nil, logg)
	registerLimit := middleware.RateLimit(registerPolicy, nil, logg)
	if d.Redis != nil {
		loginLimit = middleware.RateLimit(loginPolicy, d.Redis, logg)
		registerLimit = middleware.RateLimit(registerPolicy, d.Redis, logg)
	}

	requireUser := middleware.Auth(cfg.JWT, d.Sessions, d.Users, logg)
	requireAdmin := middleware.RequireAdmin(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(registerLimit).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(loginLimit).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(requireUser).Post("/logout", controllers.AuthLogout(d.Auth, logg))
		})

		r.Route("/admin/auth", func(r chi.Router) {
			if !cfg.App.IsProd() {
				r.With(registerLimit).Post("/register", controllers.AdminAuthRegister(d.Auth, logg))
			}
			r.With(loginLimit).Post("/login", controllers.AdminAuthLogin(d.Auth, logg))
		})

		// public catalog
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Products, false, logg))
			r.Get("/special/featured", controllers.ProductSpecialList(d.Products, controllers.SpecialFeatured, cfg.Catalog.SpecialListLimit, logg))
			r.Get("/special/best-selling", controllers.ProductSpecialList(d.Products, controllers.SpecialBestSelling, cfg.Catalog.SpecialListLimit, logg))
			r.Get("/special/new-collection", controllers.ProductSpecialList(d.Products, controllers.SpecialNewCollection, cfg.Catalog.SpecialListLimit, logg))
			r.Get("/search", controllers.ProductSearch(d.Products, logg))
			r.Get("/category/{categoryId}", controllers.ProductsByCategory(d.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(d.Products, false, logg))
			r.Get("/{productId}/variants", controllers.VariantList(d.Products, false, logg))
			r.Get("/{productId}/variants/colors", controllers.VariantColors(d.Products, logg))
			r.Get("/{productId}/variants/sizes", controllers.VariantSizes(d.Products, logg))
			r.Get("/{productId}/variants/{variantId}", controllers.VariantGet(d.Products, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/roots", controllers.CategoryRoots(d.Categories, logg))
			r.Get("/slug/{slug}", controllers.CategoryBySlug(d.Categories, logg))
			r.Get("/{categoryId}", controllers.CategoryGet(d.Categories, logg))
			r.Get("/{categoryId}/children", controllers.CategoryChildren(d.Categories, logg))
		})
		r.Get("/reviews/product/{productId}", controllers.ProductReviews(d.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", controllers.ProfileGet(d.Users, logg))
				r.Put("/profile", controllers.ProfileUpdate(d.Users, logg))
				r.Put("/change-password", controllers.ProfileChangePassword(d.Users, logg))
				r.Get("/bank-details", controllers.BankDetailsGet(d.BankDetails, logg))
				r.Post("/bank-details", controllers.BankDetailsSave(d.BankDetails, true, logg))
				r.Put("/bank-details", controllers.BankDetailsSave(d.BankDetails, false, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(d.Addresses, logg))
				r.Post("/", controllers.AddressCreate(d.Addresses, logg))
				r.Get("/{addressId}", controllers.AddressGet(d.Addresses, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(d.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(d.Addresses, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(d.Cart, logg))
				r.Post("/", controllers.CartAdd(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Get("/count", controllers.CartCount(d.Cart, logg))
				r.Get("/total", controllers.CartTotal(d.Cart, logg))
				r.Put("/{productId}", controllers.CartUpdateQuantity(d.Cart, logg))
				r.Delete("/{productId}", controllers.CartRemove(d.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.Idempotency(idempotencyStore, cfg.App.OrderIdempotencyTTL, logg)).Post("/", controllers.OrderCreate(d.Orders, logg))
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
			})

			r.Post("/reviews", controllers.ReviewCreate(d.Reviews, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireUser, requireAdmin)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminCategoryList(d.Categories, logg))
				r.Post("/", controllers.AdminCategoryCreate(d.Categories, logg))
				r.Get("/{categoryId}", controllers.CategoryGet(d.Categories, logg))
				r.Put("/{categoryId}", controllers.AdminCategoryUpdate(d.Categories, logg))
				r.Delete("/{categoryId}", controllers.AdminCategoryDelete(d.Categories, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(d.Products, true, logg))
				r.Post("/", controllers.AdminProductCreate(d.Products, logg))
				r.Post("/with-variants", controllers.AdminProductCreateWithVariants(d.Products, logg))
				r.Put("/inventory", controllers.AdminInventoryUpdate(d.Products, logg))
				r.Get("/{productId}", controllers.ProductGet(d.Products, true, logg))
				r.Put("/{productId}", controllers.AdminProductUpdate(d.Products, logg))
				r.Put("/{productId}/with-variants", controllers.AdminProductUpdateWithVariants(d.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(d.Products, false, logg))
				r.Delete("/{productId}/hard", controllers.AdminProductDelete(d.Products, true, logg))

				r.Route("/{productId}/variants", func(r chi.Router) {
					r.Get("/", controllers.VariantList(d.Products, true, logg))
					r.Post("/", controllers.AdminVariantCreate(d.Products, logg))
					r.Post("/bulk", controllers.AdminVariantBulkCreate(d.Products, logg))
					r.Get("/sku", controllers.AdminVariantSKU(d.Products, logg))
					r.Get("/{variantId}", controllers.VariantGet(d.Products, logg))
					r.Put("/{variantId}", controllers.AdminVariantUpdate(d.Products, logg))
					r.Delete("/{variantId}", controllers.AdminVariantDelete(d.Products, false, logg))
					r.Delete("/{variantId}/hard", controllers.AdminVariantDelete(d.Products, true, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(d.Orders, logg))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", controllers.AdminReviewList(d.Reviews, logg))
				r.Patch("/{reviewId}/status", controllers.AdminReviewUpdateStatus(d.Reviews, logg))
				r.Patch("/{reviewId}/highlight", controllers.AdminReviewHighlight(d.Reviews, logg))
				r.Delete("/{reviewId}", controllers.AdminReviewDelete(d.Reviews, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponList(d.Coupons, logg))
				r.Post("/", controllers.AdminCouponCreate(d.Coupons, logg))
				r.Get("/{couponId}", controllers.AdminCouponGet(d.Coupons, logg))
				r.Put("/{couponId}", controllers.AdminCouponUpdate(d.Coupons, logg))
			})

			r.Route("/colors", func(r chi.Router) {
				r.Get("/", controllers.AdminColorList(d.Colors, logg))
				r.Post("/", controllers.AdminColorCreate(d.Colors, logg))
				r.Put("/{colorId}", controllers.AdminColorUpdate(d.Colors, logg))
				r.Delete("/{colorId}", controllers.AdminColorDelete(d.Colors, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUsersList(d.Users, logg))
				r.Get("/{userId}", controllers.AdminUserGet(d.Users, logg))
				r.Patch("/{userId}/status", controllers.AdminUserSetStatus(d.Users, logg))
				r.Patch("/{userId}/verify", controllers.AdminUserVerify(d.Users, logg))
				r.Delete("/{userId}", controllers.AdminUserDelete(d.Users, logg))
			})

			r.Route("/bank-details", func(r chi.Router) {
				r.Get("/", controllers.AdminBankDetailsList(d.BankDetails, logg))
				r.Get("/{userId}", controllers.AdminBankDetailsForUser(d.BankDetails, logg))
			})
		})
	})

	return r
}
