package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oneclickretail/oneclick-backend/api/controllers"
	"github.com/oneclickretail/oneclick-backend/api/middleware"
	"github.com/oneclickretail/oneclick-backend/internal/address"
	"github.com/oneclickretail/oneclick-backend/internal/cart"
	"github.com/oneclickretail/oneclick-backend/internal/catalog"
	"github.com/oneclickretail/oneclick-backend/internal/coupons"
	"github.com/oneclickretail/oneclick-backend/internal/notifications"
	"github.com/oneclickretail/oneclick-backend/internal/orders"
	"github.com/oneclickretail/oneclick-backend/internal/users"
	"github.com/oneclickretail/oneclick-backend/internal/wishlist"
	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
	"github.com/oneclickretail/oneclick-backend/pkg/metrics"
	"github.com/oneclickretail/oneclick-backend/pkg/redis"
)

// Services groups the domain services the router hands to controllers.
type Services struct {
	Users         users.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Wishlist      wishlist.Service
	Address       address.Service
	Coupons       coupons.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storeMetrics *metrics.StoreMetrics,
	gatherer prometheus.Gatherer,
	uploadsRoot string,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, storeMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if uploadsRoot != "" {
		files := http.StripPrefix(cfg.Uploads.PublicPrefix, http.FileServer(http.Dir(uploadsRoot)))
		r.Method(http.MethodGet, cfg.Uploads.PublicPrefix+"/*", files)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Users, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Users, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(svcs.Users, logg))
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/{category}", controllers.CatalogList(svcs.Catalog, logg))
		r.Get("/{category}/{prodId}", controllers.CatalogDetail(svcs.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(redisClient, logg))

		r.Get("/users/me", controllers.Me(svcs.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/", controllers.CartAdd(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			r.Patch("/{prodId}", controllers.CartSetQuantity(svcs.Cart, logg))
			r.Delete("/{prodId}", controllers.CartRemove(svcs.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(svcs.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(svcs.Wishlist, logg))
			r.Delete("/{prodId}", controllers.WishlistRemove(svcs.Wishlist, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svcs.Address, logg))
			r.Post("/", controllers.AddressCreate(svcs.Address, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(svcs.Address, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(svcs.Address, logg))
			r.Post("/{addressId}/current", controllers.AddressMakeCurrent(svcs.Address, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(svcs.Orders, cfg.Uploads, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderNumber}", controllers.OrderDetail(svcs.Orders, logg))
		})

		r.Post("/coupons/redeem", controllers.RedeemCoupon(svcs.Coupons, logg))
		r.Post("/common-coupons/apply", controllers.ApplyCommonCoupon(svcs.Coupons, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin.String(), logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(svcs.Catalog, logg))
			r.Post("/", controllers.AdminCreateProduct(svcs.Catalog, cfg.Uploads, logg))
			r.Patch("/{prodId}", controllers.AdminUpdateProduct(svcs.Catalog, logg))
			r.Delete("/{prodId}", controllers.AdminDeleteProduct(svcs.Catalog, logg))
			r.Post("/{prodId}/approve", controllers.AdminApproveProduct(svcs.Catalog, logg))
			r.Post("/{prodId}/images", controllers.AdminAddProductImages(svcs.Catalog, cfg.Uploads, logg))
			r.Put("/{prodId}/images/{index}", controllers.AdminReplaceProductImage(svcs.Catalog, cfg.Uploads, logg))
			r.Delete("/{prodId}/images/{index}", controllers.AdminDeleteProductImage(svcs.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
			r.Patch("/{orderNumber}/delivery", controllers.AdminUpdateDelivery(svcs.Orders, logg))
			r.Delete("/{orderNumber}", controllers.AdminDeleteOrder(svcs.Orders, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminListCoupons(svcs.Coupons, logg))
			r.Post("/", controllers.AdminCreateCoupon(svcs.Coupons, logg))
			r.Delete("/{couponId}", controllers.AdminDeleteCoupon(svcs.Coupons, logg))
		})

		r.Route("/common-coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminListCommonCoupons(svcs.Coupons, logg))
			r.Post("/", controllers.AdminCreateCommonCoupon(svcs.Coupons, logg))
			r.Delete("/{couponId}", controllers.AdminDeleteCommonCoupon(svcs.Coupons, logg))
		})

		r.Delete("/notifications/stale", controllers.AdminPurgeStaleNotifications(svcs.Notifications, logg))
	})

	return r
}
