package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vietcart/vietcart-backend/api/controllers"
	"github.com/vietcart/vietcart-backend/api/middleware"
	"github.com/vietcart/vietcart-backend/internal/address"
	internalauth "github.com/vietcart/vietcart-backend/internal/auth"
	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/internal/catalog"
	checkoutsvc "github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/customers"
	"github.com/vietcart/vietcart-backend/internal/gateway"
	"github.com/vietcart/vietcart-backend/internal/orders"
	"github.com/vietcart/vietcart-backend/internal/paymentmethods"
	"github.com/vietcart/vietcart-backend/internal/payments"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	"github.com/vietcart/vietcart-backend/internal/shipments"
	"github.com/vietcart/vietcart-backend/pkg/auth/session"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on so cmd/api wires
// the router in one call.
type Services struct {
	Customers      customers.Service
	Auth           internalauth.Service
	Catalog        catalog.Service
	Cart           cart.Service
	Addresses      address.Service
	PaymentMethods paymentmethods.Service
	Checkout       checkoutsvc.Service
	Orders         orders.Service
	Payments       payments.Service
	Shipments      shipments.Service
	PendingLedger  pendingpayments.Service
	Gateway        gateway.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Customers, svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
	})

	// Public storefront surface.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svcs.Catalog, logg))
		r.Get("/{productKey}", controllers.ProductDetail(svcs.Catalog, logg))
	})
	r.Get("/api/v1/shipments/track/{trackingNumber}", controllers.ShipmentTrack(svcs.Shipments, logg))

	// Gateway legs are unauthenticated: the return rides the shopper's
	// browser redirect and the IPN comes from VNPay's servers. Both are
	// signature-verified inside the service.
	r.Route("/api/v1/payments/vnpay", func(r chi.Router) {
		r.Get("/return", controllers.VNPayReturn(svcs.Gateway, logg))
		r.Get("/ipn", controllers.VNPayIPN(svcs.Gateway, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/auth/logout", controllers.AuthLogout(svcs.Auth, logg))
		r.Get("/me", controllers.Me(svcs.Customers, logg))
		r.Put("/me", controllers.UpdateProfile(svcs.Customers, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Route("/items/{itemId}", func(r chi.Router) {
				r.Put("/", controllers.CartUpdateItem(svcs.Cart, logg))
				r.Delete("/", controllers.CartRemoveItem(svcs.Cart, logg))
				r.Put("/selection", controllers.CartSelectItem(svcs.Cart, logg))
				r.Post("/save-for-later", controllers.CartSaveForLater(svcs.Cart, logg))
				r.Post("/move-to-cart", controllers.CartMoveToCart(svcs.Cart, logg))
			})
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svcs.Addresses, logg))
			r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
			r.Route("/{addressId}", func(r chi.Router) {
				r.Get("/", controllers.AddressDetail(svcs.Addresses, logg))
				r.Put("/", controllers.AddressUpdate(svcs.Addresses, logg))
				r.Delete("/", controllers.AddressDelete(svcs.Addresses, logg))
				r.Post("/default", controllers.AddressSetDefault(svcs.Addresses, logg))
			})
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", controllers.PaymentMethodList(svcs.PaymentMethods, logg))
			r.Post("/", controllers.PaymentMethodCreate(svcs.PaymentMethods, logg))
			r.Post("/cards", controllers.PaymentMethodSaveCard(svcs.PaymentMethods, logg))
			r.Route("/{methodId}", func(r chi.Router) {
				r.Get("/", controllers.PaymentMethodDetail(svcs.PaymentMethods, logg))
				r.Delete("/", controllers.PaymentMethodDelete(svcs.PaymentMethods, logg))
				r.Post("/default", controllers.PaymentMethodSetDefault(svcs.PaymentMethods, logg))
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutFetch(svcs.Checkout, logg))
			r.Delete("/", controllers.CheckoutAbandon(svcs.Checkout, logg))
			r.Put("/address", controllers.CheckoutSetAddress(svcs.Checkout, logg))
			r.Put("/shipping", controllers.CheckoutSetShipping(svcs.Checkout, logg))
			r.Put("/payment", controllers.CheckoutSetPayment(svcs.Checkout, logg))
			r.Post("/confirm", controllers.CheckoutConfirm(svcs.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(svcs.Orders, logg))
				r.Delete("/", controllers.OrderDelete(svcs.Orders, logg))
				r.Post("/cancel", controllers.OrderCancel(svcs.Orders, logg))
				r.Post("/discount", controllers.OrderApplyDiscount(svcs.Orders, logg))
				r.Get("/payments", controllers.OrderPayments(svcs.Orders, svcs.Payments, logg))
				r.Get("/shipment", controllers.OrderShipment(svcs.Orders, svcs.Shipments, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminToken(cfg.App.AdminToken, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(svcs.Catalog, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(svcs.Catalog, logg))
			r.Post("/{productId}/restock", controllers.AdminProductRestock(svcs.Catalog, logg))
		})
		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/status", controllers.AdminOrderUpdateStatus(svcs.Orders, logg))
			r.Post("/refund", controllers.AdminOrderRefund(svcs.Payments, logg))
			r.Post("/shipment", controllers.AdminShipmentCreate(svcs.Shipments, logg))
		})
		r.Post("/shipments/{shipmentId}/status", controllers.AdminShipmentUpdateStatus(svcs.Shipments, logg))
		r.Get("/pending-payments", controllers.AdminPendingPayments(svcs.PendingLedger, logg))
	})

	return r
}
