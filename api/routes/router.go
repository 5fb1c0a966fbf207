package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthieuvidal/fermelink-backend/api/controllers"
	"github.com/matthieuvidal/fermelink-backend/api/middleware"
	checkoutsvc "github.com/matthieuvidal/fermelink-backend/internal/checkout"
	"github.com/matthieuvidal/fermelink-backend/internal/invoices"
	"github.com/matthieuvidal/fermelink-backend/internal/notifications"
	"github.com/matthieuvidal/fermelink-backend/internal/orders"
	"github.com/matthieuvidal/fermelink-backend/internal/products"
	"github.com/matthieuvidal/fermelink-backend/internal/users"
	"github.com/matthieuvidal/fermelink-backend/internal/wallets"
	"github.com/matthieuvidal/fermelink-backend/pkg/auth/session"
	"github.com/matthieuvidal/fermelink-backend/pkg/config"
	"github.com/matthieuvidal/fermelink-backend/pkg/db"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
	"github.com/matthieuvidal/fermelink-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. cmd/api builds one after
// wiring the services.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Sessions      session.AccessSessionChecker
	Orders        orders.Service
	Checkout      checkoutsvc.Service
	Invoices      invoices.Service
	Wallets       wallets.Service
	Products      products.Service
	Users         users.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	writePolicy := middleware.NewRateLimitPolicy(
		"write",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.UserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.DB, deps.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.Use(middleware.RateLimit(writePolicy, deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Get("/{orderId}/summary", controllers.OrderSummary(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.ChangeOrderStatus(deps.Orders, logg))
			r.Post("/{orderId}/prepare-checkout", controllers.PrepareCheckout(deps.Checkout, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.ListMyInvoices(deps.Invoices, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(deps.Invoices, logg))
			r.Post("/{invoiceId}/mark-paid", controllers.MarkInvoicePaid(deps.Invoices, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
			r.Get("/{productId}/production-schedule", controllers.GetProductionSchedule(deps.Products, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/producer", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleProducer, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(deps.Products, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(deps.Products, logg))
				r.Patch("/{productId}/stock", controllers.UpdateProductStock(deps.Products, logg))
				r.Post("/{productId}/production-schedule", controllers.AppendProductionSchedule(deps.Products, logg))
			})

			r.Route("/slots", func(r chi.Router) {
				r.Get("/", controllers.ListSlots(deps.Products, logg))
				r.Post("/", controllers.CreateSlot(deps.Products, logg))
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", controllers.ProducerWallet(deps.Wallets, logg))
				r.Get("/entries", controllers.ProducerWalletEntries(deps.Wallets, logg))
				r.Post("/withdrawals", controllers.RequestWithdrawal(deps.Wallets, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.Use(middleware.RateLimit(writePolicy, deps.Redis, logg))

		r.Get("/orders/overview", controllers.AdminOrdersOverview(deps.Orders, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.Users, logg))
			r.Get("/{userId}", controllers.AdminGetUser(deps.Users, logg))
			r.Patch("/{userId}", controllers.AdminUpdateUser(deps.Users, logg))
			r.Delete("/{userId}", controllers.AdminDeleteUser(deps.Users, logg))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", controllers.AdminListWithdrawals(deps.Wallets, logg))
			r.Post("/{withdrawalId}/decision", controllers.AdminDecideWithdrawal(deps.Wallets, logg))
		})
	})

	return r
}
