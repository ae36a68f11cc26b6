package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/souq-backend/api/controllers"
	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/redis"
	"github.com/angelmondragon/souq-backend/pkg/shipping"
)

// Deps are the collaborators the HTTP surface is built from. Redis, Shipping
// and Metrics are optional.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Orders   orders.Service
	Wallets  ledger.Service
	Payouts  payouts.Service
	Shipping *shipping.Client
	Metrics  prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	var (
		idempotency redis.IdempotencyStore
		rates       controllers.RateQuoter
	)
	if d.Shipping != nil {
		rates = d.Shipping
	}
	ready := map[string]controllers.Pinger{"postgres": d.DB}
	if d.Redis != nil {
		idempotency = d.Redis
		ready["redis"] = d.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if d.Redis != nil {
			r.Use(middleware.WriteRateLimit(middleware.WriteRateLimitPolicy{
				Window: cfg.RateLimit.Window,
				Limit:  cfg.RateLimit.WriteLimit,
			}, d.Redis, logg))
		}
		r.Use(middleware.Idempotency(idempotency, logg))

		r.Get("/shipping/rates", controllers.ShippingRates(rates, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.MemberRoleCustomer)).Post("/", controllers.CreateOrder(d.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleCustomer)).Get("/", controllers.ListOrders(d.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(d.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleCustomer, enums.MemberRoleAdmin)).Post("/{orderId}/cancel", controllers.CancelOrder(d.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleCustomer)).Post("/{orderId}/pay-with-wallet", controllers.PayOrderWithWallet(d.Orders, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(d.Wallets, logg))
			r.Get("/transactions", controllers.ListWalletTransactions(d.Wallets, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleVendor))
			r.Get("/wallet", controllers.VendorWallet(d.Payouts, logg))
			r.Get("/earnings", controllers.VendorEarnings(d.Payouts, logg))
			r.Post("/payouts", controllers.CreatePayout(d.Payouts, logg))
			r.Get("/payouts", controllers.ListVendorPayouts(d.Payouts, logg))
			r.Get("/stats/sales", controllers.VendorSalesStats(d.Payouts, logg))
			r.Get("/stats/monthly", controllers.VendorMonthlySales(d.Payouts, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin))
			r.Route("/orders/{orderId}", func(r chi.Router) {
				r.Post("/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
				r.Post("/payments", controllers.AdminRecordPayment(d.Orders, logg))
				r.Delete("/", controllers.AdminDeleteOrder(d.Orders, logg))
			})
			r.Post("/wallets/{ownerId}/credit", controllers.AdminCreditWallet(d.Wallets, logg))
			r.Get("/payouts", controllers.AdminListPayouts(d.Payouts, logg))
			r.Post("/payouts/{payoutId}/process", controllers.AdminProcessPayout(d.Payouts, logg))
			r.Get("/stats/commission", controllers.AdminCommissionStats(d.Payouts, logg))
		})
	})

	return r
}
