package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarbakri/familysouq-backend/api/controllers"
	"github.com/omarbakri/familysouq-backend/api/middleware"
	"github.com/omarbakri/familysouq-backend/internal/cart"
	"github.com/omarbakri/familysouq-backend/internal/catalog"
	checkoutsvc "github.com/omarbakri/familysouq-backend/internal/checkout"
	"github.com/omarbakri/familysouq-backend/internal/orders"
	"github.com/omarbakri/familysouq-backend/pkg/config"
	"github.com/omarbakri/familysouq-backend/pkg/db"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
	"github.com/omarbakri/familysouq-backend/pkg/metrics"
	pkgredis "github.com/omarbakri/familysouq-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	RedisPinger     pkgredis.Pinger
	Idempotency     pkgredis.IdempotencyStore
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer

	CatalogService  catalog.Service
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog.
		r.Get("/products", controllers.ProductList(deps.CatalogService, logg))
		r.Get("/products/{productId}", controllers.ProductGet(deps.CatalogService, logg))

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, cfg.Checkout.IdempotencyTTL, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleFamily, enums.UserRoleAdmin))
				r.Post("/products", controllers.ProductCreate(deps.CatalogService, logg))
				r.Put("/products/{productId}", controllers.ProductUpdate(deps.CatalogService, logg))
				r.Delete("/products/{productId}", controllers.ProductDelete(deps.CatalogService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Post("/", controllers.CartAddItem(deps.CartService, logg))
				r.Get("/", controllers.CartFetch(deps.CartService, logg))
				r.Get("/count", controllers.CartCount(deps.CartService, logg))
				r.Get("/family/{familyId}", controllers.CartFamilyFetch(deps.CartService, logg))
				r.Put("/", controllers.CartBatchUpdate(deps.CartService, logg))
				r.Put("/{cartItemId}", controllers.CartUpdateQuantity(deps.CartService, logg))
				r.Delete("/", controllers.CartClear(deps.CartService, logg))
				r.Delete("/{cartItemId}", controllers.CartRemoveItem(deps.CartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RequireRole(logg, enums.UserRoleClient)).
					Post("/", controllers.Checkout(deps.CheckoutService, logg))
				r.Get("/", controllers.OrderList(deps.OrdersService, logg))
				r.Get("/count", controllers.OrderCount(deps.OrdersService, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.UserRoleFamily, enums.UserRoleAdmin))
					r.Get("/family/{familyId}", controllers.FamilyOrderList(deps.OrdersService, logg))
					r.Put("/{subOrderId}/status", controllers.FamilyOrderSetStatus(deps.OrdersService, logg))
				})
			})
		})
	})

	return r
}
