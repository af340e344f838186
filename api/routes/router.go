package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pactwine/pact-backend/api/controllers"
	"github.com/pactwine/pact-backend/api/middleware"
	"github.com/pactwine/pact-backend/internal/checkout"
	"github.com/pactwine/pact-backend/internal/pallets"
	"github.com/pactwine/pact-backend/internal/reservations"
	"github.com/pactwine/pact-backend/internal/wines"
	"github.com/pactwine/pact-backend/internal/zones"
	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db"
	"github.com/pactwine/pact-backend/pkg/logger"
	pkgredis "github.com/pactwine/pact-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	redisClient *pkgredis.Client,
	checkoutService checkout.Service,
	palletService pallets.Service,
	reservationService reservations.Service,
	wineService wines.Service,
	zoneService zones.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisPinger pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisPinger = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Post("/checkout/validate", controllers.CheckoutValidate(checkoutService, logg))

		r.Route("/pallets", func(r chi.Router) {
			r.Get("/", controllers.PalletList(palletService, logg))
			r.Get("/{palletId}", controllers.PalletDetail(palletService, logg))
			r.Post("/{palletId}/status", controllers.PalletTransition(palletService, logg))
			r.Put("/{palletId}/rule", controllers.PalletSetRule(palletService, logg))
		})

		r.Post("/reservations/{reservationId}/approve", controllers.ReservationApprove(reservationService, logg))

		r.Post("/wines", controllers.WineCreate(wineService, logg))
		r.Patch("/wines/{wineId}", controllers.WineUpdate(wineService, logg))
		r.Get("/producers/{producerId}/wines", controllers.WineListByProducer(wineService, logg))

		r.Post("/pricing/quote", controllers.PriceQuote(wineService, logg))
		r.Get("/zones/match", controllers.ZoneMatch(zoneService, logg))
	})

	return r
}
