package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luisherrera/milltrack-agent/api/controllers"
	"github.com/luisherrera/milltrack-agent/api/middleware"
	"github.com/luisherrera/milltrack-agent/internal/netmon"
	"github.com/luisherrera/milltrack-agent/internal/queue"
	"github.com/luisherrera/milltrack-agent/pkg/auth/session"
	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/db"
	"github.com/luisherrera/milltrack-agent/pkg/events"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    db.Pinger
	Queue    *queue.Service
	Monitor  *netmon.Monitor
	Sessions *session.Manager
	Bus      *events.Bus
	Registry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Store))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/queue", func(r chi.Router) {
			r.Post("/", controllers.QueueEnqueue(deps.Queue, deps.Sessions, cfg.Agent, logg))
			r.Get("/", controllers.QueueList(deps.Queue))
			r.Get("/counts", controllers.QueueCounts(deps.Queue))
			r.Delete("/failed", controllers.QueueClearFailed(deps.Queue))
			r.Delete("/", controllers.QueueClearAll(deps.Queue))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.SyncNow(deps.Monitor, logg))
			r.Post("/retry-failed", controllers.SyncRetryFailed(deps.Monitor))
			r.Get("/status", controllers.SyncStatus(deps.Monitor))
		})

		r.Route("/session", func(r chi.Router) {
			r.Put("/", controllers.SessionSet(deps.Sessions, logg))
			r.Delete("/", controllers.SessionClear(deps.Sessions))
			r.Get("/", controllers.SessionStatus(deps.Sessions))
		})

		r.Get("/events", controllers.QueueEvents(deps.Bus, logg))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
