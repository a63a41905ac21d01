package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/cadastro/internal/service"
	"github.com/utafrali/cadastro/pkg/health"
	"github.com/utafrali/cadastro/pkg/middleware"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	ServiceName string
	Service     *service.UserService
	Health      *health.Handler
	Logger      *slog.Logger
	CORS        middleware.CORSConfig

	// RateLimit guards /users per client. Nil disables limiting.
	RateLimit *middleware.RateLimiter

	// Registry backs /metrics. A nil registry uses the default one.
	Registry *prometheus.Registry
}

// NewRouter creates a chi router with all cadastro routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if cfg.Registry != nil {
		reg, gatherer = cfg.Registry, cfg.Registry
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.NewHTTPMetrics(reg, cfg.ServiceName).Middleware)
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	userHandler := NewUserHandler(cfg.Service, cfg.Logger)

	r.Route("/users", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.Middleware(cfg.Logger))
		}
		r.Use(middleware.ContentTypeJSON)

		r.Get("/", userHandler.ListUsers)
		r.Post("/", userHandler.CreateUser)
		r.Get("/{id}", userHandler.GetUser)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Delete("/{id}", userHandler.DeleteUser)
	})

	return r
}
