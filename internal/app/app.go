package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/cadastro/internal/cache"
	"github.com/utafrali/cadastro/internal/config"
	"github.com/utafrali/cadastro/internal/event"
	handler "github.com/utafrali/cadastro/internal/handler/http"
	"github.com/utafrali/cadastro/internal/repository/postgres"
	"github.com/utafrali/cadastro/internal/service"
	"github.com/utafrali/cadastro/migrations"
	"github.com/utafrali/cadastro/pkg/database"
	"github.com/utafrali/cadastro/pkg/health"
	pkgkafka "github.com/utafrali/cadastro/pkg/kafka"
	"github.com/utafrali/cadastro/pkg/middleware"
	"github.com/utafrali/cadastro/pkg/tracing"
)

// App wires together all dependencies and runs the cadastro service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	rateLimiter    *middleware.RateLimiter
	tracerShutdown tracing.Shutdown
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis and Kafka are only connected when enabled in cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if threshold := cfg.SlowQuery(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	// Metrics registry shared by every collector and served on /metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := database.RegisterPoolMetrics(registry, pool, config.ServiceName); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Optional Redis listing cache.
	var listCache service.ListCache
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		listCache = cache.NewUserListCache(client, cfg.CacheTTL)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Info("redis cache enabled",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Duration("ttl", cfg.CacheTTL),
		)
	}

	// Optional Kafka event producer.
	var events service.EventPublisher
	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		}, pkgkafka.NewProducerMetrics(registry), logger)
		a.producer = producer

		breakerMetrics, err := event.NewBreakerMetrics(registry)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("register breaker metrics: %w", err)
		}
		breaker := event.NewBreaker(event.DefaultBreakerConfig("kafka"), breakerMetrics, logger)
		events = event.NewProducer(producer, breaker, logger)

		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	store := postgres.NewStore(pool)
	repos := store.Repositories()
	userService := service.NewUserService(repos.Users, repos.Addresses, store, events, listCache, logger)

	if cfg.RateLimitEnabled {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit())
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: config.ServiceName,
		Service:     userService,
		Health:      healthHandler,
		Logger:      logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		RateLimit: a.rateLimiter,
		Registry:  registry,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.closeAll()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases everything but the HTTP server. Components that were
// never started are skipped.
func (a *App) closeAll() []error {
	var errs []error

	if a.rateLimiter != nil {
		a.rateLimiter.Close()
		a.rateLimiter = nil
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errs
}
