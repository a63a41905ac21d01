package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/cadastro/pkg/config"
	"github.com/utafrali/cadastro/pkg/database"
	"github.com/utafrali/cadastro/pkg/middleware"
	"github.com/utafrali/cadastro/pkg/tracing"
)

// ServiceName identifies the service in logs, metrics, traces and events.
const ServiceName = "cadastro"

// Config holds all configuration for the cadastro service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort           int           `env:"CADASTRO_HTTP_PORT" envDefault:"5000"`
	HTTPReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	HTTPIdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Per-client rate limiting
	RateLimitEnabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst   int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	// PostgreSQL
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"cadastro"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"cadastro_secret"`
	PostgresDB         string        `env:"POSTGRES_DB" envDefault:"cadastro"`
	PostgresSSL        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryThreshold int           `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cadastro config: %w", err)
	}
	return cfg, nil
}

// Validate implements pkgconfig.Validator.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("invalid postgres port: %d", c.PostgresPort)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must be set when KAFKA_ENABLED is true")
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when RATE_LIMIT_ENABLED is true")
	}
	if c.RedisEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when REDIS_ENABLED is true")
	}
	return nil
}

// Postgres returns the database connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
	}
}

// Redis returns the cache connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// RateLimit returns the per-client limiter settings.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:   c.RateLimitRPS,
		Burst: c.RateLimitBurst,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}

// SlowQuery returns the slow query logging threshold.
func (c *Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryThreshold) * time.Millisecond
}
