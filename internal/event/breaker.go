package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig holds configuration for the publish circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial publishes allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing
	// internal counts. 0 never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once this share of publishes fails.
	FailureRatio float64

	// MinRequests is the number of publishes needed before the ratio counts.
	MinRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used by the service.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// BreakerMetrics exposes breaker state as a gauge
// (0=closed, 1=half-open, 2=open).
type BreakerMetrics struct {
	state *prometheus.GaugeVec
}

// NewBreakerMetrics creates and registers the breaker gauge on reg.
func NewBreakerMetrics(reg prometheus.Registerer) (*BreakerMetrics, error) {
	state := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
	if err := reg.Register(state); err != nil {
		return nil, err
	}
	return &BreakerMetrics{state: state}, nil
}

func (m *BreakerMetrics) set(name string, state gobreaker.State) {
	if m == nil {
		return
	}
	m.state.WithLabelValues(name).Set(stateToFloat(state))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker guards broker writes. While open, calls fail with ErrCircuitOpen
// without reaching the broker.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger *slog.Logger
	name   string
}

// NewBreaker creates a breaker. metrics may be nil.
func NewBreaker(cfg BreakerConfig, metrics *BreakerMetrics, logger *slog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.set(name, to)
		},
		// Cancelled publishes do not count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	metrics.set(cfg.Name, gobreaker.StateClosed)

	return &Breaker{
		cb:     gobreaker.NewCircuitBreaker[struct{}](settings),
		logger: logger,
		name:   cfg.Name,
	}
}

// Do runs fn through the breaker.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// State returns the current state of the breaker.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
