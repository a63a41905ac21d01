package event

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig("test"), nil, discardLogger())
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 4; i++ {
		require.Error(t, b.Do(failing))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_TripsAndReportsState(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewBreakerMetrics(reg)
	require.NoError(t, err)

	cfg := DefaultBreakerConfig("kafka")
	cfg.MinRequests = 1
	b := NewBreaker(cfg, metrics, discardLogger())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.state.WithLabelValues("kafka")))

	require.Error(t, b.Do(func() error { return errors.New("boom") }))

	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.state.WithLabelValues("kafka")))
}

func TestBreaker_CanceledContextIsNotAFailure(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 1
	b := NewBreaker(cfg, nil, discardLogger())

	err := b.Do(func() error { return context.Canceled })
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestNewBreakerMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewBreakerMetrics(reg)
	require.NoError(t, err)

	_, err = NewBreakerMetrics(reg)
	assert.Error(t, err)
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, float64(0), stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, float64(1), stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, float64(2), stateToFloat(gobreaker.StateOpen))
	assert.Equal(t, float64(-1), stateToFloat(gobreaker.State(99)))
}
