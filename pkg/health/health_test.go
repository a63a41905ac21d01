package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func serveReadiness(t *testing.T, h *Handler) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestLivenessHandler_AlwaysUp(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failing("down"))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(h *Handler)
		wantCode    int
		wantStatus  Status
		checkStates map[string]Status
	}{
		{
			name:       "no checks",
			setup:      func(*Handler) {},
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
		{
			name: "all up",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", ok)
				h.RegisterNonCritical("redis", ok)
				h.RegisterNonCritical("kafka", ok)
			},
			wantCode:    http.StatusOK,
			wantStatus:  StatusUp,
			checkStates: map[string]Status{"postgres": StatusUp, "redis": StatusUp, "kafka": StatusUp},
		},
		{
			name: "non-critical down degrades",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", ok)
				h.RegisterNonCritical("kafka", failing("broker unreachable"))
				h.RegisterNonCritical("redis", failing("redis down"))
			},
			wantCode:    http.StatusOK,
			wantStatus:  StatusDegraded,
			checkStates: map[string]Status{"postgres": StatusUp, "kafka": StatusDown, "redis": StatusDown},
		},
		{
			name: "critical down",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", failing("connection refused"))
				h.RegisterNonCritical("redis", failing("redis down"))
			},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
			checkStates: map[string]Status{"postgres": StatusDown, "redis": StatusDown},
		},
		{
			name: "register defaults to critical",
			setup: func(h *Handler) {
				h.Register("postgres", failing("fail"))
			},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
			checkStates: map[string]Status{"postgres": StatusDown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			tt.setup(h)

			rec, resp := serveReadiness(t, h)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			for name, want := range tt.checkStates {
				assert.Equal(t, want, resp.Checks[name].Status, name)
			}
		})
	}
}

func TestReadinessHandler_ReportsCriticalityAndError(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", ok)
	h.RegisterNonCritical("kafka", failing("broker unreachable"))

	_, resp := serveReadiness(t, h)

	assert.True(t, resp.Checks["postgres"].Critical)
	assert.False(t, resp.Checks["kafka"].Critical)
	assert.Equal(t, "broker unreachable", resp.Checks["kafka"].Error)
	assert.NotEmpty(t, resp.Checks["kafka"].Latency)
}

func TestRegister_Overwrites(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failing("old"))
	h.RegisterCritical("postgres", ok)

	rec, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
}

func TestReadinessHandler_TimesOutSlowChecks(t *testing.T) {
	h := NewHandler()
	h.timeout = 20 * time.Millisecond
	h.RegisterCritical("postgres", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	rec, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["postgres"].Error)
}
