package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// Status is the health of a component or of the whole service.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

const defaultCheckTimeout = 5 * time.Second

// Response is the body of the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Latency  string `json:"latency,omitempty"`
	Error    string `json:"error,omitempty"`
}

type check struct {
	fn       Checker
	critical bool
}

// Handler serves liveness and readiness endpoints. A failing critical
// check makes the service unready (503); a failing non-critical check only
// degrades it (200 with status "degraded").
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
}

// NewHandler creates a Handler with no checks registered.
func NewHandler() *Handler {
	return &Handler{
		checks:  make(map[string]check),
		timeout: defaultCheckTimeout,
	}
}

// Register adds a critical check. Registering an existing name replaces it.
func (h *Handler) Register(name string, fn Checker) {
	h.RegisterCritical(name, fn)
}

// RegisterCritical adds a check whose failure marks the service down.
func (h *Handler) RegisterCritical(name string, fn Checker) {
	h.register(name, fn, true)
}

// RegisterNonCritical adds a check whose failure only degrades the service.
func (h *Handler) RegisterNonCritical(name string, fn Checker) {
	h.register(name, fn, false)
}

func (h *Handler) register(name string, fn Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check{fn: fn, critical: critical}
}

// LivenessHandler always reports up while the process can serve requests.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs every registered check concurrently.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		h.mu.RLock()
		checks := make(map[string]check, len(h.checks))
		for name, c := range h.checks {
			checks[name] = c
		}
		h.mu.RUnlock()

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results = make(map[string]CheckResult, len(checks))
		)
		for name, c := range checks {
			wg.Add(1)
			go func(name string, c check) {
				defer wg.Done()
				res := run(ctx, c)
				mu.Lock()
				results[name] = res
				mu.Unlock()
			}(name, c)
		}
		wg.Wait()

		status := StatusUp
		for _, res := range results {
			if res.Status != StatusDown {
				continue
			}
			if res.Critical {
				status = StatusDown
				break
			}
			status = StatusDegraded
		}

		code := http.StatusOK
		if status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{Status: status, Timestamp: time.Now().UTC(), Checks: results})
	}
}

func run(ctx context.Context, c check) CheckResult {
	start := time.Now()
	err := c.fn(ctx)
	res := CheckResult{
		Status:   StatusUp,
		Critical: c.critical,
		Latency:  time.Since(start).String(),
	}
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
	}
	return res
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
