package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	return exporter
}

func tracedRouter(status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Tracing("cadastro"))
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	exporter := setupTestTracer(t)

	rec := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/7", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /users/{id}", spans[0].Name)

	attrs := make(map[string]string)
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "/users/{id}", attrs["http.route"])
	assert.Equal(t, "200", attrs["http.status_code"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	rec := httptest.NewRecorder()
	tracedRouter(http.StatusInternalServerError).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/7", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_ClientErrorDoesNotMarkSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	rec := httptest.NewRecorder()
	tracedRouter(http.StatusNotFound).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/7", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
