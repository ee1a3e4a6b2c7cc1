// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/hlsrelay/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldTrace(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		if shouldTrace(req) {
			t.Errorf("expected shouldTrace to skip %s", p)
		}
	}
	if shouldTrace(httptest.NewRequest(http.MethodOptions, "/seg", nil)) {
		t.Error("expected shouldTrace to skip preflight requests")
	}

	for _, p := range []string{"/hls-proxy", "/seg"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		if !shouldTrace(req) {
			t.Errorf("expected shouldTrace to trace %s", p)
		}
	}
}

func TestSpanNameFormatter(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/seg", nil)
	if got := spanNameFormatter("hlsrelay", req); got != "GET /seg" {
		t.Fatalf("unexpected span name: %s", got)
	}

	reqWithQuery := httptest.NewRequest(http.MethodGet, "/seg?url=https%3A%2F%2Fcdn.example%2Fa.ts", nil)
	if got := spanNameFormatter("hlsrelay", reqWithQuery); got != "GET /seg?" {
		t.Fatalf("unexpected span name with query: %s", got)
	}

	routed := httptest.NewRequest(http.MethodPost, "/seg?url=x", nil)
	routed.Pattern = "/seg"
	if got := spanNameFormatter("hlsrelay", routed); got != "POST /seg" {
		t.Fatalf("unexpected span name for routed request: %s", got)
	}
}

func TestExtractTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test-tracer").Start(context.Background(), "test-span")
	defer span.End()

	traceID, spanID := ExtractTraceContext(httptest.NewRequest(http.MethodGet, "/seg", nil).WithContext(ctx))
	require.NotEmpty(t, traceID)
	require.NotEmpty(t, spanID)
	assert.NotEqual(t, "00000000000000000000000000000000", traceID)

	traceID, spanID = ExtractTraceContext(httptest.NewRequest(http.MethodGet, "/seg", nil))
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestTracing_NamesSpanByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Tracing("hlsrelay"))
	r.Get("/hls-proxy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hls-proxy?url=secret", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /hls-proxy", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(telemetry.HTTPRouteKey, "/hls-proxy"))
}

func TestTracing_UnmatchedPathKeepsQueryHidden(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := chi.NewRouter()
	r.Use(Tracing("hlsrelay"))
	r.Get("/hls-proxy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere?url=secret", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /nowhere?", spans[0].Name())
	assert.NotContains(t, spans[0].Name(), "secret")
}
