// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware provides the HTTP ingress middleware for the relay.
package middleware

import (
	"net/http"
	"strings"

	controlhttp "github.com/ManuGH/hlsrelay/internal/control/http"
	"github.com/ManuGH/hlsrelay/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps handlers with OpenTelemetry HTTP instrumentation. Inbound
// W3C trace context is honored. Spans never carry query values because the
// query holds target URLs and forwarded headers.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			span := trace.SpanFromContext(r.Context())
			if pattern := routePattern(r); pattern != "" {
				span.SetAttributes(attribute.String(telemetry.HTTPRouteKey, pattern))
			}
			if reqID := w.Header().Get(controlhttp.HeaderRequestID); reqID != "" {
				span.SetAttributes(attribute.String("http.requestId", reqID))
			}
		})

		return otelhttp.NewHandler(
			inner,
			serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithPropagators(otel.GetTextMapPropagator()),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanNameFormatter),
		)
	}
}

// shouldTrace skips health and metrics endpoints.
func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return r.Method != http.MethodOptions
}

// spanNameFormatter returns "{method} {route}" once routing has matched.
// otelhttp calls it again after the handler when r.Pattern is set. Before a
// match it falls back to the path, marking a query with "?" without exposing
// its values.
func spanNameFormatter(_ string, r *http.Request) string {
	if pattern := routePattern(r); pattern != "" {
		if strings.Contains(pattern, " ") {
			return pattern
		}
		return r.Method + " " + pattern
	}
	if r.URL.RawQuery != "" {
		return r.Method + " " + r.URL.Path + "?"
	}
	return r.Method + " " + r.URL.Path
}

func routePattern(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// ExtractTraceContext returns the trace and span ids of the active span, or
// empty strings when there is none.
func ExtractTraceContext(r *http.Request) (traceID, spanID string) {
	spanCtx := trace.SpanContextFromContext(r.Context())
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}
