package http

// Canonical header names.
const (
	// HeaderRequestID is the header for request correlation. Middleware,
	// problem responses and tests must agree on it.
	HeaderRequestID = "X-Request-ID"
)

// Canonical JSON field names.
const (
	// JSONKeyRequestID carries the request id in JSON error bodies.
	JSONKeyRequestID = "requestId"
)
