// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by relay spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	RelayEndpointKey  = "relay.endpoint"
	RelayTargetKey    = "relay.target"
	RelayBytesKey     = "relay.bytes"
	RelayResolvedKey  = "relay.resolved"
	UpstreamStatusKey = "http.upstream_status"

	PlaylistMasterKey    = "playlist.master"
	PlaylistLinesKey     = "playlist.lines"
	PlaylistTruncatedKey = "playlist.truncated"

	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RelayAttributes describes one relay call. target must already be sanitized.
func RelayAttributes(endpoint, target string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if endpoint != "" {
		attrs = append(attrs, attribute.String(RelayEndpointKey, endpoint))
	}
	if target != "" {
		attrs = append(attrs, attribute.String(RelayTargetKey, target))
	}
	return attrs
}

// PlaylistAttributes summarizes a rewrite.
func PlaylistAttributes(master bool, lines int, truncated bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(PlaylistMasterKey, master),
		attribute.Int(PlaylistLinesKey, lines),
		attribute.Bool(PlaylistTruncatedKey, truncated),
	}
}

// ErrorAttributes tags a span with the error's category.
func ErrorAttributes(errType string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(ErrorTypeKey, errType)}
}
