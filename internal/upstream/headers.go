// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upstream

import (
	"net/http"
	"strings"

	"github.com/ManuGH/hlsrelay/internal/hls"
)

// strippedRequestHeaders are never sent upstream, even when a caller puts
// them in the forwarded header map.
var strippedRequestHeaders = []string{
	"Cookie",
	"Cookie2",
	"X-Request-Start",
	"X-Request-Id",
	"Via",
	"Connect-Time",
	"Total-Route-Time",
}

// ApplyForwardedHeaders overrides req's headers with the forwarded map, then
// removes headers that must not leave the relay. A forwarded Host replaces
// the request host; net/http ignores it in the header map.
func ApplyForwardedHeaders(req *http.Request, headers hls.Headers) {
	for name, value := range headers {
		if name == "" {
			continue
		}
		if strings.EqualFold(name, "Host") {
			if value != "" {
				req.Host = value
			}
			continue
		}
		req.Header.Set(name, value)
	}
	for _, name := range strippedRequestHeaders {
		req.Header.Del(name)
	}
}
