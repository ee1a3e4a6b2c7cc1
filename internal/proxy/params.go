// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/hls"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
)

// relayParams are the decoded query parameters shared by both endpoints.
type relayParams struct {
	target  string
	headers hls.Headers
}

func parseRelayParams(r *http.Request) (relayParams, error) {
	q := r.URL.Query()

	target := q.Get(hls.ParamURL)
	if target == "" {
		return relayParams{}, &errBadRequest{code: "MISSING_URL", detail: "query parameter \"url\" is required"}
	}
	if _, ok := platformnet.ParseDirectHTTPURL(target); !ok {
		return relayParams{}, &errBadRequest{code: "INVALID_URL", detail: "query parameter \"url\" must be an absolute http(s) URL"}
	}

	headers, err := hls.DecodeHeaders(q.Get(hls.ParamHeaders))
	if err != nil {
		return relayParams{}, &errBadRequest{code: "INVALID_HEADERS", detail: "query parameter \"headers\": " + err.Error()}
	}

	return relayParams{target: target, headers: headers}, nil
}
