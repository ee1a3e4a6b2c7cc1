// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httpx builds the outbound HTTP clients used to reach origins.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 30 * time.Second
	defaultDialTimeout           = 5 * time.Second
	defaultResponseHeaderTimeout = 15 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 64
	defaultMaxIdleConnsPerHost   = 16
)

// Options tunes a client. Zero values fall back to package defaults.
type Options struct {
	// Timeout bounds the whole exchange including the body. Ignored by
	// NewStreamingClient.
	Timeout time.Duration
	// ResponseHeaderTimeout bounds the wait for upstream headers.
	ResponseHeaderTimeout time.Duration
	// Instrument wraps the transport with OpenTelemetry client spans.
	Instrument bool
}

// NewClient returns a hardened client for bounded fetches (playlists, pages).
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	headerTimeout := opts.ResponseHeaderTimeout
	if headerTimeout <= 0 || headerTimeout > timeout {
		headerTimeout = timeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: wrap(newTransport(headerTimeout), opts.Instrument),
	}
}

// NewStreamingClient returns a client without a total timeout. Segment bodies
// may legitimately take minutes; the caller's context bounds them instead.
func NewStreamingClient(opts Options) *http.Client {
	headerTimeout := opts.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = defaultResponseHeaderTimeout
	}

	t := newTransport(headerTimeout)
	// Relay bytes exactly as the origin sent them.
	t.DisableCompression = true

	return &http.Client{
		Transport: wrap(t, opts.Instrument),
	}
}

func newTransport(responseHeaderTimeout time.Duration) *http.Transport {
	dialTimeout := defaultDialTimeout
	if responseHeaderTimeout < dialTimeout {
		dialTimeout = responseHeaderTimeout
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}

func wrap(t *http.Transport, instrument bool) http.RoundTripper {
	if !instrument {
		return t
	}
	return otelhttp.NewTransport(t)
}
