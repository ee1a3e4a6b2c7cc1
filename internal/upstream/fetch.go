// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upstream performs bounded, whole-body fetches from origins. It
// serves playlist fetches and live-page scraping; segments are streamed by
// package relay instead.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/hls"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
)

// DefaultMaxBodyBytes caps a fetched document. Playlists and watch pages are
// far below this.
const DefaultMaxBodyBytes = 16 << 20

// ErrBodyTooLarge is wrapped in a FetchError when the cap is hit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// FetchError reports a failed fetch: transport errors, non-2xx statuses and
// unreadable bodies alike. StatusCode is zero when no response arrived.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode > 299) {
		return fmt.Sprintf("upstream fetch %s: status %d", platformnet.SanitizeURL(e.URL), e.StatusCode)
	}
	return fmt.Sprintf("upstream fetch %s: %v", platformnet.SanitizeURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher issues GET requests with caller-supplied headers.
type Fetcher struct {
	client  *http.Client
	policy  platformnet.HostPolicy
	maxBody int64
}

// NewFetcher wraps client. The policy is checked before any request is made.
func NewFetcher(client *http.Client, policy platformnet.HostPolicy) *Fetcher {
	return &Fetcher{client: client, policy: policy, maxBody: DefaultMaxBodyBytes}
}

// Get fetches rawURL. Header names in headers are set verbatim; values from
// defaults are used only for names headers does not carry.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers hls.Headers, defaults http.Header) (*Response, error) {
	u, ok := platformnet.ParseDirectHTTPURL(rawURL)
	if !ok {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("not an absolute http(s) url")}
	}
	if err := f.policy.Check(u); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	for name, values := range defaults {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	ApplyForwardedHeaders(req, headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
