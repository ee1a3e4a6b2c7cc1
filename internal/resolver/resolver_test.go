// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/hlsrelay/internal/hls"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
	"github.com/ManuGH/hlsrelay/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const watchURL = "https://www.youtube.com/watch?v=jfKfPfyJRdk"

type fakeFetcher struct {
	calls   atomic.Int32
	body    string
	err     error
	started chan struct{}
	release chan struct{}
	lastUA  atomic.Value
}

func (f *fakeFetcher) Get(ctx context.Context, rawURL string, _ hls.Headers, defaults http.Header) (*upstream.Response, error) {
	f.calls.Add(1)
	f.lastUA.Store(defaults.Get("User-Agent"))
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &upstream.Response{StatusCode: http.StatusOK, Body: []byte(f.body)}, nil
}

func TestIsLivePage(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/watch?v=jfKfPfyJRdk", true},
		{"https://youtube.com/watch?feature=share&v=jfKfPfyJRdk", true},
		{"https://m.youtube.com/watch?v=jfKfPfyJRdk", true},
		{"https://www.youtube.com/live/jfKfPfyJRdk?si=x", true},
		{"https://www.youtube.com/@LofiGirl/live", true},
		{"https://www.youtube.com/channel/UCSJ4gkVC6NrvII8umztf0Ow/live", true},
		{"https://youtu.be/jfKfPfyJRdk", true},
		{"https://www.youtube.com/@LofiGirl/videos", false},
		{"https://manifest.googlevideo.com/api/manifest/hls_variant/index.m3u8", false},
		{"https://notyoutube.com/watch?v=abc", false},
		{"https://cdn.example/live.m3u8", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLivePage(tt.in), tt.in)
	}
}

func TestExtractManifestURL(t *testing.T) {
	page := `<script>var ytInitialPlayerResponse = {"streamingData":{"expiresInSeconds":"21540",` +
		`"hlsManifestUrl":"https:\/\/manifest.googlevideo.com\/api\/manifest\/hls_variant\/expire\/1\/id\/x\/file\/index.m3u8?a=1&b=2"},` +
		`"other":{"hlsManifestUrl":"https:\/\/second.example\/index.m3u8"}};</script>`

	got, ok := ExtractManifestURL(page)
	require.True(t, ok)
	assert.Equal(t, "https://manifest.googlevideo.com/api/manifest/hls_variant/expire/1/id/x/file/index.m3u8?a=1&b=2", got)

	_, ok = ExtractManifestURL(`<html>{"playabilityStatus":{"status":"LIVE_STREAM_OFFLINE"}}</html>`)
	assert.False(t, ok)

	_, ok = ExtractManifestURL(`"hlsManifestUrl":""`)
	assert.False(t, ok)
}

func TestResolve_NonLivePagePassesThroughWithoutFetch(t *testing.T) {
	f := &fakeFetcher{}
	r := New(f, Options{})

	got, err := r.Resolve(context.Background(), "https://cdn.example/live.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/live.m3u8", got)
	assert.Zero(t, f.calls.Load())
}

func TestResolve_LivePage(t *testing.T) {
	f := &fakeFetcher{body: `..."hlsManifestUrl":"https:\/\/m.example\/index.m3u8"...`}
	r := New(f, Options{UserAgent: "browser-ua"})

	got, err := r.Resolve(context.Background(), watchURL)
	require.NoError(t, err)
	assert.Equal(t, "https://m.example/index.m3u8", got)
	assert.Equal(t, "browser-ua", f.lastUA.Load())
}

func TestResolve_ExtractionError(t *testing.T) {
	r := New(&fakeFetcher{body: "<html>offline</html>"}, Options{})

	_, err := r.Resolve(context.Background(), watchURL)
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, watchURL, extractErr.PageURL)
	assert.Contains(t, err.Error(), "hlsManifestUrl")
}

func TestResolve_FetchErrorPropagates(t *testing.T) {
	fetchErr := &upstream.FetchError{URL: watchURL, StatusCode: http.StatusTooManyRequests}
	r := New(&fakeFetcher{err: fetchErr}, Options{})

	_, err := r.Resolve(context.Background(), watchURL)
	var fe *upstream.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
}

func TestResolve_ConcurrentLookupsShareOneFetch(t *testing.T) {
	f := &fakeFetcher{
		body:    `"hlsManifestUrl":"https://m.example/index.m3u8"`,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := f.started
	r := New(f, Options{})

	var g errgroup.Group
	results := make([]string, 5)
	g.Go(func() error {
		var err error
		results[0], err = r.Resolve(context.Background(), watchURL)
		return err
	})
	<-started
	for i := 1; i < len(results); i++ {
		g.Go(func() error {
			var err error
			results[i], err = r.Resolve(context.Background(), watchURL)
			return err
		})
	}
	time.Sleep(100 * time.Millisecond)
	close(f.release)

	require.NoError(t, g.Wait())
	for _, got := range results {
		assert.Equal(t, "https://m.example/index.m3u8", got)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestResolve_CallerCancellation(t *testing.T) {
	f := &fakeFetcher{release: make(chan struct{})}
	defer close(f.release)
	r := New(f, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, watchURL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_OverHTTP(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<script>{"hlsManifestUrl":"https:\/\/manifest.example\/index.m3u8"}</script>`))
	}))
	defer srv.Close()

	// Route the watch URL to the test server.
	client := srv.Client()
	client.Transport = rewriteHostTransport{target: srv.URL, next: client.Transport}
	r := New(upstream.NewFetcher(client, platformnet.HostPolicy{}), Options{UserAgent: "ua/1", RPS: 10})

	got, err := r.Resolve(context.Background(), watchURL)
	require.NoError(t, err)
	assert.Equal(t, "https://manifest.example/index.m3u8", got)
	assert.Equal(t, "ua/1", gotUA)
}

type rewriteHostTransport struct {
	target string
	next   http.RoundTripper
}

func (t rewriteHostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := *req.URL
	u.Scheme = "http"
	u.Host = t.target[len("http://"):]
	clone := req.Clone(req.Context())
	clone.URL = &u
	clone.Host = u.Host
	return t.next.RoundTrip(clone)
}
