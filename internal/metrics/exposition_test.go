// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/hlsrelay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestPromhttpExposure(t *testing.T) {
	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	metrics.RecordPlaylistRewrite(metrics.ResultOK, false)
	metrics.RecordResolve(metrics.ResolveResolved)
	metrics.SegmentStarted()(metrics.ResultCanceled, 0)

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	output := string(body)

	for _, want := range []string{
		`hlsrelay_playlist_rewrites_total{result="ok",type="media"}`,
		`hlsrelay_resolver_lookups_total{result="resolved"}`,
		`hlsrelay_segment_relays_total{result="canceled"}`,
		"hlsrelay_segments_in_flight",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in /metrics output", want)
		}
	}
}

func TestResultLabelsAreDistinct(t *testing.T) {
	labels := []string{
		metrics.ResultOK,
		metrics.ResultFetchError,
		metrics.ResultEstablishError,
		metrics.ResultMidStreamError,
		metrics.ResultCanceled,
	}
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate result label %q", l)
		}
		seen[l] = true
	}

	// Scrape through a recorder as well, like a sidecar would.
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
