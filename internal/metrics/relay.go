// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus collectors for the relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels.
const (
	ResultOK             = "ok"
	ResultFetchError     = "fetch_error"
	ResultEstablishError = "establish_error"
	ResultMidStreamError = "mid_stream_error"
	ResultCanceled       = "canceled"
)

// Resolver outcome labels.
const (
	ResolvePassthrough     = "passthrough"
	ResolveResolved        = "resolved"
	ResolveExtractionError = "extraction_error"
	ResolveFetchError      = "fetch_error"
)

var (
	// PlaylistRewritesTotal counts playlist rewrites by outcome.
	PlaylistRewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsrelay_playlist_rewrites_total",
		Help: "Playlist rewrite attempts by result and playlist type",
	}, []string{"result", "type"})

	// PlaylistLinesRewrittenTotal counts rewritten lines by what they referenced.
	PlaylistLinesRewrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsrelay_playlist_lines_rewritten_total",
		Help: "Playlist lines rewritten to relay URLs",
	}, []string{"kind"})

	// PlaylistFetchDuration tracks origin playlist fetch latency.
	PlaylistFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hlsrelay_playlist_fetch_duration_seconds",
		Help:    "Time to fetch a playlist from its origin",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// SegmentRelaysTotal counts segment/key relays by outcome.
	SegmentRelaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsrelay_segment_relays_total",
		Help: "Segment and key relays by result",
	}, []string{"result"})

	// SegmentBytesTotal counts bytes streamed to clients.
	SegmentBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlsrelay_segment_bytes_total",
		Help: "Bytes relayed from origins to clients",
	})

	// SegmentsInFlight is the number of relays currently streaming.
	SegmentsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hlsrelay_segments_in_flight",
		Help: "Segment relays currently in progress",
	})

	// ResolverLookupsTotal counts URL resolutions by outcome.
	ResolverLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsrelay_resolver_lookups_total",
		Help: "Live page resolutions by result",
	}, []string{"result"})
)

// RecordPlaylistRewrite records one rewrite outcome.
func RecordPlaylistRewrite(result string, master bool) {
	kind := "media"
	if master {
		kind = "master"
	}
	PlaylistRewritesTotal.WithLabelValues(result, kind).Inc()
}

// AddRewrittenLines adds n rewritten lines of the given kind.
func AddRewrittenLines(kind string, n int) {
	if n <= 0 {
		return
	}
	PlaylistLinesRewrittenTotal.WithLabelValues(kind).Add(float64(n))
}

// ObservePlaylistFetch records the origin fetch latency.
func ObservePlaylistFetch(d time.Duration) {
	PlaylistFetchDuration.Observe(d.Seconds())
}

// SegmentStarted marks a relay as in flight and returns the matching finish func.
func SegmentStarted() func(result string, bytes int64) {
	SegmentsInFlight.Inc()
	return func(result string, bytes int64) {
		SegmentsInFlight.Dec()
		SegmentRelaysTotal.WithLabelValues(result).Inc()
		if bytes > 0 {
			SegmentBytesTotal.Add(float64(bytes))
		}
	}
}

// RecordResolve records one resolver outcome.
func RecordResolve(result string) {
	ResolverLookupsTotal.WithLabelValues(result).Inc()
}
