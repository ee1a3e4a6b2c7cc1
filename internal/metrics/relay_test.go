// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPlaylistRewrite(t *testing.T) {
	before := testutil.ToFloat64(PlaylistRewritesTotal.WithLabelValues(ResultOK, "master"))
	RecordPlaylistRewrite(ResultOK, true)
	assert.Equal(t, before+1, testutil.ToFloat64(PlaylistRewritesTotal.WithLabelValues(ResultOK, "master")))
}

func TestAddRewrittenLines_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(PlaylistLinesRewrittenTotal.WithLabelValues("segment"))
	AddRewrittenLines("segment", 0)
	AddRewrittenLines("segment", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(PlaylistLinesRewrittenTotal.WithLabelValues("segment")))
}

func TestSegmentStarted(t *testing.T) {
	inflight := testutil.ToFloat64(SegmentsInFlight)
	bytes := testutil.ToFloat64(SegmentBytesTotal)
	ok := testutil.ToFloat64(SegmentRelaysTotal.WithLabelValues(ResultOK))

	finish := SegmentStarted()
	assert.Equal(t, inflight+1, testutil.ToFloat64(SegmentsInFlight))

	finish(ResultOK, 188*7)
	assert.Equal(t, inflight, testutil.ToFloat64(SegmentsInFlight))
	assert.Equal(t, bytes+188*7, testutil.ToFloat64(SegmentBytesTotal))
	assert.Equal(t, ok+1, testutil.ToFloat64(SegmentRelaysTotal.WithLabelValues(ResultOK)))
}

func TestObservePlaylistFetch(t *testing.T) {
	before := testutil.CollectAndCount(PlaylistFetchDuration)
	ObservePlaylistFetch(120 * time.Millisecond)
	assert.Equal(t, before, testutil.CollectAndCount(PlaylistFetchDuration))
}

func TestRecordResolve(t *testing.T) {
	before := testutil.ToFloat64(ResolverLookupsTotal.WithLabelValues(ResolvePassthrough))
	RecordResolve(ResolvePassthrough)
	assert.Equal(t, before+1, testutil.ToFloat64(ResolverLookupsTotal.WithLabelValues(ResolvePassthrough)))
}
