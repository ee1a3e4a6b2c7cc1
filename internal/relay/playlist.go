// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/hlsrelay/internal/hls"
	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/ManuGH/hlsrelay/internal/metrics"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
	"github.com/ManuGH/hlsrelay/internal/telemetry"
	"github.com/ManuGH/hlsrelay/internal/upstream"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "hlsrelay/relay"

// PlaylistFetcher retrieves a playlist document. *upstream.Fetcher satisfies it.
type PlaylistFetcher interface {
	Get(ctx context.Context, rawURL string, headers hls.Headers, defaults http.Header) (*upstream.Response, error)
}

// PlaylistResponse is a rewritten playlist ready to be written.
type PlaylistResponse struct {
	Body     []byte
	Filename string
	Master   bool
}

// WriteTo applies the playlist headers to w and writes the body.
func (p *PlaylistResponse) WriteTo(w http.ResponseWriter) error {
	ApplyResponseHeaders(w.Header(), ContentTypePlaylist, p.Filename)
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(p.Body)
	return err
}

// PlaylistService fetches playlists and rewrites them to point at relayBase.
type PlaylistService struct {
	fetcher   PlaylistFetcher
	relayBase string
	logger    zerolog.Logger
}

// NewPlaylistService builds a service. relayBase is the public URL of this relay.
func NewPlaylistService(fetcher PlaylistFetcher, relayBase string) *PlaylistService {
	return &PlaylistService{
		fetcher:   fetcher,
		relayBase: relayBase,
		logger:    log.WithComponent("playlist"),
	}
}

// Rewrite fetches rawURL with headers and returns the rewritten document.
// It either succeeds completely or returns an error before producing output;
// fetch failures are *UpstreamFetchError.
func (s *PlaylistService) Rewrite(ctx context.Context, rawURL string, headers hls.Headers) (*PlaylistResponse, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "playlist.rewrite",
		trace.WithAttributes(telemetry.RelayAttributes(string(hls.EndpointPlaylist), platformnet.SanitizeURL(rawURL))...))
	defer span.End()

	rw, err := hls.NewRewriter(rawURL, s.relayBase, headers)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &UpstreamFetchError{URL: rawURL, Err: err}
	}

	start := time.Now()
	resp, err := s.fetcher.Get(ctx, rawURL, headers, nil)
	metrics.ObservePlaylistFetch(time.Since(start))
	if err != nil {
		metrics.RecordPlaylistRewrite(metrics.ResultFetchError, false)
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(metrics.ResultFetchError)...)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	res := rw.Rewrite(string(resp.Body))

	metrics.RecordPlaylistRewrite(metrics.ResultOK, res.Master)
	metrics.AddRewrittenLines("key", res.Stats.Keys)
	metrics.AddRewrittenLines("audio", res.Stats.Audio)
	metrics.AddRewrittenLines("variant", res.Stats.Variants)
	metrics.AddRewrittenLines("segment", res.Stats.Segments)

	span.SetAttributes(telemetry.PlaylistAttributes(res.Master, res.Stats.Lines, res.Truncated)...)

	logger := log.WithContext(ctx, s.logger)
	logger.Debug().
		Str(log.FieldEvent, "playlist.rewritten").
		Bool(log.FieldMaster, res.Master).
		Int(log.FieldLines, res.Stats.Lines).
		Int("segments", res.Stats.Segments).
		Int("variants", res.Stats.Variants).
		Bool("truncated", res.Truncated).
		Msg("playlist rewritten")

	return &PlaylistResponse{
		Body:     []byte(res.Body),
		Filename: hls.PlaylistFilename(rawURL),
		Master:   res.Master,
	}, nil
}
