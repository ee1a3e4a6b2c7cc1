// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/hls"
	"github.com/ManuGH/hlsrelay/internal/log"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
	"github.com/ManuGH/hlsrelay/internal/relay"
)

// URLResolver maps live pages to manifest URLs and returns other URLs as is.
type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// PlaylistRewriter produces rewritten playlists.
type PlaylistRewriter interface {
	Rewrite(ctx context.Context, rawURL string, headers hls.Headers) (*relay.PlaylistResponse, error)
}

// SegmentStreamer streams segments and keys.
type SegmentStreamer interface {
	Relay(w http.ResponseWriter, r *http.Request, target string, headers hls.Headers) (int64, error)
}

// Handlers serves the two relay endpoints.
type Handlers struct {
	resolver  URLResolver
	playlists PlaylistRewriter
	segments  SegmentStreamer
}

// NewHandlers wires the endpoint handlers. resolver may be nil, in which
// case playlist URLs are used as given.
func NewHandlers(resolver URLResolver, playlists PlaylistRewriter, segments SegmentStreamer) *Handlers {
	return &Handlers{resolver: resolver, playlists: playlists, segments: segments}
}

// HandlePlaylist serves GET /hls-proxy.
func (h *Handlers) HandlePlaylist(w http.ResponseWriter, r *http.Request) {
	params, err := parseRelayParams(r)
	if err != nil {
		logFailure(r, "playlist", "playlist.rejected", err)
		writeError(w, r, err)
		return
	}

	target := params.target
	if h.resolver != nil {
		// A live page that yields no manifest fails here; the page itself is
		// never fetched as a playlist.
		target, err = h.resolver.Resolve(r.Context(), params.target)
		if err != nil {
			logFailure(r, "playlist", "playlist.resolve_failed", err)
			writeError(w, r, err)
			return
		}
	}

	resp, err := h.playlists.Rewrite(r.Context(), target, params.headers)
	if err != nil {
		logFailure(r, "playlist", "playlist.failed", err)
		writeError(w, r, err)
		return
	}

	if err := resp.WriteTo(w); err != nil {
		logFailure(r, "playlist", "playlist.write_failed", err)
	}
}

// HandleSegment serves /seg for any method.
func (h *Handlers) HandleSegment(w http.ResponseWriter, r *http.Request) {
	params, err := parseRelayParams(r)
	if err != nil {
		logFailure(r, "segment", "segment.rejected", err)
		writeError(w, r, err)
		return
	}

	n, err := h.segments.Relay(w, r, params.target, params.headers)
	if err == nil {
		return
	}

	var mid *relay.MidStreamError
	if errors.As(err, &mid) {
		// The status line is gone; the client just sees a short body.
		logger := log.WithComponentFromContext(r.Context(), "segment")
		evt := logger.Warn()
		if relay.IsClientGone(err) || r.Context().Err() != nil {
			evt = logger.Debug()
		}
		evt.Err(mid.Err).
			Str(log.FieldEvent, "segment.aborted").
			Str(log.FieldTarget, platformnet.SanitizeURL(params.target)).
			Int64(log.FieldBytes, n).
			Msg("segment stream ended early")
		return
	}

	logFailure(r, "segment", "segment.failed", err)
	writeError(w, r, err)
}
