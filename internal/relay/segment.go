// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ManuGH/hlsrelay/internal/config"
	"github.com/ManuGH/hlsrelay/internal/hls"
	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/ManuGH/hlsrelay/internal/metrics"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
	"github.com/ManuGH/hlsrelay/internal/telemetry"
	"github.com/ManuGH/hlsrelay/internal/upstream"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tsPacketSize = 188
	// copyBufferSize holds whole TS packets and stays near 32 KiB. Only one
	// chunk per relay is ever held in memory.
	copyBufferSize = tsPacketSize * 176
)

// SegmentRelay streams segments and keys from origins.
type SegmentRelay struct {
	client   *http.Client
	policy   platformnet.HostPolicy
	defaults http.Header
	logger   zerolog.Logger
}

// NewSegmentRelay builds a relay. client should have no total timeout; the
// inbound request context bounds each relay instead.
func NewSegmentRelay(client *http.Client, policy platformnet.HostPolicy, cfg config.UpstreamConfig) *SegmentRelay {
	return &SegmentRelay{
		client:   client,
		policy:   policy,
		defaults: defaultSegmentHeaders(cfg),
		logger:   log.WithComponent("segment"),
	}
}

// Relay proxies r to target and streams the answer into w. The caller's
// method and body are reused. Errors before any byte is written are
// *RelayEstablishError and leave w untouched; later ones are *MidStreamError.
func (s *SegmentRelay) Relay(w http.ResponseWriter, r *http.Request, target string, headers hls.Headers) (written int64, err error) {
	ctx, span := telemetry.Tracer(tracerName).Start(r.Context(), "segment.relay",
		trace.WithAttributes(telemetry.RelayAttributes(string(hls.EndpointSegment), platformnet.SanitizeURL(target))...))
	defer span.End()

	finish := metrics.SegmentStarted()
	defer func() {
		result := segmentResult(ctx, err)
		finish(result, written)
		span.SetAttributes(attribute.Int64(telemetry.RelayBytesKey, written))
		if err != nil {
			span.SetAttributes(telemetry.ErrorAttributes(result)...)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	resp, err := s.open(ctx, r, target, headers)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	h := w.Header()
	copyUpstreamHeaders(h, resp.Header)
	ApplyResponseHeaders(h, ContentTypeSegment, hls.SegmentFilename(target))
	w.WriteHeader(resp.StatusCode)
	span.SetAttributes(attribute.Int(telemetry.UpstreamStatusKey, resp.StatusCode))

	written, err = copyWithFlush(w, resp.Body)
	if err != nil {
		return written, &MidStreamError{URL: target, Written: written, Err: err}
	}

	logger := log.WithContext(ctx, s.logger)
	logger.Debug().
		Str(log.FieldEvent, "segment.relayed").
		Str(log.FieldTarget, platformnet.SanitizeURL(target)).
		Int(log.FieldStatus, resp.StatusCode).
		Int64(log.FieldBytes, written).
		Msg("segment relayed")
	return written, nil
}

func (s *SegmentRelay) open(ctx context.Context, r *http.Request, target string, headers hls.Headers) (*http.Response, error) {
	u, ok := platformnet.ParseDirectHTTPURL(target)
	if !ok {
		return nil, &RelayEstablishError{URL: target, Err: fmt.Errorf("unsupported url %q", platformnet.SanitizeURL(target))}
	}
	if err := s.policy.Check(u); err != nil {
		return nil, &RelayEstablishError{URL: target, Err: err}
	}

	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, &RelayEstablishError{URL: target, Err: err}
	}
	if body != nil {
		req.ContentLength = r.ContentLength
		if ct := r.Header.Get("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}
	for name, values := range s.defaults {
		req.Header[name] = append([]string(nil), values...)
	}
	upstream.ApplyForwardedHeaders(req, headers)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RelayEstablishError{URL: target, Err: err}
	}
	return resp, nil
}

// copyWithFlush moves src to w one chunk at a time, flushing after every
// write so the next upstream read waits on the client.
func copyWithFlush(w http.ResponseWriter, src io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, copyBufferSize)

	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			m, writeErr := w.Write(buf[:n])
			total += int64(m)
			if writeErr != nil {
				return total, writeErr
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return total, err
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

// isExpectedStreamError reports errors caused by the client going away.
func isExpectedStreamError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "client disconnected")
}

func segmentResult(ctx context.Context, err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	if ctx.Err() != nil || isExpectedStreamError(err) {
		return metrics.ResultCanceled
	}
	var mid *MidStreamError
	if errors.As(err, &mid) {
		return metrics.ResultMidStreamError
	}
	return metrics.ResultEstablishError
}

// IsClientGone reports whether err only reflects a disconnected client.
func IsClientGone(err error) bool {
	return isExpectedStreamError(err)
}
