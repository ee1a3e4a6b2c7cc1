// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/control/http/problem"
	"github.com/ManuGH/hlsrelay/internal/log"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
)

// errBadRequest is a malformed relay request.
type errBadRequest struct {
	code   string
	detail string
}

func (e *errBadRequest) Error() string { return e.detail }

// writeError maps err to a response. Relay failures keep the plain-text
// message body players and scripts already parse; input and policy errors
// use problem details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var badReq *errBadRequest
	switch {
	case errors.As(err, &badReq):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeInvalidInput, "Bad Request", badReq.code, badReq.detail, nil)
	case errors.Is(err, platformnet.ErrOutboundNotAllowed):
		problem.Write(w, r, http.StatusForbidden, problem.TypeOutboundDenied, "Forbidden", "OUTBOUND_DENIED",
			"the target host is not on the relay's allow-list", nil)
	default:
		// *resolver.ExtractionError, *relay.UpstreamFetchError and
		// *relay.RelayEstablishError all land here.
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// logFailure logs a relay failure at a level matching its cause.
func logFailure(r *http.Request, component, event string, err error) {
	logger := log.WithComponentFromContext(r.Context(), component)
	var badReq *errBadRequest
	switch {
	case errors.As(err, &badReq):
		logger.Debug().Str(log.FieldEvent, event).Str("code", badReq.code).Msg("rejected relay request")
	case errors.Is(err, context.Canceled), r.Context().Err() != nil:
		logger.Debug().Err(err).Str(log.FieldEvent, event).Msg("client went away")
	default:
		logger.Warn().Err(err).Str(log.FieldEvent, event).Msg("relay request failed")
	}
}
