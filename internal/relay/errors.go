// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

import (
	"fmt"

	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
	"github.com/ManuGH/hlsrelay/internal/upstream"
)

// UpstreamFetchError is a failed playlist fetch.
type UpstreamFetchError = upstream.FetchError

// RelayEstablishError means the upstream exchange for a segment could not be
// started. Nothing has been written to the client yet.
type RelayEstablishError struct {
	URL string
	Err error
}

func (e *RelayEstablishError) Error() string {
	return fmt.Sprintf("relay %s: %v", platformnet.SanitizeURL(e.URL), e.Err)
}

func (e *RelayEstablishError) Unwrap() error { return e.Err }

// MidStreamError means streaming failed after the status line was sent. The
// client sees a short body; the error is for logging only.
type MidStreamError struct {
	URL     string
	Written int64
	Err     error
}

func (e *MidStreamError) Error() string {
	return fmt.Sprintf("relay %s: stream aborted after %d bytes: %v", platformnet.SanitizeURL(e.URL), e.Written, e.Err)
}

func (e *MidStreamError) Unwrap() error { return e.Err }
