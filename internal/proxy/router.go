// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/control/http/problem"
	"github.com/ManuGH/hlsrelay/internal/control/middleware"
	"github.com/ManuGH/hlsrelay/internal/health"
	"github.com/ManuGH/hlsrelay/internal/hls"
)

// NewRouter mounts the relay endpoints behind the ingress middleware stack.
// health may be nil.
func NewRouter(h *Handlers, hm *health.Manager, stack middleware.StackConfig) http.Handler {
	r := middleware.NewRouter(stack)

	r.Get("/"+string(hls.EndpointPlaylist), h.HandlePlaylist)
	r.HandleFunc("/"+string(hls.EndpointSegment), h.HandleSegment)

	if hm != nil {
		r.Get("/healthz", hm.ServeHealth)
		r.Get("/readyz", hm.ServeReady)
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		problem.Write(w, req, http.StatusMethodNotAllowed, problem.TypeMethodNotAllowed, "Method Not Allowed", "METHOD_NOT_ALLOWED",
			req.Method+" is not supported on "+req.URL.Path, nil)
	})

	return r
}
