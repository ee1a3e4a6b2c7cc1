// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package relay fetches playlists for rewriting and streams segments and keys
// from origins to clients. Every response it shapes carries permissive CORS
// headers and a Content-Disposition filename, with origin CDN and CORS echo
// headers removed.
package relay
