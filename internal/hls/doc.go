// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package hls rewrites HLS playlists so every embedded URI points back at the
// relay. It is pure text processing: fetching and response assembly live in
// package relay.
//
// Master and media playlists are told apart by scanning the whole document
// for "RESOLUTION=". That is a heuristic, not a parser.
package hls
