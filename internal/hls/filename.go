// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hls

import (
	"net/url"
	"path"
	"strings"
)

const (
	FallbackPlaylistFilename = "streamResponse.hls"
	FallbackSegmentFilename  = "segmentResponse.ts"
)

// PlaylistFilename is the Content-Disposition name for a rewritten playlist.
func PlaylistFilename(rawURL string) string {
	return lastSegmentWithSuffix(rawURL, ".m3u8", FallbackPlaylistFilename)
}

// SegmentFilename is the Content-Disposition name for a relayed segment.
func SegmentFilename(rawURL string) string {
	return lastSegmentWithSuffix(rawURL, ".ts", FallbackSegmentFilename)
}

func lastSegmentWithSuffix(rawURL, suffix, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return fallback
	}
	name := path.Base(u.Path)
	if !strings.HasSuffix(name, suffix) || !safeFilename(name) {
		return fallback
	}
	return name
}

// safeFilename rejects names that would break the quoted header value.
func safeFilename(name string) bool {
	for _, r := range name {
		if r < 0x20 || r == 0x7f || r == '"' || r == '\\' {
			return false
		}
	}
	return true
}
