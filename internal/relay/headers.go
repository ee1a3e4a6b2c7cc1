// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

import (
	"net/http"
	"strings"

	"github.com/ManuGH/hlsrelay/internal/config"
)

const (
	ContentTypePlaylist = "application/vnd.apple.mpegurl"
	ContentTypeSegment  = "video/mp2t"
)

// blacklistedResponseHeaders are removed from every relay response before
// the relay's own CORS and content headers are set.
var blacklistedResponseHeaders = []string{
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Max-Age",
	"Access-Control-Allow-Credentials",
	"Access-Control-Expose-Headers",
	"Access-Control-Request-Method",
	"Access-Control-Request-Headers",
	"Origin",
	"Vary",
	"Referer",
	"Server",
	"X-Cache",
	"Via",
	"X-Amz-Cf-Pop",
	"X-Amz-Cf-Id",
}

// hopByHopHeaders never cross a proxy (RFC 9110 section 7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// ApplyResponseHeaders strips the blacklist from h, then sets the content
// type, permissive CORS and an inline disposition for filename.
func ApplyResponseHeaders(h http.Header, contentType, filename string) {
	for _, name := range blacklistedResponseHeaders {
		h.Del(name)
	}
	h.Set("Content-Type", contentType)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Allow-Methods", "*")
	h.Set("Content-Disposition", `inline; filename="`+filename+`"`)
}

// copyUpstreamHeaders copies src into dst minus hop-by-hop headers and any
// header named by src's Connection field.
func copyUpstreamHeaders(dst, src http.Header) {
	skip := make(map[string]struct{}, len(hopByHopHeaders))
	for _, name := range hopByHopHeaders {
		skip[name] = struct{}{}
	}
	for _, field := range src.Values("Connection") {
		for _, name := range splitTokens(field) {
			skip[http.CanonicalHeaderKey(name)] = struct{}{}
		}
	}
	for name, values := range src {
		if _, ok := skip[http.CanonicalHeaderKey(name)]; ok {
			continue
		}
		dst[name] = append([]string(nil), values...)
	}
}

func splitTokens(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// defaultSegmentHeaders are sent with every segment request unless the
// caller forwards a header of the same name.
func defaultSegmentHeaders(cfg config.UpstreamConfig) http.Header {
	h := http.Header{}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	ref := cfg.Referer
	if ref == "" {
		ref = config.DefaultReferer
	}
	h.Set("User-Agent", ua)
	h.Set("Referer", ref)
	return h
}
