// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hls

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// variantState is the only state carried between lines: whether the previous
// non-blank line was an #EXT-X-STREAM-INF whose URI is still to come.
type variantState int

const (
	stateIdle variantState = iota
	stateAwaitingVariantURI
)

// Stats counts what a rewrite touched.
type Stats struct {
	Lines     int
	Keys      int
	Audio     int
	Variants  int
	Segments  int
	Unchanged int
}

// Result is a completed rewrite.
type Result struct {
	Body      string
	Master    bool
	Truncated bool // input continued after #EXT-X-ENDLIST
	Stats     Stats
}

// Rewriter rewrites one playlist document. It is immutable once built and
// safe for concurrent use, though each request normally builds its own.
type Rewriter struct {
	source *url.URL
	urls   URLBuilder
}

// NewRewriter binds the playlist's own URL (for resolving relative URIs), the
// relay base and the forwarded headers.
func NewRewriter(sourceURL, relayBase string, headers Headers) (*Rewriter, error) {
	src, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse playlist url: %w", err)
	}
	if !src.IsAbs() {
		return nil, fmt.Errorf("playlist url must be absolute: %q", sourceURL)
	}
	urls, err := NewURLBuilder(relayBase, headers)
	if err != nil {
		return nil, err
	}
	return &Rewriter{source: src, urls: urls}, nil
}

// Rewrite processes doc line by line and returns the rewritten playlist.
// Lines are split on '\n'; a trailing '\r' is dropped from each line.
func (r *Rewriter) Rewrite(doc string) Result {
	res := Result{Master: IsMaster(doc)}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	lines := strings.Split(doc, "\n")
	state := stateIdle
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")

		out, next, outcome, stop := r.rewriteLine(line, state, res.Master)
		state = next

		if i > 0 {
			_ = buf.WriteByte('\n')
		}
		_, _ = buf.WriteString(out)
		res.Stats.Lines++
		res.Stats.record(outcome, out == line)

		if stop {
			res.Truncated = hasContent(lines[i+1:])
			break
		}
	}

	res.Body = buf.String()
	return res
}

type lineOutcome int

const (
	outcomeUnchanged lineOutcome = iota
	outcomeKey
	outcomeAudio
	outcomeVariant
	outcomeSegment
)

func (s *Stats) record(o lineOutcome, unchanged bool) {
	if unchanged {
		s.Unchanged++
		return
	}
	switch o {
	case outcomeKey:
		s.Keys++
	case outcomeAudio:
		s.Audio++
	case outcomeVariant:
		s.Variants++
	case outcomeSegment:
		s.Segments++
	}
}

// rewriteLine applies the per-line rules in priority order. stop is true once
// #EXT-X-ENDLIST has been emitted.
func (r *Rewriter) rewriteLine(line string, state variantState, isMaster bool) (out string, next variantState, o lineOutcome, stop bool) {
	kind := Classify(line, isMaster)

	switch kind {
	case EndListTag:
		return line, state, outcomeUnchanged, true
	case KeyTag:
		out, _ = replaceFirstURLToken(line, func(token string) string {
			return r.urls.Build(EndpointSegment, token)
		})
		return out, state, outcomeKey, false
	case AudioMediaTag:
		out, _ = replaceFirstURLToken(line, func(token string) string {
			return r.urls.Build(EndpointPlaylist, token)
		})
		return out, state, outcomeAudio, false
	case StreamInfTag:
		return line, stateAwaitingVariantURI, outcomeUnchanged, false
	}

	if state == stateAwaitingVariantURI && !isBlank(line) {
		target, ok := r.resolve(line)
		if !ok {
			return line, stateIdle, outcomeUnchanged, false
		}
		endpoint := EndpointSegment
		if strings.HasSuffix(target.Path, ".m3u8") {
			endpoint = EndpointPlaylist
		}
		return r.urls.Build(endpoint, target.String()), stateIdle, outcomeVariant, false
	}

	if kind == URILine {
		target, ok := r.resolve(line)
		if !ok {
			return line, state, outcomeUnchanged, false
		}
		return r.urls.Build(EndpointSegment, target.String()), state, outcomeSegment, false
	}

	return line, state, outcomeUnchanged, false
}

// resolve interprets line as a URI reference relative to the playlist URL.
func (r *Rewriter) resolve(line string) (*url.URL, bool) {
	raw := strings.TrimSpace(line)
	ref, err := url.Parse(raw)
	if err != nil {
		if ref, err = url.Parse(escapeLenient(raw)); err != nil {
			return nil, false
		}
	}
	return r.source.ResolveReference(ref), true
}

const upperHex = "0123456789ABCDEF"

// escapeLenient percent-encodes what browsers tolerate in a URL but
// url.Parse rejects: a '%' not followed by two hex digits, and C0 control
// bytes. Tabs and line breaks are dropped.
func escapeLenient(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\t' || c == '\n' || c == '\r':
		case c == '%' && !(i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])):
			b.WriteString("%25")
		case c < 0x20 || c == 0x7f:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if !isBlank(l) {
			return true
		}
	}
	return false
}
