// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hls

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Endpoint names a relay route that a rewritten URI points at.
type Endpoint string

const (
	// EndpointPlaylist serves nested playlists, rewritten again on fetch.
	EndpointPlaylist Endpoint = "hls-proxy"
	// EndpointSegment streams segments and keys byte for byte.
	EndpointSegment Endpoint = "seg"
)

// Query parameter names understood by both endpoints.
const (
	ParamURL     = "url"
	ParamHeaders = "headers"
)

// Headers is the caller-supplied header map forwarded to origins. It travels
// between requests inside the headers query parameter, so no server-side
// session is needed.
type Headers map[string]string

// ErrInvalidHeaders is returned when the headers parameter is not a JSON
// object of strings.
var ErrInvalidHeaders = errors.New("headers must be a JSON object of strings")

// EncodeHeaders renders h as compact JSON with keys in sorted order and
// without HTML escaping.
func EncodeHeaders(h Headers) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string(h)); err != nil {
		return "", fmt.Errorf("encode headers: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeHeaders parses the headers parameter. An empty string yields an
// empty, non-nil map.
func DecodeHeaders(raw string) (Headers, error) {
	if strings.TrimSpace(raw) == "" {
		return Headers{}, nil
	}
	var h map[string]string
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeaders, err)
	}
	if h == nil {
		return nil, ErrInvalidHeaders
	}
	return Headers(h), nil
}

// EncodeURIComponent escapes s the way browsers' encodeURIComponent does:
// only A-Z a-z 0-9 and -_.!~*'() are left as is.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return uriComponentFixup.Replace(escaped)
}

var uriComponentFixup = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// URLBuilder produces relay URLs for one rewrite. The encoded headers
// parameter is computed once and appended to every URL when non-empty.
type URLBuilder struct {
	base         string
	headersParam string
}

// NewURLBuilder returns a builder rooted at relayBase.
func NewURLBuilder(relayBase string, headers Headers) (URLBuilder, error) {
	b := URLBuilder{base: strings.TrimRight(relayBase, "/")}
	if len(headers) > 0 {
		encoded, err := EncodeHeaders(headers)
		if err != nil {
			return URLBuilder{}, err
		}
		b.headersParam = "&" + ParamHeaders + "=" + EncodeURIComponent(encoded)
	}
	return b, nil
}

// Build returns {base}/{endpoint}?url={target}[&headers={json}].
func (b URLBuilder) Build(endpoint Endpoint, target string) string {
	var sb strings.Builder
	sb.Grow(len(b.base) + len(endpoint) + len(target)*2 + len(b.headersParam) + 8)
	sb.WriteString(b.base)
	sb.WriteByte('/')
	sb.WriteString(string(endpoint))
	sb.WriteString("?" + ParamURL + "=")
	sb.WriteString(EncodeURIComponent(target))
	sb.WriteString(b.headersParam)
	return sb.String()
}
