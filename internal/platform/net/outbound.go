// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrOutboundNotAllowed indicates the URL did not match the allowlist.
var ErrOutboundNotAllowed = errors.New("outbound url not allowed")

// NormalizeHost validates and normalizes a host for comparison.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if strings.Contains(host, "://") {
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	}
	if strings.Contains(host, "/") {
		return "", fmt.Errorf("host must not include path: %s", raw)
	}
	if strings.Contains(host, "@") {
		return "", fmt.Errorf("host must not include userinfo: %s", raw)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if strings.Contains(host, ":") && net.ParseIP(host) == nil {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	if strings.Contains(host, "%") {
		return "", fmt.Errorf("host must not include zone: %s", raw)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(ip.String()), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

// HostPolicy restricts which origins the relay may contact. A zero policy
// allows every host.
type HostPolicy struct {
	allowed map[string]struct{}
}

// NewHostPolicy normalizes the allowlist once. An entry also admits its
// subdomains, so "googlevideo.com" covers "rr1---sn-x.googlevideo.com".
func NewHostPolicy(hosts []string) (HostPolicy, error) {
	if len(hosts) == 0 {
		return HostPolicy{}, nil
	}
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		normalized, err := NormalizeHost(h)
		if err != nil {
			return HostPolicy{}, err
		}
		allowed[normalized] = struct{}{}
	}
	return HostPolicy{allowed: allowed}, nil
}

// Restricted reports whether an allowlist is in effect.
func (p HostPolicy) Restricted() bool {
	return len(p.allowed) > 0
}

// Check returns ErrOutboundNotAllowed when u's host is outside the allowlist.
func (p HostPolicy) Check(u *url.URL) error {
	if !p.Restricted() {
		return nil
	}
	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutboundNotAllowed, err)
	}
	for candidate := host; candidate != ""; {
		if _, ok := p.allowed[candidate]; ok {
			return nil
		}
		if net.ParseIP(host) != nil {
			break
		}
		dot := strings.IndexByte(candidate, '.')
		if dot < 0 {
			break
		}
		candidate = candidate[dot+1:]
	}
	return fmt.Errorf("%w: %s", ErrOutboundNotAllowed, host)
}
