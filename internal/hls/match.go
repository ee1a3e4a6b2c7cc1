// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hls

import "regexp"

var urlToken = regexp.MustCompile(`https?://[^\s"]+`)

// FirstURLToken returns the first absolute http(s) URL in line, ending at
// the next quote or whitespace.
func FirstURLToken(line string) (string, bool) {
	loc := urlToken.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	return line[loc[0]:loc[1]], true
}

// replaceFirstURLToken swaps only the first URL token; everything else in
// line is kept byte for byte.
func replaceFirstURLToken(line string, replace func(token string) string) (string, bool) {
	loc := urlToken.FindStringIndex(line)
	if loc == nil {
		return line, false
	}
	return line[:loc[0]] + replace(line[loc[0]:loc[1]]) + line[loc[1]:], true
}
