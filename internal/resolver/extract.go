// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import (
	"encoding/json"
	"regexp"
)

// livePage matches YouTube watch, live and short-link URLs.
var livePage = regexp.MustCompile(`^https?://(?:(?:www|m)\.)?(?:` +
	`youtube\.com/(?:watch\?(?:[^#]*&)?v=[\w-]+|live/[\w-]+|@[\w.-]+/live/?|channel/[\w-]+/live/?|c/[\w.-]+/live/?)` +
	`|youtu\.be/[\w-]+)`)

var manifestField = regexp.MustCompile(`"hlsManifestUrl":"(.*?)"`)

// IsLivePage reports whether rawURL is a watch page the resolver scrapes.
func IsLivePage(rawURL string) bool {
	return livePage.MatchString(rawURL)
}

// ExtractManifestURL returns the first hlsManifestUrl value in page with its
// JSON string escaping undone.
func ExtractManifestURL(page string) (string, bool) {
	m := manifestField.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	var out string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &out); err != nil {
		return "", false
	}
	if out == "" {
		return "", false
	}
	return out, true
}
