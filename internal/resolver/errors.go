// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import "fmt"

// ExtractionError means a live page was fetched but carried no manifest URL.
// Callers must not fall back to treating the page as a playlist.
type ExtractionError struct {
	PageURL string
	Reason  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("resolve %s: %s", e.PageURL, e.Reason)
}
