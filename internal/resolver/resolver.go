// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resolver turns live watch-page URLs into HLS manifest URLs by
// scraping the page once. Any other URL is returned untouched.
package resolver

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/hls"
	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/ManuGH/hlsrelay/internal/metrics"
	"github.com/ManuGH/hlsrelay/internal/upstream"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// PageFetcher retrieves a page body. *upstream.Fetcher satisfies it.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string, headers hls.Headers, defaults http.Header) (*upstream.Response, error)
}

// Options tunes a Resolver.
type Options struct {
	// UserAgent is sent with page requests. Watch pages served to unknown
	// agents omit the player config.
	UserAgent string
	// RPS throttles page fetches across all callers. Zero disables throttling.
	RPS float64
}

// Resolver is safe for concurrent use. Concurrent lookups of the same page
// share one request; results are not cached.
type Resolver struct {
	fetcher  PageFetcher
	defaults http.Header
	limiter  *rate.Limiter
	group    singleflight.Group
	logger   zerolog.Logger
}

// New builds a Resolver over fetcher.
func New(fetcher PageFetcher, opts Options) *Resolver {
	defaults := http.Header{}
	if opts.UserAgent != "" {
		defaults.Set("User-Agent", opts.UserAgent)
	}
	defaults.Set("Accept", "text/html,application/xhtml+xml")
	defaults.Set("Accept-Language", "en-US,en;q=0.9")

	r := &Resolver{
		fetcher:  fetcher,
		defaults: defaults,
		logger:   log.WithComponent("resolver"),
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return r
}

// Resolve returns the manifest URL behind rawURL when it is a live page, or
// rawURL itself otherwise. Page fetch failures are *upstream.FetchError; a
// page without a manifest is *ExtractionError.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if !IsLivePage(rawURL) {
		metrics.RecordResolve(metrics.ResolvePassthrough)
		return rawURL, nil
	}

	ch := r.group.DoChan(rawURL, func() (any, error) {
		// Shared by every waiter, so it must outlive any single caller.
		return r.scrape(context.WithoutCancel(ctx), rawURL)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			r.recordFailure(ctx, rawURL, res.Err)
			return "", res.Err
		}
		manifest := res.Val.(string)
		metrics.RecordResolve(metrics.ResolveResolved)
		logger := log.WithContext(ctx, r.logger)
		logger.Debug().
			Str(log.FieldEvent, "resolver.resolved").
			Str("page", rawURL).
			Bool("shared", res.Shared).
			Msg("resolved live page to manifest")
		return manifest, nil
	}
}

func (r *Resolver) scrape(ctx context.Context, pageURL string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := r.fetcher.Get(ctx, pageURL, nil, r.defaults)
	if err != nil {
		return "", err
	}

	manifest, ok := ExtractManifestURL(string(resp.Body))
	if !ok {
		return "", &ExtractionError{PageURL: pageURL, Reason: "no hlsManifestUrl on page (stream offline or not live)"}
	}
	return manifest, nil
}

func (r *Resolver) recordFailure(ctx context.Context, pageURL string, err error) {
	logger := log.WithContext(ctx, r.logger)
	var extractErr *ExtractionError
	if errors.As(err, &extractErr) {
		metrics.RecordResolve(metrics.ResolveExtractionError)
		logger.Warn().
			Str(log.FieldEvent, "resolver.no_manifest").
			Str("page", pageURL).
			Msg("live page has no manifest url")
		return
	}
	metrics.RecordResolve(metrics.ResolveFetchError)
	logger.Warn().
		Err(err).
		Str(log.FieldEvent, "resolver.fetch_failed").
		Str("page", pageURL).
		Msg("live page fetch failed")
}
