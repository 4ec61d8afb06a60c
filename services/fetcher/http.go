package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pricewatch/helpers"
	"pricewatch/services/cache"
)

// HTTPFetcher implements PageFetcher with a plain HTTP GET. Hosts that answer
// with a blocked response go on cooldown in the cache and fail fast until the
// cooldown lapses.
type HTTPFetcher struct {
	client    *http.Client
	cacheSvc  cache.CacheService
	blockTime time.Duration
}

var _ PageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a new HTTP fetcher. cacheSvc may be nil to disable
// the blocked-host cooldown.
func NewHTTPFetcher(timeout time.Duration, cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
	}
}

// Fetch retrieves the page markup for pageURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL, userAgent string) (string, error) {
	blockKey := cooldownKey(pageURL)
	if f.cacheSvc != nil && blockKey != "" {
		if _, err := f.cacheSvc.Get(blockKey); err == nil {
			return "", blocked(fmt.Sprintf("host on cooldown for %ds", int(f.blockTime/time.Second)))
		}
	}

	body, status, err := helpers.FetchHTML(ctx, f.client, pageURL, userAgent)
	if err != nil {
		return "", classify("", err)
	}

	if status < 200 || status > 299 {
		if f.cacheSvc != nil && blockKey != "" {
			f.cacheSvc.Set(blockKey, []byte(fmt.Sprintf("%d", status)), f.blockTime)
		}
		return "", blocked(fmt.Sprintf("unexpected status code: %d", status))
	}

	return string(body), nil
}

// cooldownKey derives the cache key for a URL's host.
func cooldownKey(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return "block_" + u.Host
}
