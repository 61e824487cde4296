package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"sjsage522/steamcrawler/helpers"
	"sjsage522/steamcrawler/logger"
	crawlerrors "sjsage522/steamcrawler/pkg/errors"
	"sjsage522/steamcrawler/services/cache"
)

// PageFetcher retrieves the body of a detail page
type PageFetcher interface {
	Fetch(ctx context.Context, req *CrawlRequest) (io.Reader, error)
}

// HTTPFetcher fetches pages over HTTP with a per-request timeout. When a
// cache is configured, a 429 from the target blocks further requests to
// that host for BlockTime.
type HTTPFetcher struct {
	Client    *http.Client
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Timeout   time.Duration
}

// NewHTTPFetcher creates a fetcher; cacheSvc may be nil
func NewHTTPFetcher(timeout, blockTime time.Duration, cacheSvc cache.CacheService) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    helpers.DefaultClient,
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
		Timeout:   timeout,
	}
}

// Fetch performs the GET for req, classifying failures as rate limit,
// timeout or generic fetch errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *CrawlRequest) (io.Reader, error) {
	cacheKey := rateLimitKey(req.URL)

	// Check if the host is rate limited
	if f.CacheSvc != nil {
		if _, err := f.CacheSvc.Get(cacheKey); err == nil {
			return nil, crawlerrors.NewRateLimit(req.AppID, f.BlockTime)
		}
	}

	fetchCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var cookies []*http.Cookie
	if req.Session != nil {
		cookies = req.Session.Cookies()
	}

	body, err := helpers.FetchWithCookies(fetchCtx, f.Client, req.URL, cookies)
	if err == nil {
		return body, nil
	}

	var rateErr *helpers.RateLimitedError
	if errors.As(err, &rateErr) {
		if f.CacheSvc != nil && f.BlockTime > 0 {
			value := []byte(fmt.Sprintf("%d", f.BlockTime/time.Second))
			if setErr := f.CacheSvc.Set(cacheKey, value, f.BlockTime); setErr != nil {
				logger.ForCache().Warn().Err(setErr).Str("key", cacheKey).Msg("Failed to set rate limit block")
			}
		}
		return nil, crawlerrors.NewRateLimit(req.AppID, f.BlockTime)
	}

	if isTimeout(err) && ctx.Err() == nil {
		return nil, crawlerrors.NewFetchTimeout(req.AppID, f.Timeout, err)
	}

	return nil, crawlerrors.NewFetch(req.AppID, "request failed", err)
}

// rateLimitKey builds the cache key that blocks a host
func rateLimitKey(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return "steam_rate_limited:" + host
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
