package crawler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sjsage522/steamcrawler/internal/catalog"
	crawlerrors "sjsage522/steamcrawler/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(t *testing.T, baseURL string, id string) *CrawlRequest {
	t.Helper()
	req, ok := NewRequestBuilder(baseURL+"/app/", nil).Build(catalog.Entry(id))
	require.True(t, ok)
	return req
}

func TestHTTPFetcherSendsSessionCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app/10", r.URL.Path)
		for name, expected := range map[string]string{
			"wants_mature_content": "1",
			"birthtime":            "189302401",
			"lastagecheckage":      "1-January-1976",
		} {
			cookie, err := r.Cookie(name)
			if assert.NoError(t, err, name) {
				assert.Equal(t, expected, cookie.Value)
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(fullPage))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(time.Second, time.Minute, nil)
	body, err := fetcher.Fetch(context.Background(), newTestRequest(t, server.URL, "10"))
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apphub_AppName")
}

func TestHTTPFetcherRateLimitBlocksHost(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	fetcher := NewHTTPFetcher(time.Second, time.Minute, mockCache)

	_, err := fetcher.Fetch(context.Background(), newTestRequest(t, server.URL, "10"))
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeRateLimit))
	assert.Len(t, mockCache.cache, 1)

	// Blocked: the server is not contacted again
	_, err = fetcher.Fetch(context.Background(), newTestRequest(t, server.URL, "20"))
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeRateLimit))
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPFetcherTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(50*time.Millisecond, time.Minute, nil)
	_, err := fetcher.Fetch(context.Background(), newTestRequest(t, server.URL, "10"))
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeFetchTimeout), "got %v", err)
}

func TestHTTPFetcherStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(time.Second, time.Minute, NewMockCacheService())
	_, err := fetcher.Fetch(context.Background(), newTestRequest(t, server.URL, "10"))
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeFetch))
	assert.Contains(t, err.Error(), "503")
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "steam_rate_limited:store.steampowered.com", rateLimitKey("https://store.steampowered.com/app/10"))
}
