package crawler

import (
	"strings"

	"sjsage522/steamcrawler/internal/catalog"
)

// bundlePath marks multi-product packages, which are not tracked
const bundlePath = "/sub/"

// RequestBuilder turns catalog entries into detail page requests
type RequestBuilder struct {
	BaseURL string
	Session *SessionContext
}

// NewRequestBuilder creates a request builder for the given base path
func NewRequestBuilder(baseURL string, session *SessionContext) *RequestBuilder {
	if session == nil {
		session = DefaultSessionContext()
	}
	return &RequestBuilder{BaseURL: baseURL, Session: session}
}

// DetailURL derives the detail page URL for an identifier
func (b *RequestBuilder) DetailURL(entry catalog.Entry) string {
	return b.BaseURL + string(entry)
}

// IsBundle reports whether a derived URL points at a bundle page
func IsBundle(url string) bool {
	return strings.Index(url, bundlePath) > 0
}

// Build constructs the request for entry. The second return value is false
// when the entry resolves to a bundle and must be skipped.
func (b *RequestBuilder) Build(entry catalog.Entry) (*CrawlRequest, bool) {
	url := b.DetailURL(entry)
	if IsBundle(url) {
		return nil, false
	}
	return &CrawlRequest{
		AppID:   string(entry),
		URL:     url,
		Session: b.Session,
	}, true
}
