package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	err := NewFetch("10", "unexpected status", stderrors.New("status 500"))
	assert.Equal(t, "[fetch] 10: unexpected status - status 500", err.Error())

	err = NewCancelled("20", nil)
	assert.Equal(t, "[cancelled] 20: run cancelled", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewFetch("1", "reset", nil).IsRetryable())
	assert.False(t, NewFetchTimeout("1", time.Second, nil).IsRetryable())
	assert.False(t, NewRateLimit("1", time.Minute).IsRetryable())
	assert.False(t, NewMalformed("1", "empty body", nil).IsRetryable())
	assert.False(t, NewCatalog("missing", nil).IsRetryable())
}

func TestTypeOfWrapped(t *testing.T) {
	base := NewMalformed("7", "not html", nil)
	wrapped := fmt.Errorf("extract: %w", base)

	assert.Equal(t, ErrorTypeMalformed, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeMalformed))
	assert.False(t, Is(wrapped, ErrorTypeFetch))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := NewFetch("3", "request failed", cause)
	assert.ErrorIs(t, err, cause)
}
