package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeCatalog represents an unreadable or malformed catalog file
	ErrorTypeCatalog ErrorType = "catalog_unreadable"
	// ErrorTypeFetch represents network and HTTP status errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeFetchTimeout represents a fetch that exceeded its deadline
	ErrorTypeFetchTimeout ErrorType = "fetch_timeout"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeMalformed represents a page body that is not markup
	ErrorTypeMalformed ErrorType = "malformed_response"
	// ErrorTypeCancelled represents an entry dropped by run cancellation
	ErrorTypeCancelled ErrorType = "cancelled"
	// ErrorTypePublisher represents output sink errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type    ErrorType
	AppID   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.AppID, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.AppID, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeFetch:
		return true
	case ErrorTypeFetchTimeout, ErrorTypeRateLimit, ErrorTypeMalformed:
		return false
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, appID, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		AppID:   appID,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewCatalog creates a new catalog error
func NewCatalog(message string, err error) *CrawlerError {
	return New(ErrorTypeCatalog, "", message, err)
}

// NewFetch creates a new fetch error
func NewFetch(appID, message string, err error) *CrawlerError {
	return New(ErrorTypeFetch, appID, message, err)
}

// NewFetchTimeout creates a new fetch timeout error
func NewFetchTimeout(appID string, timeout time.Duration, err error) *CrawlerError {
	return New(ErrorTypeFetchTimeout, appID, fmt.Sprintf("no response within %v", timeout), err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(appID string, duration time.Duration) *CrawlerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, appID, message, nil)
}

// NewMalformed creates a new malformed response error
func NewMalformed(appID, message string, err error) *CrawlerError {
	return New(ErrorTypeMalformed, appID, message, err)
}

// NewCancelled creates a new cancellation error
func NewCancelled(appID string, err error) *CrawlerError {
	return New(ErrorTypeCancelled, appID, "run cancelled", err)
}

// NewPublisher creates a new publisher error
func NewPublisher(appID, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, appID, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first CrawlerError in err's chain,
// or an empty type when there is none.
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// Is reports whether err carries a CrawlerError of the given type.
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
