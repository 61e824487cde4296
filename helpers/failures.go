package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/steamcrawler/logger"
)

// FailureRecorder records entries that ended without producing a record
type FailureRecorder interface {
	RecordFailure(appID, url string, err error)
}

// FailureLog appends one line per failed entry to a list file
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog creates a failure log writing to path
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// RecordFailure appends the app id, url and error with a timestamp
func (l *FailureLog) RecordFailure(appID, url string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.ForDriver().Warn().Err(fileErr).Str("path", l.path).Str("app_id", appID).Msg("Failed to open failure list")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if _, writeErr := fmt.Fprintf(f, "[%s] [%s] %s %v\n", timestamp, appID, url, err); writeErr != nil {
		logger.ForDriver().Warn().Err(writeErr).Str("path", l.path).Str("app_id", appID).Msg("Failed to write failure list")
	}
}
