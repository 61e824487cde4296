package publisher

import (
	"context"
	"errors"

	"sjsage522/steamcrawler/internal/crawler"
)

// Publisher represents an output sink for extracted game records
type Publisher interface {
	// Publish delivers a single record
	Publish(ctx context.Context, record crawler.GameRecord) error

	// Close flushes and releases the sink
	Close() error
}

// Trimmer is implemented by sinks that cap their size after a run
type Trimmer interface {
	TrimStreams(ctx context.Context) error
}

// Multi fans a record out to several sinks
type Multi []Publisher

// Publish delivers the record to every sink and joins their errors
func (m Multi) Publish(ctx context.Context, record crawler.GameRecord) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TrimStreams trims every sink that supports it
func (m Multi) TrimStreams(ctx context.Context) error {
	var errs []error
	for _, p := range m {
		if t, ok := p.(Trimmer); ok {
			if err := t.TrimStreams(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
