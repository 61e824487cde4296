package publisher

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"sjsage522/steamcrawler/internal/crawler"
)

// JSONLPublisher writes one JSON object per line
type JSONLPublisher struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONLFile opens (appending) path as a JSON lines sink
func NewJSONLFile(path string) (*JSONLPublisher, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl sink: %w", err)
	}
	return &JSONLPublisher{w: bufio.NewWriter(f), closer: f}, nil
}

// NewJSONLWriter creates a JSON lines sink on top of w
func NewJSONLWriter(w io.Writer) *JSONLPublisher {
	return &JSONLPublisher{w: bufio.NewWriter(w)}
}

// Publish writes the record as a single line
func (p *JSONLPublisher) Publish(_ context.Context, record crawler.GameRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// Close flushes buffered lines and closes the file, if any
func (p *JSONLPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.w.Flush(); err != nil {
		return err
	}
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
