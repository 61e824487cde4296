package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"sjsage522/steamcrawler/helpers"
	"sjsage522/steamcrawler/internal/catalog"
	"sjsage522/steamcrawler/internal/crawler"
	"sjsage522/steamcrawler/logger"
	crawlerrors "sjsage522/steamcrawler/pkg/errors"
	"sjsage522/steamcrawler/services/publisher"

	"golang.org/x/sync/errgroup"
)

// Options tunes the crawl driver
type Options struct {
	// MaxInFlight bounds concurrent entries; defaults to 1
	MaxInFlight int
	// MaxRetries applies to retryable fetch errors only; timeouts are never retried
	MaxRetries int
	Limiter    *crawler.HostLimiter
	Failures   helpers.FailureRecorder
}

// Worker drives catalog entries through build, fetch, extract, assemble and publish
type Worker struct {
	builder   *crawler.RequestBuilder
	fetcher   crawler.PageFetcher
	extractor *crawler.Extractor
	publisher publisher.Publisher
	opts      Options
	log       *logger.Logger
}

// Summary reports how every entry of a run ended
type Summary struct {
	Total     int
	Emitted   int
	Skipped   int
	Failed    int
	Cancelled int
	// FailuresByType counts failed entries per error type
	FailuresByType map[crawlerrors.ErrorType]int
	Entries        []Entry
	Elapsed        time.Duration
}

// NewWorker creates a new crawl driver
func NewWorker(
	builder *crawler.RequestBuilder,
	fetcher crawler.PageFetcher,
	extractor *crawler.Extractor,
	pub publisher.Publisher,
	opts Options,
) *Worker {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 1
	}
	return &Worker{
		builder:   builder,
		fetcher:   fetcher,
		extractor: extractor,
		publisher: pub,
		opts:      opts,
		log:       logger.ForDriver(),
	}
}

// Run loads the catalog at path and crawls every entry. Only an unreadable
// catalog is returned as an error; entry failures are counted in the summary.
func (w *Worker) Run(ctx context.Context, path, column string) (Summary, error) {
	entries, err := catalog.Load(path, column)
	if err != nil {
		return Summary{}, err
	}
	logger.ForCatalog().Info().Str("path", path).Int("entries", len(entries)).Msg("Catalog loaded")
	return w.Crawl(ctx, entries), nil
}

// Crawl processes entries with at most MaxInFlight in flight. Cancelling ctx
// stops new dispatches; entries already fetching finish but are dropped
// instead of emitted.
func (w *Worker) Crawl(ctx context.Context, entries []catalog.Entry) Summary {
	start := time.Now()
	tracked := make([]*Entry, len(entries))

	var g errgroup.Group
	g.SetLimit(w.opts.MaxInFlight)

	for i, item := range entries {
		entry := newEntry(string(item))
		tracked[i] = entry

		req, ok := w.builder.Build(item)
		if !ok {
			w.settle(entry, entry.transition(StateSkipped))
			continue
		}
		entry.URL = req.URL

		if ctx.Err() != nil {
			w.settle(entry, entry.fail(StateCancelled, crawlerrors.NewCancelled(entry.AppID, ctx.Err())))
			continue
		}

		// Go blocks while MaxInFlight entries are running
		g.Go(func() error {
			w.process(ctx, entry, req)
			return nil
		})
	}
	_ = g.Wait()

	if t, ok := w.publisher.(publisher.Trimmer); ok {
		if err := t.TrimStreams(context.WithoutCancel(ctx)); err != nil {
			w.log.Warn().Err(err).Msg("Failed to trim output streams")
		}
	}

	summary := summarize(tracked)
	summary.Elapsed = time.Since(start)

	w.log.Info().
		Int("total", summary.Total).
		Int("emitted", summary.Emitted).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Dur("elapsed", summary.Elapsed).
		Msg("Crawl finished")

	return summary
}

// process runs one entry from Pending to a terminal state
func (w *Worker) process(ctx context.Context, entry *Entry, req *crawler.CrawlRequest) {
	// Cancellation before dispatch drops the entry without fetching
	if err := w.wait(ctx, entry, req); err != nil {
		if crawlerrors.Is(err, crawlerrors.ErrorTypeCancelled) {
			w.settle(entry, entry.fail(StateCancelled, err))
			return
		}
		w.settle(entry, entry.fail(StateFailed, err))
		return
	}
	if err := entry.transition(StateDispatched); err != nil {
		w.settle(entry, err)
		return
	}

	body, err := w.fetch(ctx, entry, req)
	if err != nil {
		if crawlerrors.Is(err, crawlerrors.ErrorTypeCancelled) {
			w.settle(entry, entry.fail(StateCancelled, err))
			return
		}
		w.settle(entry, entry.fail(StateFailed, err))
		return
	}
	if err := entry.transition(StateFetched); err != nil {
		w.settle(entry, err)
		return
	}

	// The fetch completed, but a cancelled run emits nothing further
	if ctx.Err() != nil {
		w.settle(entry, entry.fail(StateCancelled, crawlerrors.NewCancelled(entry.AppID, ctx.Err())))
		return
	}

	fields, err := w.extractor.Extract(body)
	if err != nil {
		w.settle(entry, entry.fail(StateFailed, crawlerrors.NewMalformed(entry.AppID, "cannot parse page", err)))
		return
	}
	if err := entry.transition(StateExtracted); err != nil {
		w.settle(entry, err)
		return
	}

	record := crawler.Assemble(req.AppID, fields)
	if ctx.Err() != nil {
		w.settle(entry, entry.fail(StateCancelled, crawlerrors.NewCancelled(entry.AppID, ctx.Err())))
		return
	}

	if err := w.publisher.Publish(context.WithoutCancel(ctx), record); err != nil {
		w.settle(entry, entry.fail(StateFailed, crawlerrors.NewPublisher(entry.AppID, "publish failed", err)))
		return
	}

	logger.ForApp(entry.AppID).Debug().Str("record", record.String()).Msg("Record emitted")
	w.settle(entry, entry.transition(StateEmitted))
}

// fetch performs the request, retrying retryable errors up to MaxRetries.
// The request itself is detached from run cancellation so an in-flight
// fetch completes or times out on its own.
func (w *Worker) fetch(ctx context.Context, entry *Entry, req *crawler.CrawlRequest) (io.Reader, error) {
	fetchCtx := context.WithoutCancel(ctx)

	for attempt := 0; ; attempt++ {
		entry.Attempts++
		body, err := w.fetcher.Fetch(fetchCtx, req)
		if err == nil {
			return body, nil
		}

		var ce *crawlerrors.CrawlerError
		retryable := errors.As(err, &ce) && ce.IsRetryable()
		if !retryable || attempt >= w.opts.MaxRetries {
			return nil, err
		}

		logger.ForApp(entry.AppID).Debug().Err(err).Int("attempt", entry.Attempts).Msg("Retrying fetch")
		if waitErr := w.wait(ctx, entry, req); waitErr != nil {
			return nil, waitErr
		}
	}
}

// wait blocks on the host limiter. A done run context is a cancellation; a
// wait the limiter refuses while the run is live is a fetch error.
func (w *Worker) wait(ctx context.Context, entry *Entry, req *crawler.CrawlRequest) error {
	err := w.opts.Limiter.Wait(ctx, req.URL)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return crawlerrors.NewCancelled(entry.AppID, ctx.Err())
	}
	return crawlerrors.NewFetch(entry.AppID, "politeness delay exceeds run deadline", err)
}

// settle logs the terminal state of an entry and records failures
func (w *Worker) settle(entry *Entry, transitionErr error) {
	if transitionErr != nil {
		w.log.Error().Err(transitionErr).Str("app_id", entry.AppID).Msg("Invalid entry transition")
		return
	}

	event := w.log.Debug()
	if entry.State == StateFailed {
		event = w.log.Warn().Err(entry.Err).Str("error_type", string(crawlerrors.TypeOf(entry.Err)))
	}
	event.Str("app_id", entry.AppID).Str("state", string(entry.State)).Msg("Entry settled")

	if (entry.State == StateFailed || entry.State == StateCancelled) && w.opts.Failures != nil {
		w.opts.Failures.RecordFailure(entry.AppID, entry.URL, entry.Err)
	}
}

func summarize(entries []*Entry) Summary {
	summary := Summary{
		Total:          len(entries),
		FailuresByType: make(map[crawlerrors.ErrorType]int),
		Entries:        make([]Entry, 0, len(entries)),
	}
	for _, entry := range entries {
		summary.Entries = append(summary.Entries, *entry)
		switch entry.State {
		case StateEmitted:
			summary.Emitted++
		case StateSkipped:
			summary.Skipped++
		case StateFailed:
			summary.Failed++
			summary.FailuresByType[crawlerrors.TypeOf(entry.Err)]++
		case StateCancelled:
			summary.Cancelled++
		}
	}
	return summary
}
