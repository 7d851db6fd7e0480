// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs records through fetch and extraction with a bounded
// worker pool and streams the results into a batching sink.
//
// Each worker is a dispatch slot with its own rate limiter, so no slot
// starts two pipelines within Interval of each other and the pool as a
// whole dispatches at most Concurrency/Interval records per second. At most
// Concurrency pipelines are in flight at any moment.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/litharvest/internal/extract"
	"github.com/pdiddy/litharvest/internal/sink"
	"github.com/pdiddy/litharvest/pkg/types"
)

const (
	DefaultConcurrency   = 10
	DefaultInterval      = 500 * time.Millisecond
	DefaultProgressEvery = 100
)

const notFoundReason = "no abstract found"

// Fetcher retrieves the document for one identifier.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) types.FetchResult
}

// Options configures a Coordinator.
type Options struct {
	// Concurrency is the number of dispatch slots (default 10).
	Concurrency int

	// Interval is the minimum spacing between dispatches on one slot
	// (default 500ms). A negative value disables the spacing.
	Interval time.Duration

	// RetryPasses is the number of extra passes over failed records.
	// Failed records are held back from the sink until their last pass.
	RetryPasses int

	// ProgressEvery prints a progress line every n written records (default 100).
	ProgressEvery int

	// Progress receives human-readable progress lines. Nil discards them.
	Progress io.Writer

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}
	if o.Interval < 0 {
		o.Interval = 0
	}
	if o.RetryPasses < 0 {
		o.RetryPasses = 0
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Summary reports the outcome of a run.
type Summary struct {
	Total            int
	Fetched          int
	ExtractionFailed int
	FetchFailed      int
	Retried          int
	Passes           int
	Batches          int
	Elapsed          time.Duration
}

func (s *Summary) count(r types.Record) {
	switch r.Status {
	case types.StatusFetched:
		s.Fetched++
	case types.StatusExtractionFailed:
		s.ExtractionFailed++
	case types.StatusFetchFailed:
		s.FetchFailed++
	}
}

// Written returns the number of records handed to the sink.
func (s Summary) Written() int {
	return s.Fetched + s.ExtractionFailed + s.FetchFailed
}

// Coordinator drives records through fetch, extract and sink.
type Coordinator struct {
	fetcher   Fetcher
	extractor extract.Extractor
	batcher   *sink.Batcher
	opts      Options
}

// New creates a Coordinator. The caller owns the batcher and closes it
// after Run returns.
func New(f Fetcher, x extract.Extractor, b *sink.Batcher, opts Options) *Coordinator {
	return &Coordinator{
		fetcher:   f,
		extractor: x,
		batcher:   b,
		opts:      opts.withDefaults(),
	}
}

// Run processes every record and returns once each one has been handed to
// the batcher and the final partial batch has been flushed. Per-record
// failures are recorded on the record and do not stop the run; a sink
// failure is returned wrapped in sink.ErrSinkWrite and stops the run.
func (c *Coordinator) Run(ctx context.Context, records []types.Record) (Summary, error) {
	start := time.Now()
	sum := Summary{Total: len(records)}

	pending := make([]types.Record, len(records))
	copy(pending, records)

	for pass := 0; pass <= c.opts.RetryPasses && len(pending) > 0; pass++ {
		if pass > 0 {
			sum.Retried += len(pending)
			fmt.Fprintf(c.opts.Progress, "Retry pass %d: %d failed records\n", pass, len(pending))
			for i := range pending {
				pending[i].Status = types.StatusPending
				pending[i].Err = ""
			}
		}
		final := pass == c.opts.RetryPasses
		held, err := c.runPass(ctx, pending, final, &sum)
		sum.Passes++
		if err != nil {
			sum.Batches, _ = c.batcher.Stats()
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		pending = held
	}

	err := c.batcher.Flush(context.WithoutCancel(ctx))
	sum.Batches, _ = c.batcher.Stats()
	sum.Elapsed = time.Since(start)
	return sum, err
}

// runPass dispatches records across the worker pool. Results reach the
// batcher in completion order. Unless final, failed records are returned
// instead of written.
func (c *Coordinator) runPass(ctx context.Context, records []types.Record, final bool, sum *Summary) ([]types.Record, error) {
	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan types.Record)
	done := make(chan types.Record, c.opts.Concurrency)

	g.Go(func() error {
		defer close(jobs)
		for _, r := range records {
			select {
			case jobs <- r:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for slot := 0; slot < c.opts.Concurrency; slot++ {
		limiter := rate.NewLimiter(rate.Every(c.opts.Interval), 1)
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for r := range jobs {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				out := c.process(ctx, r)
				select {
				case done <- out:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		workers.Wait()
		close(done)
	}()

	// Batches already filling are written even after an interrupt.
	sinkCtx := context.WithoutCancel(gctx)
	var held []types.Record
	g.Go(func() error {
		for r := range done {
			if r.Failed() && !final {
				held = append(held, r)
				continue
			}
			if err := c.batcher.Add(sinkCtx, r); err != nil {
				return err
			}
			sum.count(r)
			if n := sum.Written(); n%c.opts.ProgressEvery == 0 {
				fmt.Fprintf(c.opts.Progress, "Processed %d/%d records (%d fetched, %d extraction failed, %d fetch failed)\n",
					n, sum.Total, sum.Fetched, sum.ExtractionFailed, sum.FetchFailed)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, sink.ErrSinkWrite) {
			c.opts.Logger.Error("sink write failed", "error", err)
		}
		return nil, err
	}
	return held, nil
}

// process runs one record through fetch and, on success, extraction.
func (c *Coordinator) process(ctx context.Context, r types.Record) types.Record {
	log := c.opts.Logger.With("id", r.ID, "doi", r.Identifier)

	res := c.fetcher.Fetch(ctx, r.Identifier)
	if !res.OK() {
		r.Status = types.StatusFetchFailed
		r.Err = res.Reason()
		log.Warn("fetch failed", "status", r.Status, "reason", r.Err)
		return r
	}

	ex := c.extractor.Extract(extract.WithIdentifier(ctx, r.Identifier), res)
	switch ex.Kind {
	case types.ExtractionFound:
		r.Abstract = ex.Text
		r.Status = types.StatusFetched
		r.Err = ""
		log.Debug("abstract found", "status", r.Status, "chars", len(ex.Text))
	case types.ExtractionNotFound:
		r.Status = types.StatusExtractionFailed
		r.Err = notFoundReason
		log.Info("no abstract", "status", r.Status, "url", res.URL)
	default:
		r.Status = types.StatusExtractionFailed
		r.Err = fmt.Sprintf("extraction error: %v", ex.Err)
		log.Warn("extraction error", "status", r.Status, "error", ex.Err)
	}
	return r
}
