// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink persists harvested records in fixed-size batches. A flushed
// batch is the only durability boundary: records still buffered when the
// process dies are lost.
package sink

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/litharvest/pkg/types"
)

// DefaultBatchSize is the number of records per flush.
const DefaultBatchSize = 100

// ErrSinkWrite wraps every failure to persist a batch. It is fatal to a run.
var ErrSinkWrite = errors.New("sink write failed")

// Sink writes one batch at a time. WriteBatch is called by a single writer.
type Sink interface {
	WriteBatch(ctx context.Context, batch []types.Record) error
	Close() error
}

// Open picks a sink by file extension: .db, .sqlite and .sqlite3 open a
// SQLite database, anything else a TSV file. The output is created (and a
// TSV truncated to its header) immediately so that an unwritable path
// fails before any work starts.
func Open(path, runID string) (Sink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path, runID)
	default:
		return CreateTSV(path)
	}
}

// Batcher accumulates records and flushes them to a Sink when the batch
// is full. It is safe for concurrent use.
type Batcher struct {
	mu      sync.Mutex
	sink    Sink
	size    int
	buf     []types.Record
	batches int
	written int
}

// NewBatcher returns a Batcher flushing every size records (DefaultBatchSize
// when size <= 0).
func NewBatcher(s Sink, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{sink: s, size: size, buf: make([]types.Record, 0, size)}
}

// Add appends rec to the current batch and flushes when the batch reaches
// the size threshold.
func (b *Batcher) Add(ctx context.Context, rec types.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, rec)
	if len(b.buf) < b.size {
		return nil
	}
	return b.flushLocked(ctx)
}

// Flush writes any buffered records as a final, possibly partial, batch.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return nil
	}
	return b.flushLocked(ctx)
}

func (b *Batcher) flushLocked(ctx context.Context) error {
	batch := b.buf
	b.buf = make([]types.Record, 0, b.size)
	if err := b.sink.WriteBatch(ctx, batch); err != nil {
		return fmt.Errorf("%w: batch %d (%d records): %v", ErrSinkWrite, b.batches+1, len(batch), err)
	}
	b.batches++
	b.written += len(batch)
	return nil
}

// Stats returns the number of flushed batches and records written.
func (b *Batcher) Stats() (batches, records int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batches, b.written
}

// Pending returns the number of buffered, unflushed records.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Close flushes the remainder and closes the underlying sink.
func (b *Batcher) Close(ctx context.Context) error {
	flushErr := b.Flush(ctx)
	closeErr := b.sink.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("%w: closing sink: %v", ErrSinkWrite, closeErr)
	}
	return nil
}
