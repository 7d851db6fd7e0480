// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/litharvest/pkg/types"
)

// Header is the first row of every TSV output file.
var Header = []string{"DOI", "Title", "Abstract"}

// TSV appends batches to a tab-separated file. Each batch is one
// open-append-sync-close cycle, so a completed flush survives a crash.
type TSV struct {
	path string
}

// CreateTSV creates or truncates path and writes the header row.
func CreateTSV(path string) (*TSV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating directory %s: %v", ErrSinkWrite, dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	if err := writeRows(f, [][]string{Header}); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: writing header: %v", ErrSinkWrite, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	return &TSV{path: path}, nil
}

// Path returns the output file path.
func (t *TSV) Path() string { return t.path }

// WriteBatch appends one row per record: identifier, display name and
// abstract. Failed records are written with an empty abstract.
func (t *TSV) WriteBatch(_ context.Context, batch []types.Record) error {
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.path, err)
	}
	rows := make([][]string, len(batch))
	for i, r := range batch {
		rows[i] = []string{r.Identifier, r.DisplayName, r.Abstract}
	}
	if err := writeRows(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", t.path, err)
	}
	return f.Close()
}

// Close is a no-op; files are closed after every batch.
func (t *TSV) Close() error { return nil }

func writeRows(f *os.File, rows [][]string) error {
	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}
