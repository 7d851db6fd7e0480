// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litharvest/pkg/types"
)

// SQLite stores records, with their status and failure reason, in a
// records table keyed by run and row.
type SQLite struct {
	db    *sql.DB
	runID string
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path, runID string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating directory %s: %v", ErrSinkWrite, dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrSinkWrite, err)
	}
	s := &SQLite{db: db, runID: runID}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrSinkWrite, err)
	}
	return s, nil
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL,
			row_id INTEGER NOT NULL,
			identifier TEXT NOT NULL,
			title TEXT,
			abstract TEXT,
			status TEXT NOT NULL,
			error TEXT,
			harvested_at TEXT NOT NULL,
			PRIMARY KEY (run_id, row_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_identifier ON records(identifier)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// insertChunk caps rows per INSERT statement. Eight bind variables per row
// keeps each statement under SQLite's 999 variable floor.
const insertChunk = 100

// WriteBatch inserts the batch in a single transaction, split into
// multi-row statements of at most insertChunk records.
func (s *SQLite) WriteBatch(ctx context.Context, batch []types.Record) error {
	if len(batch) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(batch); start += insertChunk {
		end := min(start+insertChunk, len(batch))
		query, args, err := s.upsert(batch[start:end], now).ToSql()
		if err != nil {
			return fmt.Errorf("building insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting records %d-%d: %w", start+1, end, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) upsert(rows []types.Record, now string) sq.InsertBuilder {
	ins := sq.Insert("records").
		Columns("run_id", "row_id", "identifier", "title", "abstract", "status", "error", "harvested_at").
		Suffix("ON CONFLICT(run_id, row_id) DO UPDATE SET abstract = excluded.abstract, status = excluded.status, error = excluded.error")
	for _, r := range rows {
		ins = ins.Values(s.runID, r.ID, r.Identifier, r.DisplayName, r.Abstract, string(r.Status), r.Err, now)
	}
	return ins
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
