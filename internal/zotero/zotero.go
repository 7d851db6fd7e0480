// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero reads duplicate candidates from a local Zotero library
// database and deletes superseded items from it.
//
// Zotero holds an exclusive lock on zotero.sqlite while it runs; close the
// application before applying a plan, and restart it afterwards.
package zotero

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litharvest/pkg/types"
)

// attachmentItemType is Zotero's itemTypeID for attachments, which carry
// their parent's metadata and are never treated as duplicates.
const attachmentItemType = 14

// BackupSuffix is appended to the database file name for the pre-apply copy.
const BackupSuffix = ".backup"

// Store is an open Zotero database.
type Store struct {
	path string
	db   *sql.DB
}

// DefaultPath returns ~/Zotero/zotero.sqlite.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Zotero", "zotero.sqlite")
	}
	return filepath.Join(home, "Zotero", "zotero.sqlite")
}

// Open opens an existing Zotero database. It does not create one.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("zotero database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening zotero database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to zotero database: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// fieldFor maps a dedupe mode onto the Zotero field name it reads.
func fieldFor(mode types.DedupeMode) (string, error) {
	switch mode {
	case types.DedupeByDOI:
		return "DOI", nil
	case types.DedupeByTitle:
		return "title", nil
	default:
		return "", fmt.Errorf("unknown dedupe mode %q", mode)
	}
}

// Candidates returns (itemID, value) pairs for the field selected by mode,
// skipping attachments and empty values, ordered by itemID.
func (s *Store) Candidates(ctx context.Context, mode types.DedupeMode) ([]types.Candidate, error) {
	field, err := fieldFor(mode)
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select("i.itemID", "v.value").
		From("items i").
		Join("itemData d ON i.itemID = d.itemID").
		Join("itemDataValues v ON d.valueID = v.valueID").
		Join("fields f ON d.fieldID = f.fieldID").
		Where(sq.Eq{"f.fieldName": field}).
		Where(sq.NotEq{"i.itemTypeID": attachmentItemType}).
		OrderBy("i.itemID").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building candidate query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s values: %w", field, err)
	}
	defer rows.Close()

	var out []types.Candidate
	for rows.Next() {
		var id int64
		var value sql.NullString
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if strings.TrimSpace(value.String) == "" {
			continue
		}
		c := types.Candidate{ID: id}
		if mode == types.DedupeByDOI {
			c.DOI = value.String
		} else {
			c.Title = value.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Backup copies the database file next to itself with BackupSuffix and
// returns the backup path.
func (s *Store) Backup() (string, error) {
	dst := s.path + BackupSuffix
	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("opening database for backup: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating backup %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("copying backup: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return "", fmt.Errorf("syncing backup: %w", err)
	}
	return dst, out.Close()
}

// Apply deletes every superseded item in plan, with its field data, in one
// transaction. It returns the number of items deleted.
func (s *Store) Apply(ctx context.Context, plan types.DedupePlan) (int, error) {
	ids := plan.SupersededIDs()
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := deleteItems(ctx, tx, "itemData", ids); err != nil {
		return 0, err
	}
	n, err := deleteItems(ctx, tx, "items", ids)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing deletes: %w", err)
	}
	return int(n), nil
}

func deleteItems(ctx context.Context, tx *sql.Tx, table string, ids []int64) (int64, error) {
	query, args, err := sq.Delete(table).Where(sq.Eq{"itemID": ids}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building delete from %s: %w", table, err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", table, err)
	}
	return res.RowsAffected()
}
