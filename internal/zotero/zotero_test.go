// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litharvest/internal/dedupe"
	"github.com/pdiddy/litharvest/pkg/types"
)

type item struct {
	id       int64
	itemType int
	doi      string
	title    string
}

// newLibrary writes a minimal Zotero schema populated with items.
func newLibrary(t *testing.T, items []item) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zotero.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE items (itemID INTEGER PRIMARY KEY, itemTypeID INT NOT NULL)`,
		`CREATE TABLE fields (fieldID INTEGER PRIMARY KEY, fieldName TEXT NOT NULL)`,
		`CREATE TABLE itemDataValues (valueID INTEGER PRIMARY KEY, value)`,
		`CREATE TABLE itemData (itemID INT, fieldID INT, valueID INT, PRIMARY KEY (itemID, fieldID))`,
		`INSERT INTO fields VALUES (1, 'title'), (2, 'DOI')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	valueID := 0
	addField := func(itemID int64, fieldID int, value string) {
		valueID++
		_, err := db.Exec(`INSERT INTO itemDataValues VALUES (?, ?)`, valueID, value)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO itemData VALUES (?, ?, ?)`, itemID, fieldID, valueID)
		require.NoError(t, err)
	}
	for _, it := range items {
		_, err := db.Exec(`INSERT INTO items VALUES (?, ?)`, it.id, it.itemType)
		require.NoError(t, err)
		if it.title != "" {
			addField(it.id, 1, it.title)
		}
		if it.doi != "" {
			addField(it.id, 2, it.doi)
		}
	}
	return path
}

var library = []item{
	{id: 10, itemType: 2, doi: "10.1/a", title: "Deep Knowledge Tracing"},
	{id: 11, itemType: 2, doi: "10.1/A ", title: "deep knowledge tracing."},
	{id: 12, itemType: 14, doi: "10.1/a", title: "Full Text PDF"},
	{id: 13, itemType: 2, doi: "10.2/b", title: "Unrelated Study"},
	{id: 14, itemType: 2, title: "No DOI here"},
}

func TestCandidates(t *testing.T) {
	s, err := Open(newLibrary(t, library))
	require.NoError(t, err)
	defer s.Close()

	byDOI, err := s.Candidates(context.Background(), types.DedupeByDOI)
	require.NoError(t, err)
	assert.Equal(t, []types.Candidate{
		{ID: 10, DOI: "10.1/a"},
		{ID: 11, DOI: "10.1/A "},
		{ID: 13, DOI: "10.2/b"},
	}, byDOI, "attachments are excluded")

	byTitle, err := s.Candidates(context.Background(), types.DedupeByTitle)
	require.NoError(t, err)
	assert.Len(t, byTitle, 4)
	assert.Equal(t, "Deep Knowledge Tracing", byTitle[0].Title)
}

func TestCandidates_UnknownMode(t *testing.T) {
	s, err := Open(newLibrary(t, nil))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Candidates(context.Background(), "isbn")
	require.Error(t, err)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.sqlite"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackupAndApply(t *testing.T) {
	path := newLibrary(t, library)
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	cands, err := s.Candidates(context.Background(), types.DedupeByDOI)
	require.NoError(t, err)
	plan := dedupe.ByIdentifier(cands)
	require.Equal(t, []int64{11}, plan.SupersededIDs())

	backup, err := s.Backup()
	require.NoError(t, err)
	assert.Equal(t, path+".backup", backup)
	orig, err := os.ReadFile(path)
	require.NoError(t, err)
	copied, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, orig, copied)

	n, err := s.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var items, data int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM items WHERE itemID = 11`).Scan(&items))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM itemData WHERE itemID = 11`).Scan(&data))
	assert.Zero(t, items)
	assert.Zero(t, data)

	after, err := s.Candidates(context.Background(), types.DedupeByDOI)
	require.NoError(t, err)
	assert.Empty(t, dedupe.ByIdentifier(after).Groups)
}

func TestApply_EmptyPlan(t *testing.T) {
	s, err := Open(newLibrary(t, library))
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Apply(context.Background(), types.DedupePlan{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
