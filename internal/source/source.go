// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source reads record lists from tab-separated files.
package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/litharvest/pkg/types"
)

// ErrSourceUnreadable is returned when the input file cannot be opened.
var ErrSourceUnreadable = errors.New("source unreadable")

// ReadRecords opens path and parses it with Parse.
func ReadRecords(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	defer f.Close()
	return Parse(f)
}

// maxLineSize bounds a single input row.
const maxLineSize = 1 << 20

// Parse reads tab-separated rows of identifier and display name, one line
// at a time. Cells are taken literally; quotes carry no meaning. Rows with
// fewer than two columns are dropped, as is a leading header row whose
// first cell is "DOI". Records are returned in input order with status
// pending and IDs numbered from 1 in the order they were accepted.
func Parse(r io.Reader) ([]types.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []types.Record
	first := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := strings.Split(line, "\t")
		isFirst := first
		first = false
		if len(row) < 2 {
			continue
		}
		if isFirst && isHeader(row) {
			continue
		}
		records = append(records, newRecord(len(records)+1, row))
	}
	if err := sc.Err(); err != nil {
		return records, fmt.Errorf("reading row %d: %w", len(records)+1, err)
	}
	return records, nil
}

// ReadHarvested reads an output file written by the TSV sink
// (DOI, Title, Abstract) and returns dedupe candidates numbered by row.
// Unlike Parse it undoes the sink's quoting of cells holding tabs,
// newlines or quotes.
func ReadHarvested(path string) ([]types.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []types.Candidate
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return out, fmt.Errorf("reading %s: %w", path, err)
		}
		isFirst := first
		first = false
		if len(row) < 2 || (isFirst && isHeader(row)) {
			continue
		}
		rec := newRecord(len(out)+1, row)
		out = append(out, types.Candidate{
			ID:    rec.ID,
			DOI:   rec.Identifier,
			Title: rec.DisplayName,
		})
	}
	return out, nil
}

func newRecord(id int, row []string) types.Record {
	return types.Record{
		ID:          int64(id),
		Identifier:  strings.TrimSpace(row[0]),
		DisplayName: strings.TrimSpace(row[1]),
		Status:      types.StatusPending,
	}
}

// isHeader reports whether a first row is a column header. Headers are
// optional and never validated. A plain line reader would fetch a leading
// "DOI" row as a record; this one drops it.
func isHeader(row []string) bool {
	return strings.EqualFold(strings.TrimSpace(row[0]), "doi")
}
