// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DedupeMode selects which field is authoritative for duplicate matching.
type DedupeMode string

const (
	DedupeByDOI   DedupeMode = "doi"
	DedupeByTitle DedupeMode = "title"
)

// Candidate is a record considered by the duplicate resolver. ID is the
// internal identifier (input row ordinal or Zotero itemID).
type Candidate struct {
	ID    int64  `json:"id" yaml:"id"`
	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// DuplicateGroup is a set of candidates judged to be the same work.
// Survivor is the member with the lowest ID; Superseded lists the other
// member IDs in ascending order.
type DuplicateGroup struct {
	Key        string      `json:"key" yaml:"key"`
	Members    []Candidate `json:"members" yaml:"members"`
	Survivor   Candidate   `json:"survivor" yaml:"survivor"`
	Superseded []int64     `json:"superseded" yaml:"superseded"`
}

// DedupePlan is the resolver output: duplicate groups and nothing else.
// Applying it is the caller's job.
type DedupePlan struct {
	Mode      DedupeMode       `json:"mode" yaml:"mode"`
	Threshold float64          `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Scanned   int              `json:"scanned" yaml:"scanned"`
	Groups    []DuplicateGroup `json:"groups" yaml:"groups"`
}

// SupersededIDs returns every superseded ID across all groups.
func (p DedupePlan) SupersededIDs() []int64 {
	var ids []int64
	for _, g := range p.Groups {
		ids = append(ids, g.Superseded...)
	}
	return ids
}
