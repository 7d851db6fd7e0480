// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe groups candidate records that refer to the same work and
// picks one survivor per group. It only computes a plan; deleting the
// superseded records is left to the caller.
package dedupe

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/litharvest/pkg/types"
)

// DefaultThreshold is the title similarity a candidate must exceed to join
// an existing group.
const DefaultThreshold = 0.9

// Resolve dispatches to the matcher for mode. threshold is used by title
// mode only; a value <= 0 selects DefaultThreshold.
func Resolve(mode types.DedupeMode, threshold float64, candidates []types.Candidate) (types.DedupePlan, error) {
	switch mode {
	case types.DedupeByDOI:
		return ByIdentifier(candidates), nil
	case types.DedupeByTitle:
		return ByTitle(candidates, threshold), nil
	default:
		return types.DedupePlan{}, fmt.Errorf("unknown dedupe mode %q (want %q or %q)", mode, types.DedupeByDOI, types.DedupeByTitle)
	}
}

// NormalizeDOI trims and lower-cases a DOI.
func NormalizeDOI(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

// NormalizeTitle lower-cases a title, drops everything but letters, digits,
// underscores and whitespace, and collapses runs of whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns 1 - editDistance/maxLen over runes. It is symmetric
// and in [0, 1]; two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// ByIdentifier groups candidates whose normalized DOI is byte-equal.
// Candidates without a DOI are not grouped.
func ByIdentifier(candidates []types.Candidate) types.DedupePlan {
	var keys []string
	members := make(map[string][]types.Candidate)
	for _, c := range candidates {
		key := NormalizeDOI(c.DOI)
		if key == "" {
			continue
		}
		if _, ok := members[key]; !ok {
			keys = append(keys, key)
		}
		members[key] = append(members[key], c)
	}
	return types.DedupePlan{
		Mode:    types.DedupeByDOI,
		Scanned: len(candidates),
		Groups:  buildGroups(keys, members),
	}
}

// ByTitle groups candidates by fuzzy title match. Each normalized title is
// compared against the existing group keys in creation order and joins the
// first one it is more than threshold similar to; otherwise it becomes a
// new key. The assignment is greedy and depends on input order. Candidates
// whose title normalizes to nothing are not grouped.
func ByTitle(candidates []types.Candidate, threshold float64) types.DedupePlan {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var keys []string
	members := make(map[string][]types.Candidate)
	for _, c := range candidates {
		title := NormalizeTitle(c.Title)
		if title == "" {
			continue
		}
		key := firstFit(keys, title, threshold)
		if key == "" {
			key = title
			keys = append(keys, key)
		}
		members[key] = append(members[key], c)
	}
	return types.DedupePlan{
		Mode:      types.DedupeByTitle,
		Threshold: threshold,
		Scanned:   len(candidates),
		Groups:    buildGroups(keys, members),
	}
}

func firstFit(keys []string, title string, threshold float64) string {
	for _, k := range keys {
		if k == title || Similarity(k, title) > threshold {
			return k
		}
	}
	return ""
}

// buildGroups emits groups with more than one member, in key order.
func buildGroups(keys []string, members map[string][]types.Candidate) []types.DuplicateGroup {
	var groups []types.DuplicateGroup
	for _, key := range keys {
		ms := members[key]
		if len(ms) < 2 {
			continue
		}
		survivor := ms[0]
		for _, m := range ms[1:] {
			if m.ID < survivor.ID {
				survivor = m
			}
		}
		superseded := make([]int64, 0, len(ms)-1)
		for _, m := range ms {
			if m.ID != survivor.ID {
				superseded = append(superseded, m.ID)
			}
		}
		slices.Sort(superseded)
		groups = append(groups, types.DuplicateGroup{
			Key:        key,
			Members:    ms,
			Survivor:   survivor,
			Superseded: superseded,
		})
	}
	return groups
}
