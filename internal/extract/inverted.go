// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/litharvest/pkg/types"
)

// DefaultInvertedIndexPath is where OpenAlex puts the abstract.
const DefaultInvertedIndexPath = "abstract_inverted_index"

// InvertedIndex rebuilds an abstract stored as a word → positions map,
// the form OpenAlex publishes for licensing reasons.
type InvertedIndex struct {
	path string
}

// NewInvertedIndex returns an InvertedIndex extractor reading path, or
// DefaultInvertedIndexPath when path is empty.
func NewInvertedIndex(path string) *InvertedIndex {
	if strings.TrimSpace(path) == "" {
		path = DefaultInvertedIndexPath
	}
	return &InvertedIndex{path: path}
}

// Name returns the strategy identifier.
func (x *InvertedIndex) Name() string { return string(types.StrategyInvertedIndex) }

// Extract reads the index and joins the words in position order. A missing,
// null or empty index is NotFound.
func (x *InvertedIndex) Extract(_ context.Context, res types.FetchResult) types.ExtractionResult {
	if !res.OK() {
		return noContent(res)
	}
	if !gjson.ValidBytes(res.Body) {
		return types.ExtractorError(errInvalidJSON)
	}
	v := gjson.GetBytes(res.Body, x.path)
	if !v.IsObject() {
		return types.NotFound()
	}

	index := make(map[string][]int)
	v.ForEach(func(word, positions gjson.Result) bool {
		for _, p := range positions.Array() {
			index[word.String()] = append(index[word.String()], int(p.Int()))
		}
		return true
	})

	text := reconstructAbstract(index)
	if text == "" {
		return types.NotFound()
	}
	return types.Found(text)
}

// reconstructAbstract converts an inverted index back to plain text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
