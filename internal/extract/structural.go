// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/litharvest/pkg/types"
)

// DefaultSelectors lists abstract containers of known publisher layouts in
// priority order. The first selector with non-empty text wins.
var DefaultSelectors = []string{
	"div#abstracts",
	"#Abs1-content",
	"section#abstract",
	"section.abstract",
	"div.abstract.author",
	"div.abstractSection",
	"div.abstract",
	`meta[name="citation_abstract"]`,
	`meta[name="dc.description"]`,
}

// Structural extracts the abstract with an ordered list of CSS selectors.
type Structural struct {
	selectors []string
}

// NewStructural returns a Structural extractor. A nil or empty list uses
// DefaultSelectors.
func NewStructural(selectors []string) *Structural {
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	return &Structural{selectors: append([]string(nil), selectors...)}
}

// Name returns the strategy identifier.
func (s *Structural) Name() string { return string(types.StrategyStructural) }

// Extract parses the document and returns the text of the first selector
// that matches non-empty content. Selection order is the priority; there
// is no scoring.
func (s *Structural) Extract(_ context.Context, res types.FetchResult) types.ExtractionResult {
	if !res.OK() {
		return noContent(res)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return types.ExtractorError(fmt.Errorf("parse document: %w", err))
	}
	if text := s.match(doc); text != "" {
		return types.Found(text)
	}
	return types.NotFound()
}

func (s *Structural) match(doc *goquery.Document) string {
	for _, sel := range s.selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			found = selectionText(el)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// selectionText returns the content attribute of a meta element, or the
// element's text nodes joined by single spaces.
func selectionText(el *goquery.Selection) string {
	if goquery.NodeName(el) == "meta" {
		content, _ := el.Attr("content")
		return collapseSpace(content)
	}
	var parts []string
	for _, n := range el.Nodes {
		parts = appendText(parts, n, nil)
	}
	return strings.Join(parts, " ")
}
