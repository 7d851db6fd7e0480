// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/litharvest/pkg/types"
)

// DefaultFieldPath is where the CrossRef works API puts the abstract.
const DefaultFieldPath = "message.abstract"

var errInvalidJSON = errors.New("response is not valid JSON")

// APIField reads the abstract from a JSON document at a gjson path.
type APIField struct {
	path string
}

// NewAPIField returns an APIField extractor for path, or DefaultFieldPath
// when path is empty.
func NewAPIField(path string) *APIField {
	if strings.TrimSpace(path) == "" {
		path = DefaultFieldPath
	}
	return &APIField{path: path}
}

// Name returns the strategy identifier.
func (a *APIField) Name() string { return string(types.StrategyAPIField) }

// Extract returns the field's text. A missing or empty field is NotFound;
// only a malformed document is an error.
func (a *APIField) Extract(_ context.Context, res types.FetchResult) types.ExtractionResult {
	if !res.OK() {
		return noContent(res)
	}
	if !gjson.ValidBytes(res.Body) {
		return types.ExtractorError(errInvalidJSON)
	}
	v := gjson.GetBytes(res.Body, a.path)
	if !v.Exists() || v.Type == gjson.Null {
		return types.NotFound()
	}
	text := flattenMarkup(v.String())
	if text == "" {
		return types.NotFound()
	}
	return types.Found(text)
}
