// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns fetched documents into best-effort abstract text.
// Strategies are interchangeable behind Extractor: structural selectors
// over HTML, a field path over JSON, or a text-generation model. Chain
// combines them into a multi-source fallback.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/litharvest/pkg/types"
)

// Extractor turns one fetched document into an ExtractionResult.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, res types.FetchResult) types.ExtractionResult
}

// errNoContent is reported when an extractor is handed a failed fetch.
var errNoContent = errors.New("no content to extract from")

func noContent(res types.FetchResult) types.ExtractionResult {
	return types.ExtractorError(fmt.Errorf("%w: %s", errNoContent, res.Reason()))
}

// Chain tries each extractor in order and returns the first Found result.
// When nothing is found it reports ExtractorError if any strategy failed to
// look, and NotFound otherwise.
type Chain []Extractor

// Name joins the member names.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name()
	}
	return strings.Join(names, "+")
}

// Extract runs the chain.
func (c Chain) Extract(ctx context.Context, res types.FetchResult) types.ExtractionResult {
	var errs []error
	for _, e := range c {
		r := e.Extract(ctx, res)
		switch r.Kind {
		case types.ExtractionFound:
			return r
		case types.ExtractionError:
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), r.Err))
		}
	}
	if len(errs) > 0 {
		return types.ExtractorError(errors.Join(errs...))
	}
	return types.NotFound()
}

// Build assembles the extractor chain named by cfg.Strategies. When no
// strategies are configured the default follows the fetch source (see
// DefaultStrategies). model may be nil unless the model strategy is
// requested.
func Build(cfg types.HarvestConfig, model Model) (Extractor, error) {
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies(cfg.Source)
	}

	var chain Chain
	for _, s := range strategies {
		switch s {
		case types.StrategyStructural:
			chain = append(chain, NewStructural(cfg.Selectors))
		case types.StrategyAPIField:
			path := cfg.FieldPath
			if path == "" {
				path = FieldPathFor(cfg.Source)
			}
			chain = append(chain, NewAPIField(path))
		case types.StrategyInvertedIndex:
			chain = append(chain, NewInvertedIndex(""))
		case types.StrategyModel:
			if model == nil {
				return nil, fmt.Errorf("strategy %q requires a model backend", s)
			}
			chain = append(chain, NewModelAssisted(model, cfg.AI))
		default:
			return nil, fmt.Errorf("unknown extraction strategy %q", s)
		}
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}

// DefaultStrategies returns the strategy list used when none is configured:
// the JSON field for the API sources, selectors for publisher pages.
func DefaultStrategies(src types.FetchSource) []types.Strategy {
	switch src {
	case types.SourceCrossRef, types.SourceSemanticScholar:
		return []types.Strategy{types.StrategyAPIField}
	case types.SourceOpenAlex:
		return []types.Strategy{types.StrategyInvertedIndex}
	default:
		return []types.Strategy{types.StrategyStructural}
	}
}

// FieldPathFor returns the abstract's JSON path in the API behind src.
func FieldPathFor(src types.FetchSource) string {
	if src == types.SourceSemanticScholar {
		return "abstract"
	}
	return DefaultFieldPath
}

// NeedsModel reports whether the strategy list includes the model strategy.
func NeedsModel(strategies []types.Strategy) bool {
	for _, s := range strategies {
		if s == types.StrategyModel {
			return true
		}
	}
	return false
}
