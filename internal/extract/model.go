// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/litharvest/pkg/types"
)

const (
	// DefaultBudget is the number of runes of page text sent to the model.
	DefaultBudget = 12000

	defaultMaxConcurrent = 4
)

var errEmptyReply = errors.New("model returned an empty reply")

// Model is a text-generation service. Implementations live in internal/llm;
// tests supply fakes.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// identifierKey carries the record identifier into the prompt.
type identifierKey struct{}

// WithIdentifier annotates ctx with the identifier of the record being
// extracted, for use in the model prompt.
func WithIdentifier(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, identifierKey{}, identifier)
}

func identifierFrom(ctx context.Context) string {
	s, _ := ctx.Value(identifierKey{}).(string)
	return s
}

// ModelAssisted asks a text-generation model to locate the abstract.
type ModelAssisted struct {
	model  Model
	budget int
	sem    *semaphore.Weighted
}

// NewModelAssisted wraps model. cfg.Budget and cfg.MaxConcurrent fall back
// to defaults when unset.
func NewModelAssisted(model Model, cfg types.AIConfig) *ModelAssisted {
	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}
	return &ModelAssisted{
		model:  model,
		budget: budget,
		sem:    semaphore.NewWeighted(int64(limit)),
	}
}

// Name returns the strategy identifier.
func (m *ModelAssisted) Name() string { return string(types.StrategyModel) }

// Extract sends truncated page text to the model. The reply is the
// abstract unless it contains NoAbstractSentinel. Any failure to obtain a
// reply is an ExtractorError, never an empty abstract.
func (m *ModelAssisted) Extract(ctx context.Context, res types.FetchResult) types.ExtractionResult {
	if !res.OK() {
		return noContent(res)
	}

	content := string(res.Body)
	if looksLikeHTML(res.ContentType, res.Body) {
		text, err := visibleText(res.Body)
		if err == nil && text != "" {
			content = text
		}
	}
	content = truncateRunes(strings.TrimSpace(content), m.budget)
	if content == "" {
		return types.NotFound()
	}

	prompt, err := renderPrompt(identifierFrom(ctx), content)
	if err != nil {
		return types.ExtractorError(fmt.Errorf("rendering prompt: %w", err))
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return types.ExtractorError(err)
	}
	reply, err := m.model.Generate(ctx, prompt)
	m.sem.Release(1)
	if err != nil {
		return types.ExtractorError(err)
	}

	reply = strings.TrimSpace(reply)
	if strings.Contains(reply, NoAbstractSentinel) {
		return types.NotFound()
	}
	if reply == "" {
		return types.ExtractorError(errEmptyReply)
	}
	return types.Found(reply)
}
