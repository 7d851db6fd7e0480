// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/litharvest/pkg/types"
)

const maxReplyTokens = 2048

// Anthropic calls the Claude Messages API.
type Anthropic struct {
	client *anthropic.Client
	model  string
}

// NewAnthropic builds a Claude client. Extra request options are applied
// after the key and base URL.
func NewAnthropic(cfg types.AIConfig, opts ...option.RequestOption) (*Anthropic, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: anthropic API key is empty", ErrMissingCredentials)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if u := strings.TrimSpace(cfg.BaseURL); u != "" {
		base = append(base, option.WithBaseURL(u))
	}
	opts = append(base, opts...)
	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client, model: model}, nil
}

// Generate sends prompt as a single user message and concatenates the
// text blocks of the reply.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxReplyTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content in anthropic response")
	}
	return b.String(), nil
}
