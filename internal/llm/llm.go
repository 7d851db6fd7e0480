// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides text-generation backends for model-assisted
// abstract extraction.
//
// Supported providers: anthropic (ANTHROPIC_API_KEY or .secrets/anthropic-api-key)
// and gemini (GEMINI_API_KEY or .secrets/gemini-api-key).
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/litharvest/pkg/types"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// ErrMissingCredentials is returned when no API key is available for the
// selected provider.
var ErrMissingCredentials = errors.New("missing model credentials")

// Generator produces a free-text reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// credential names the env var and secrets file for a provider.
type credential struct {
	env    string
	secret string
}

var credentials = map[string]credential{
	ProviderAnthropic: {env: "ANTHROPIC_API_KEY", secret: "anthropic-api-key"},
	ProviderGemini:    {env: "GEMINI_API_KEY", secret: "gemini-api-key"},
}

// normalizeProvider maps an empty provider to anthropic.
func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return ProviderAnthropic
	}
	return p
}

// ResolveAPIKey returns the API key for cfg.Provider, checking in order the
// explicit cfg.APIKey, the provider's environment variable, and the loaded
// secrets map. It fails with ErrMissingCredentials when none is set.
func ResolveAPIKey(cfg types.AIConfig, secrets map[string]string) (string, error) {
	provider := normalizeProvider(cfg.Provider)
	cred, ok := credentials[provider]
	if !ok {
		return "", fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
	if k := strings.TrimSpace(cfg.APIKey); k != "" {
		return k, nil
	}
	if k := strings.TrimSpace(os.Getenv(cred.env)); k != "" {
		return k, nil
	}
	if k := strings.TrimSpace(secrets[cred.secret]); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("%w: set %s or write .secrets/%s", ErrMissingCredentials, cred.env, cred.secret)
}

// New builds the Generator for cfg.Provider. cfg.APIKey must already be
// resolved.
func New(ctx context.Context, cfg types.AIConfig) (Generator, error) {
	switch normalizeProvider(cfg.Provider) {
	case ProviderAnthropic:
		return NewAnthropic(cfg)
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
