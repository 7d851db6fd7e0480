package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litharvest/0.1 (mailto:someone@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// ThrottleRetries is the number of backoff retries on HTTP 429.
	// Zero disables throttle retries.
	ThrottleRetries int `json:"throttle_retries" yaml:"throttle_retries"`

	// Headers are extra request headers, such as an API key.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// FetchSource names a preset URL template for the fetch client.
type FetchSource string

const (
	SourceDOI             FetchSource = "doi"
	SourceCrossRef        FetchSource = "crossref"
	SourceOpenAlex        FetchSource = "openalex"
	SourceSemanticScholar FetchSource = "semanticscholar"
)

// Strategy names an extraction strategy.
type Strategy string

const (
	StrategyStructural    Strategy = "structural"
	StrategyAPIField      Strategy = "api"
	StrategyInvertedIndex Strategy = "inverted"
	StrategyModel         Strategy = "model"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the model backend: "anthropic" or "gemini".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider's API base URL. Useful for proxies/testing.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxConcurrent caps in-flight model calls across all workers (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// Budget is the number of characters of page text sent to the model (default 12000).
	Budget int `json:"budget" yaml:"budget"`
}

// HarvestConfig holds settings for the harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Source selects the fetch preset (doi, crossref, openalex or semanticscholar).
	Source FetchSource `json:"source" yaml:"source"`

	// URLTemplate overrides the preset; "{id}" is replaced by the identifier.
	URLTemplate string `json:"url_template,omitempty" yaml:"url_template,omitempty"`

	// Strategies is the ordered extraction fallback chain.
	Strategies []Strategy `json:"strategies" yaml:"strategies"`

	// Selectors overrides the structural selector priority list.
	Selectors []string `json:"selectors,omitempty" yaml:"selectors,omitempty"`

	// FieldPath is the gjson path used by the API-field strategy. The
	// default depends on Source ("message.abstract" for crossref).
	FieldPath string `json:"field_path,omitempty" yaml:"field_path,omitempty"`

	// Concurrency is the number of dispatch slots (default 10).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Interval is the minimum delay between dispatches on one slot (default 500ms).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// BatchSize is the number of records per sink flush (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RetryPasses is the number of extra passes over failed records (default 0).
	RetryPasses int `json:"retry_passes" yaml:"retry_passes"`

	AI AIConfig `json:"ai" yaml:"ai"`
}

// DedupeConfig holds settings for the duplicate resolver.
type DedupeConfig struct {
	// Mode selects exact DOI matching or fuzzy title matching.
	Mode DedupeMode `json:"mode" yaml:"mode"`

	// Threshold is the similarity a title must exceed to join a group (default 0.9).
	Threshold float64 `json:"threshold" yaml:"threshold"`
}
