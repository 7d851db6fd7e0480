// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litharvest/pkg/types"
)

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.AIConfig
		env     map[string]string
		secrets map[string]string
		want    string
		wantErr error
	}{
		{
			name: "explicit key wins",
			cfg:  types.AIConfig{Provider: "anthropic", APIKey: " sk-explicit "},
			env:  map[string]string{"ANTHROPIC_API_KEY": "sk-env"},
			want: "sk-explicit",
		},
		{
			name:    "environment before secrets",
			cfg:     types.AIConfig{},
			env:     map[string]string{"ANTHROPIC_API_KEY": "sk-env"},
			secrets: map[string]string{"anthropic-api-key": "sk-file"},
			want:    "sk-env",
		},
		{
			name:    "secrets file",
			cfg:     types.AIConfig{Provider: "gemini"},
			secrets: map[string]string{"gemini-api-key": "g-file"},
			want:    "g-file",
		},
		{
			name:    "missing",
			cfg:     types.AIConfig{Provider: "gemini"},
			secrets: map[string]string{"anthropic-api-key": "wrong-provider"},
			wantErr: ErrMissingCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", "")
			t.Setenv("GEMINI_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := ResolveAPIKey(tt.cfg, tt.secrets)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAPIKey_UnknownProvider(t *testing.T) {
	_, err := ResolveAPIKey(types.AIConfig{Provider: "mystery"}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingCredentials)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), types.AIConfig{Provider: "anthropic"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New(context.Background(), types.AIConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New(context.Background(), types.AIConfig{Provider: "other", APIKey: "k"})
	assert.Error(t, err)
}

func TestAnthropic_Generate(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "An abstract."}, {"type": "text", "text": " More."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`)
	}))
	defer ts.Close()

	a, err := NewAnthropic(types.AIConfig{APIKey: "sk-test", Model: "claude-test"},
		option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	got, err := a.Generate(context.Background(), "find the abstract")
	require.NoError(t, err)
	assert.Equal(t, "An abstract. More.", got)
	assert.Equal(t, "claude-test", gotBody["model"])
}

func TestAnthropic_GenerateAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	}))
	defer ts.Close()

	a, err := NewAnthropic(types.AIConfig{APIKey: "sk-test"}, option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestGemini_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Gemini abstract."}]}}]}`)
	}))
	defer ts.Close()

	g, err := New(context.Background(), types.AIConfig{Provider: "gemini", APIKey: "g-test", Model: "gemini-test", BaseURL: ts.URL})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), "find the abstract")
	require.NoError(t, err)
	assert.Equal(t, "Gemini abstract.", got)
}
