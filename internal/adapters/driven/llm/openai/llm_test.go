package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name         string
		opts         driven.GenerateOptions
		wantMessages int
		wantFormat   bool
	}{
		{name: "plain prompt", opts: driven.GenerateOptions{}, wantMessages: 1},
		{name: "system prompt", opts: driven.GenerateOptions{SystemPrompt: "sys"}, wantMessages: 2},
		{name: "json mode", opts: driven.GenerateOptions{JSON: true, MaxTokens: 50}, wantMessages: 1, wantFormat: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got chatCompletionRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"answer"},"finish_reason":"stop"}]}`))
			}))
			defer srv.Close()

			svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: srv.URL})
			require.NoError(t, err)

			out, err := svc.Generate(context.Background(), "question", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, "answer", out)

			require.Len(t, got.Messages, tt.wantMessages)
			last := got.Messages[len(got.Messages)-1]
			assert.Equal(t, "user", last.Role)
			assert.Equal(t, "question", last.Content)
			if tt.opts.SystemPrompt != "" {
				assert.Equal(t, "system", got.Messages[0].Role)
			}
			assert.Equal(t, tt.wantFormat, got.ResponseFormat != nil)
			assert.Equal(t, tt.opts.MaxTokens, got.MaxTokens)
		})
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.Error(t, err)
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)

	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}
