package ollama

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
		name        string
		opts        driven.GenerateOptions
		wantFormat  string
		wantOptions bool
	}{
		{name: "defaults", opts: driven.GenerateOptions{}},
		{name: "json", opts: driven.GenerateOptions{JSON: true}, wantFormat: "json"},
		{name: "sampling", opts: driven.GenerateOptions{MaxTokens: 64, Temperature: 0.2}, wantOptions: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got generateRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/generate", r.URL.Path)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"response":"done","done":true}`))
			}))
			defer srv.Close()

			svc := NewLLMService(LLMConfig{BaseURL: srv.URL})
			out, err := svc.Generate(context.Background(), "p", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, "done", out)
			assert.False(t, got.Stream)
			assert.Equal(t, DefaultLLMModel, got.Model)
			assert.Equal(t, tt.wantFormat, got.Format)
			assert.Equal(t, tt.wantOptions, got.Options != nil)
		})
	}
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid options"}`))
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")
}
