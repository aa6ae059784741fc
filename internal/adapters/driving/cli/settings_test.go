package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o", APIKey: "sk-1234567890abcd"}
	ts.settings.settings.Store = domain.StoreSettings{Backend: domain.StoreBackendPGVector}

	out, err := execute(t, "", "settings", "show")
	require.NoError(t, err)

	for _, want := range []string{
		"[Embedding]", "[LLM]", "[Store]", "[Chunking]", "[History]",
		"OpenAI (cloud)", "gpt-4o", "sk-1...abcd",
		"PostgreSQL + pgvector", "DSN: (not set)",
		"Configuration is valid.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "sk-1234567890abcd")
}

func TestSettingsShow_Invalid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("embedding provider not configured")

	out, err := execute(t, "", "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: embedding provider not configured")
	assert.Contains(t, out, "notewise settings wizard")
}

func TestSettingsStore(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     domain.StoreBackend
		wantNote string
		wantErr  bool
	}{
		{name: "sqlite", input: "1\n", want: domain.StoreBackendSQLite},
		{name: "pgvector", input: "3\n", want: domain.StoreBackendPGVector, wantNote: "store.dsn"},
		{name: "qdrant", input: "4\n", want: domain.StoreBackendQdrant, wantNote: "store.host"},
		{name: "no default", input: "\n", wantErr: true},
		{name: "out of range", input: "9\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()

			out, err := execute(t, tt.input, "settings", "store")
			if tt.wantErr {
				assert.EqualError(t, err, "invalid selection")
				assert.Empty(t, ts.settings.backends)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []domain.StoreBackend{tt.want}, ts.settings.backends)
			assert.Contains(t, out, "Store backend set to: "+tt.want.Description())
			if tt.wantNote != "" {
				assert.Contains(t, out, tt.wantNote)
			}
		})
	}
}

func TestSettingsEmbedding(t *testing.T) {
	t.Run("ollama with default model", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "1\n\n", "settings", "embedding")
		require.NoError(t, err)
		want := string(domain.AIProviderOllama) + "|" + domain.DefaultEmbeddingModels()[domain.AIProviderOllama] + "|"
		assert.Equal(t, []string{want}, ts.settings.embeddingCalls)
		assert.Contains(t, out, "Validating configuration... OK")
	})

	t.Run("cloud provider needs a key", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "2\ntext-embedding-3-small\n\n", "settings", "embedding")
		assert.EqualError(t, err, "API key is required for this provider")
		assert.Empty(t, ts.settings.embeddingCalls)
	})

	t.Run("cloud provider with key", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "2\ntext-embedding-3-small\nsk-test\n", "settings", "embedding")
		require.NoError(t, err)
		assert.Equal(t, []string{"openai|text-embedding-3-small|sk-test"}, ts.settings.embeddingCalls)
	})

	t.Run("validation failure", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.embeddingErr = errors.New("connection refused")

		out, err := execute(t, "1\n\n", "settings", "embedding")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding configuration validation failed")
		assert.Contains(t, out, "FAILED: connection refused")
	})
}

func TestSettingsLLM(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "3\nclaude-x\nsk-ant\n", "settings", "llm")
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic|claude-x|sk-ant"}, ts.settings.llmCalls)
}

func TestSettingsWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "1\n\n1\n\n\n", "settings", "wizard")
	require.NoError(t, err)

	assert.Len(t, ts.settings.embeddingCalls, 1)
	assert.Len(t, ts.settings.llmCalls, 1)
	assert.Equal(t, []domain.StoreBackend{domain.StoreBackendSQLite}, ts.settings.backends)
	assert.Contains(t, out, "Step 3: Select Vector Store")
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	for _, sub := range []string{"show", "wizard", "embedding", "llm", "store"} {
		t.Run(sub, func(t *testing.T) {
			_, cleanup := setupTestServices()
			defer cleanup()
			settingsService = nil

			_, err := execute(t, "", "settings", sub)
			assert.EqualError(t, err, "settings service not configured")
		})
	}
}
