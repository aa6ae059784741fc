package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies the vector store implementation.
type StoreBackend string

// Available vector store backends.
const (
	// StoreBackendSQLite keeps vectors in the local SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps vectors in process memory only.
	StoreBackendMemory StoreBackend = "memory"

	// StoreBackendPGVector keeps vectors in PostgreSQL with the pgvector extension.
	StoreBackendPGVector StoreBackend = "pgvector"

	// StoreBackendQdrant keeps vectors in a Qdrant server.
	StoreBackendQdrant StoreBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendMemory, StoreBackendPGVector, StoreBackendQdrant:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the backend is reached over the network.
func (b StoreBackend) IsRemote() bool {
	return b == StoreBackendPGVector || b == StoreBackendQdrant
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendSQLite:
		return "SQLite (local file)"
	case StoreBackendMemory:
		return "Memory (process lifetime)"
	case StoreBackendPGVector:
		return "PostgreSQL + pgvector"
	case StoreBackendQdrant:
		return "Qdrant server"
	default:
		return unknownDescription
	}
}

// HistoryBackend identifies the conversation history implementation.
type HistoryBackend string

// Available history backends.
const (
	HistoryBackendMemory HistoryBackend = "memory"
	HistoryBackendSQLite HistoryBackend = "sqlite"
	HistoryBackendRedis  HistoryBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b HistoryBackend) IsValid() bool {
	switch b {
	case HistoryBackendMemory, HistoryBackendSQLite, HistoryBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b HistoryBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model identifier.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible servers).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// RequestsPerSecond caps embedding calls. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the vector store implementation.
	Backend StoreBackend

	// Host is the store server host (qdrant).
	Host string

	// Port is the store server port (qdrant).
	Port int

	// TLS enables https when talking to the store server.
	TLS bool

	// APIKey authenticates against the store server, when required.
	APIKey string

	// DSN is the PostgreSQL connection string (pgvector).
	DSN string

	// Dimensions is the embedding vector size, required by pgvector and qdrant.
	Dimensions int
}

// URL builds the store server base URL from host, port and TLS flag.
func (s StoreSettings) URL() string {
	scheme := "http"
	if s.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Host, s.Port)
}

// ChunkingSettings holds chunker parameters.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters consecutive windows share.
	Overlap int
}

// Validate returns ErrInvalidConfiguration for unusable parameters.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 || c.Overlap <= 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk size %d, overlap %d", ErrInvalidConfiguration, c.Size, c.Overlap)
	}
	return nil
}

// HistorySettings holds conversation history configuration.
type HistorySettings struct {
	// Backend selects where turns are kept.
	Backend HistoryBackend

	// MaxTurns bounds each session; oldest turns are evicted first.
	MaxTurns int

	// RedisAddr is the redis address (redis backend).
	RedisAddr string

	// IndexTurns also writes each exchange to the chat_history collection.
	IndexTurns bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Store holds vector store settings.
	Store StoreSettings

	// Chunking holds default chunker parameters.
	Chunking ChunkingSettings

	// History holds conversation history settings.
	History HistorySettings

	// TopK is the default number of chunks retrieved per query.
	TopK int

	// OperationTimeout bounds each embedder and store call.
	OperationTimeout time.Duration

	// ServerPort is the REST API listen port.
	ServerPort int
}

// Default settings values.
const (
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultTopK             = 2
	DefaultOperationTimeout = 30 * time.Second
	DefaultServerPort       = 3000
	DefaultStoreHost        = "localhost"
	DefaultStorePort        = 6333
)

// DefaultAppSettings returns settings with sensible defaults.
// AI features (Embedding, LLM) are left unconfigured by default.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Store: StoreSettings{
			Backend:    StoreBackendSQLite,
			Host:       DefaultStoreHost,
			Port:       DefaultStorePort,
			Dimensions: 768, // nomic-embed-text default
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		History: HistorySettings{
			Backend:    HistoryBackendMemory,
			MaxTurns:   DefaultMaxTurns,
			IndexTurns: true,
		},
		TopK:             DefaultTopK,
		OperationTimeout: DefaultOperationTimeout,
		ServerPort:       DefaultServerPort,
	}
}

// Validate checks the settings that do not depend on external services.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if !s.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfiguration, s.Store.Backend)
	}
	if !s.History.Backend.IsValid() {
		return fmt.Errorf("%w: unknown history backend %q", ErrInvalidConfiguration, s.History.Backend)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfiguration)
	}
	if s.History.MaxTurns <= 0 {
		return fmt.Errorf("%w: history.max_turns must be positive", ErrInvalidConfiguration)
	}
	if s.OperationTimeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// AllStoreBackends returns all vector store backends.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{
		StoreBackendSQLite,
		StoreBackendMemory,
		StoreBackendPGVector,
		StoreBackendQdrant,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "gemini-embedding-001",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
	}
}
