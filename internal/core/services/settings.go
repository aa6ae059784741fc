package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyStoreBackend     = "store.backend"
	keyStoreHost        = "store.host"
	keyStorePort        = "store.port"
	keyStoreTLS         = "store.tls"
	keyStoreAPIKey      = "store.api_key"
	keyStoreDSN         = "store.dsn"
	keyStoreDimensions  = "store.dimensions"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyTopK             = "retrieval.top_k"
	keyHistoryBackend   = "history.backend"
	keyHistoryMaxTurns  = "history.max_turns"
	keyHistoryRedisAddr = "history.redis_addr"
	keyHistoryIndex     = "history.index_turns"
	keyTimeoutSeconds   = "timeouts.operation_seconds"
	keyServerPort       = "server.port"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Unset or unrecognised values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Store: domain.StoreSettings{
			Backend:    s.getStoreBackend(defaults.Store.Backend),
			Host:       s.getString(keyStoreHost, defaults.Store.Host),
			Port:       s.getInt(keyStorePort, defaults.Store.Port),
			TLS:        s.getBool(keyStoreTLS, defaults.Store.TLS),
			APIKey:     s.configStore.GetString(keyStoreAPIKey),
			DSN:        s.configStore.GetString(keyStoreDSN),
			Dimensions: s.getInt(keyStoreDimensions, defaults.Store.Dimensions),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		History: domain.HistorySettings{
			Backend:    s.getHistoryBackend(defaults.History.Backend),
			MaxTurns:   s.getInt(keyHistoryMaxTurns, defaults.History.MaxTurns),
			RedisAddr:  s.configStore.GetString(keyHistoryRedisAddr),
			IndexTurns: s.getBool(keyHistoryIndex, defaults.History.IndexTurns),
		},
		TopK:             s.getInt(keyTopK, defaults.TopK),
		OperationTimeout: time.Duration(s.getInt(keyTimeoutSeconds, int(defaults.OperationTimeout/time.Second))) * time.Second,
		ServerPort:       s.getInt(keyServerPort, defaults.ServerPort),
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set so an empty form never erases them.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStoreHost, settings.Store.Host},
		{keyStorePort, settings.Store.Port},
		{keyStoreTLS, settings.Store.TLS},
		{keyStoreDSN, settings.Store.DSN},
		{keyStoreDimensions, settings.Store.Dimensions},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.TopK},
		{keyHistoryBackend, settings.History.Backend.String()},
		{keyHistoryMaxTurns, settings.History.MaxTurns},
		{keyHistoryRedisAddr, settings.History.RedisAddr},
		{keyHistoryIndex, settings.History.IndexTurns},
		{keyTimeoutSeconds, int(settings.OperationTimeout / time.Second)},
		{keyServerPort, settings.ServerPort},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := map[string]string{
		keyEmbedAPIKey: settings.Embedding.APIKey,
		keyLLMAPIKey:   settings.LLM.APIKey,
		keyStoreAPIKey: settings.Store.APIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidConfiguration, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidConfiguration, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = localBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	// Keep store dimensions in step with the model.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Store.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfiguration, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = localBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetStoreBackend configures the vector store backend.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidConfiguration, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Store.Backend = backend
	return s.Save(settings)
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.Store.Backend == domain.StoreBackendPGVector && settings.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required for pgvector", domain.ErrInvalidConfiguration)
	}
	if settings.History.Backend == domain.HistoryBackendRedis && settings.History.RedisAddr == "" {
		return fmt.Errorf("%w: history.redis_addr is required for redis", domain.ErrInvalidConfiguration)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// localBaseURL keeps or defaults the base URL for local providers and
// clears it for cloud providers.
func localBaseURL(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getHistoryBackend(defaultVal domain.HistoryBackend) domain.HistoryBackend {
	backend := domain.HistoryBackend(s.configStore.GetString(keyHistoryBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
