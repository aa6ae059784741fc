package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings before the settings service
// persists them. Each check is bounded so the wizard never hangs on a
// provider that accepts connections but does not answer.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator using the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding pings the embedding provider described by config.
// Unconfigured settings pass.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return ValidateEmbeddingConfig(ctx, config)
}

// ValidateLLM pings the LLM provider described by config.
// Unconfigured settings pass.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return ValidateLLMConfig(ctx, config)
}
