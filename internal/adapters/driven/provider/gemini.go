package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

// NewGeminiService builds a Generative Language client, pointed at baseURL when set.
func NewGeminiService(ctx context.Context, apiKey, baseURL string) (*generativelanguage.Service, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(baseURL, "/")+"/"))
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", Redact(err))
	}
	return svc, nil
}

// GeminiResource returns the "models/..." form the API expects.
func GeminiResource(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}
