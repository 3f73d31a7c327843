package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"retentionpulse/internal/config"
)

// New returns the Asker selected by cfg.Provider. region is the fallback
// AWS region for Bedrock.
func New(ctx context.Context, cfg config.AssistantConfig, region string, logger *slog.Logger) (Asker, error) {
	switch cfg.Provider {
	case config.AssistantAzure, "":
		if !cfg.AzureConfigured() && logger != nil {
			logger.Warn("Azure OpenAI is not configured; questions will get a placeholder answer")
		}
		return NewAzureClient(cfg, &http.Client{}, logger), nil
	case config.AssistantBedrock:
		return NewBedrockClient(ctx, cfg, region, logger)
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Provider)
	}
}
