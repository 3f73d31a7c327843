package http

import (
	"context"

	"retentionpulse/internal/assistant"
	"retentionpulse/internal/services"
	"retentionpulse/pkg/contracts/domain"
)

// DashboardServiceInterface is the dashboard service as seen by handlers
type DashboardServiceInterface interface {
	View(ctx context.Context, q services.ViewQuery) (*services.DashboardView, error)
	Dataset(ctx context.Context) (*domain.Dataset, error)
	Reload(ctx context.Context) (*domain.Dataset, error)
	Upload(ctx context.Context, name string, data []byte) (*services.UploadResult, error)
	SourceDescriptor() string
}

// ChatServiceInterface is the chat service as seen by handlers
type ChatServiceInterface interface {
	Ask(ctx context.Context, sessionID, question string) (*services.ChatReply, error)
	History(sessionID string) []assistant.Message
	Clear(sessionID string)
}
