package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"retentionpulse/internal/assistant"
	"retentionpulse/internal/infrastructure"
)

// ChatReply is the answer to one question. Error carries a short code when
// Answer is a placeholder.
type ChatReply struct {
	Answer  string              `json:"answer"`
	Error   string              `json:"error,omitempty"`
	History []assistant.Message `json:"history"`
}

// ChatService answers questions about the loaded dataset.
type ChatService struct {
	data         *DashboardService
	asker        assistant.Asker
	sessions     *assistant.SessionStore
	systemPrompt string
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
}

// NewChatService creates a chat service. systemPrompt is sent with every question.
func NewChatService(data *DashboardService, asker assistant.Asker, sessions *assistant.SessionStore, systemPrompt string, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = assistant.NewSessionStore(0)
	}
	return &ChatService{
		data:         data,
		asker:        asker,
		sessions:     sessions,
		systemPrompt: systemPrompt,
		metrics:      metrics,
		logger:       logger.With(slog.String("service", "chat")),
	}
}

// Ask answers question for the session and appends the exchange to its
// history. It never fails on provider or data errors; those produce a
// placeholder answer. Only a blank question is rejected.
func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (*ChatReply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := time.Now()
	answer, err := s.answer(ctx, question)
	duration := time.Since(start)

	reply := &ChatReply{Answer: answer}
	outcome := "answered"
	if err != nil {
		reply.Answer, reply.Error = assistant.Placeholder(err)
		outcome = reply.Error
		s.logger.WarnContext(ctx, "Question answered with placeholder",
			slog.String("code", reply.Error),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
	}
	s.metrics.RecordAssistantRequest(ctx, s.provider(), outcome, duration)

	s.sessions.Record(sessionID, question, reply.Answer, reply.Error)
	reply.History = s.sessions.History(sessionID)
	return reply, nil
}

func (s *ChatService) answer(ctx context.Context, question string) (string, error) {
	summary, ok, err := s.data.Summary(ctx)
	if err != nil {
		return "", errors.Join(assistant.ErrDataUnavailable, err)
	}
	if !ok {
		return "", assistant.ErrNoData
	}
	if s.asker == nil {
		return "", assistant.ErrNotConfigured
	}

	ctx, span := infrastructure.StartSpan(ctx, "assistant.ask")
	defer span.End()

	answer, err := s.asker.Ask(ctx, s.systemPrompt, summary.String(), question)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", err
	}
	return answer, nil
}

func (s *ChatService) provider() string {
	if s.asker == nil {
		return "none"
	}
	return s.asker.Provider()
}

// History returns the session's conversation
func (s *ChatService) History(sessionID string) []assistant.Message {
	return s.sessions.History(sessionID)
}

// Clear forgets the session's conversation
func (s *ChatService) Clear(sessionID string) {
	s.sessions.Clear(sessionID)
}
