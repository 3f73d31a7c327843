package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "retentionpulse/internal/errors"
	"retentionpulse/internal/middleware"
	"retentionpulse/internal/services"
)

// ChatHandler serves the Q&A conversation of the caller's session
type ChatHandler struct {
	service      ChatServiceInterface
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChatHandler creates a chat handler
func NewChatHandler(service ChatServiceInterface, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChatHandler {
	return &ChatHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "chat_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chat routes. The session middleware must run first.
func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(
		middleware.ContentTypeValidator(h.errorHandler, "application/json"),
		h.validator.ValidateJSONBody,
	).Post("/", h.Ask)
	r.Get("/history", h.History)
	r.Delete("/history", h.Clear)

	return r
}

// Ask handles POST /api/chat. Provider and data failures still answer 200
// with a placeholder and an error code.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sessionID := middleware.SessionID(ctx)
	reply, err := h.service.Ask(ctx, sessionID, req.Question)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuestion) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("question", "question is required"))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "question answered",
		slog.String("session_id", sessionID),
		slog.String("error_code", reply.Error),
		slog.Int("turns", len(reply.History)))
	render.JSON(w, r, reply)
}

// History handles GET /api/chat/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"history": h.service.History(middleware.SessionID(r.Context())),
	})
}

// Clear handles DELETE /api/chat/history
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	h.service.Clear(sessionID)
	h.logger.InfoContext(r.Context(), "conversation cleared", slog.String("session_id", sessionID))
	w.WriteHeader(http.StatusNoContent)
}
