package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Asker sends one question with its data context to a model.
type Asker interface {
	Ask(ctx context.Context, system, dataContext, question string) (string, error)
	// Provider names the backend, e.g. "azure" or "bedrock".
	Provider() string
}

var (
	// ErrTimeout is returned when the model does not answer within the deadline.
	ErrTimeout = errors.New("assistant request timed out")
	// ErrNotConfigured is returned when credentials or the endpoint are missing.
	ErrNotConfigured = errors.New("assistant is not configured")
	// ErrEmptyAnswer is returned when the model reply carries no text.
	ErrEmptyAnswer = errors.New("assistant returned no answer")
	// ErrNoData is used by callers when no dataset is loaded.
	ErrNoData = errors.New("no survey data loaded")
	// ErrDataUnavailable is used by callers when the dataset failed to load.
	ErrDataUnavailable = errors.New("survey data could not be loaded")
)

// StatusError is a non-success HTTP status from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("assistant returned status %d", e.Code)
	}
	return fmt.Sprintf("assistant returned status %d: %s", e.Code, e.Body)
}

// Placeholder answers shown instead of a model reply
const (
	PlaceholderTimeout       = "⏱️ Timeout. Intenta de nuevo."
	PlaceholderNotConfigured = "⚠️ Configura Azure OpenAI en el archivo .env"
	PlaceholderNoData        = "⚠️ No hay datos cargados para analizar."
	PlaceholderLoadFailed    = "⚠️ Error al cargar datos."
)

// Error codes reported next to a placeholder
const (
	CodeTimeout       = "timeout"
	CodeHTTPStatus    = "http_error"
	CodeNotConfigured = "not_configured"
	CodeNoData        = "no_data"
	CodeLoadFailed    = "load_failed"
	CodeError         = "error"
)

// Placeholder returns the text shown to the user for err and a short code
// for logs and metrics.
func Placeholder(err error) (text, code string) {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrTimeout):
		return PlaceholderTimeout, CodeTimeout
	case errors.As(err, &statusErr):
		return fmt.Sprintf("❌ Error %d", statusErr.Code), CodeHTTPStatus
	case errors.Is(err, ErrNotConfigured):
		return PlaceholderNotConfigured, CodeNotConfigured
	case errors.Is(err, ErrNoData):
		return PlaceholderNoData, CodeNoData
	case errors.Is(err, ErrDataUnavailable):
		return PlaceholderLoadFailed, CodeLoadFailed
	default:
		return "❌ Error: " + truncate(err.Error(), 100), CodeError
	}
}

// UserMessage formats the data context and question into the user turn.
func UserMessage(dataContext, question string) string {
	return fmt.Sprintf("Datos: %s\nPregunta: %s\nRespuesta breve:", dataContext, question)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
