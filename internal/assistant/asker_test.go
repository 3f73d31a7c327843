package assistant

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
		wantCode string
	}{
		{"timeout", ErrTimeout, "⏱️ Timeout. Intenta de nuevo.", CodeTimeout},
		{"wrapped timeout", fmt.Errorf("ask: %w", ErrTimeout), "⏱️ Timeout. Intenta de nuevo.", CodeTimeout},
		{"status", &StatusError{Code: 401}, "❌ Error 401", CodeHTTPStatus},
		{"not configured", ErrNotConfigured, PlaceholderNotConfigured, CodeNotConfigured},
		{"no data", ErrNoData, "⚠️ No hay datos cargados para analizar.", CodeNoData},
		{"load failed", ErrDataUnavailable, "⚠️ Error al cargar datos.", CodeLoadFailed},
		{"other", errors.New("connection refused"), "❌ Error: connection refused", CodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, code := Placeholder(tt.err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestPlaceholder_TruncatesLongErrors(t *testing.T) {
	text, _ := Placeholder(errors.New(strings.Repeat("x", 300)))
	assert.Equal(t, "❌ Error: "+strings.Repeat("x", 100), text)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Datos: Total:1\nPregunta: ¿hola?\nRespuesta breve:", UserMessage("Total:1", "¿hola?"))
}
