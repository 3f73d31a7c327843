package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// PageConfig is the data rendered into the dashboard page
type PageConfig struct {
	Title         string
	Version       string
	Source        string
	DefaultStart  string
	UploadEnabled bool
	AssistantName string
}

// ServeDashboard serves the single-page dashboard
func ServeDashboard(page PageConfig, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, page); err != nil {
			logger.ErrorContext(r.Context(), "failed to render dashboard page", slog.String("error", err.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}
