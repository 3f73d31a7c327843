package http

import (
	"net/http"

	"github.com/go-chi/render"

	"retentionpulse/internal/cache"
)

// MetricsHandler exposes the Prometheus endpoint and the dataset cache statistics
type MetricsHandler struct {
	prometheus http.Handler
	cache      *cache.DatasetCache
}

// NewMetricsHandler creates a metrics handler. prometheus is nil when
// metrics export is disabled.
func NewMetricsHandler(prometheus http.Handler, datasetCache *cache.DatasetCache) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, cache: datasetCache}
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.NotFound(w, r)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// CacheStats handles GET /api/cache
func (h *MetricsHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.cache.Stats())
}
