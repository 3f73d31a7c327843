package services

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"retentionpulse/internal/cache"
	"retentionpulse/internal/files"
	"retentionpulse/pkg/contracts"
)

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual dependency health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// readinessTimeout bounds the source probe
const readinessTimeout = 5 * time.Second

// HealthService provides health check functionality
type HealthService struct {
	version             string
	source              files.Source
	cache               *cache.DatasetCache
	assistantProvider   string
	assistantConfigured bool
	startTime           time.Time
	logger              *slog.Logger
}

// NewHealthService creates a health service
func NewHealthService(version string, source files.Source, datasetCache *cache.DatasetCache, assistantProvider string, assistantConfigured bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:             version,
		source:              source,
		cache:               datasetCache,
		assistantProvider:   assistantProvider,
		assistantConfigured: assistantConfigured,
		startTime:           time.Now(),
		logger:              logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck probes the survey source. The assistant is reported but
// never blocks readiness since questions degrade to a placeholder.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"source":    hs.checkSource(ctx),
			"cache":     hs.checkCache(),
			"assistant": hs.checkAssistant(),
		},
	}
	if status.Services["source"].Status != "ready" {
		status.Status = "not_ready"
	}
	return status
}

func (hs *HealthService) checkSource(ctx context.Context) ServiceHealth {
	if hs.source == nil {
		return ServiceHealth{Status: "not_ready", Message: "no source configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	names, err := hs.source.List(ctx)
	if err != nil {
		hs.logger.WarnContext(ctx, "Source readiness probe failed", slog.String("error", err.Error()))
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: hs.source.Descriptor() + ": " + pluralFiles(len(names)),
	}
}

func (hs *HealthService) checkCache() ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: "ready", Message: "disabled"}
	}
	stats := hs.cache.Stats()
	msg := "empty"
	if stats.Entries > 0 {
		msg = "loaded " + stats.LastLoad.Format(time.RFC3339)
	}
	return ServiceHealth{Status: "ready", Message: msg}
}

func (hs *HealthService) checkAssistant() ServiceHealth {
	if !hs.assistantConfigured {
		return ServiceHealth{Status: "degraded", Message: hs.assistantProvider + " not configured"}
	}
	return ServiceHealth{Status: "ready", Message: hs.assistantProvider}
}

// Version returns the build information and uptime
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo(hs.version)
	return map[string]interface{}{
		"version":     info.Version,
		"build_time":  info.BuildTime,
		"git_commit":  info.GitCommit,
		"go_version":  info.GoVersion,
		"os":          info.OS,
		"arch":        info.Architecture,
		"data_format": info.DataFormat,
		"api_version": info.APIVersion,
		"uptime":      time.Since(hs.startTime).Seconds(),
		"start_time":  hs.startTime.Format(time.RFC3339),
	}
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return strconv.Itoa(n) + " files"
}
