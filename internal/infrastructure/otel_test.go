package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"retentionpulse/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewOTelConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantTraces  string
		wantMetrics string
		wantService string
	}{
		{"all disabled", config.TelemetryConfig{}, "none", "none", ServiceName},
		{"metrics only", config.TelemetryConfig{MetricsEnabled: true, ServiceName: "surveys"}, "none", "prometheus", "surveys"},
		{"both", config.TelemetryConfig{MetricsEnabled: true, TracesToStdout: true}, "stdout", "prometheus", ServiceName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oc := NewOTelConfig(tt.cfg, "1.2.3")
			assert.Equal(t, tt.wantTraces, oc.TraceExporter)
			assert.Equal(t, tt.wantMetrics, oc.MetricExporter)
			assert.Equal(t, tt.wantService, oc.ServiceName)
			assert.Equal(t, "1.2.3", oc.ServiceVersion)
		})
	}
}

func TestInitializeOTel_PrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(NewOTelConfig(config.TelemetryConfig{MetricsEnabled: true}, "test"), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordCacheLookup(context.Background(), true)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataset_cache_hits_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(NewOTelConfig(config.TelemetryConfig{}, "test"), discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "jaeger"}, discardLogger())
	assert.Error(t, err)
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "stdout", SampleRatio: 1}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "dataset.load")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.NotEmpty(t, traceID)

	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
}

// collect registers metrics on a manual reader and returns the sum of each
// counter by name after fn runs.
func collect(t *testing.T, fn func(*BusinessMetrics)) map[string]int64 {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)
	fn(m)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[md.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					sums[md.Name] = dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					sums[md.Name] += int64(dp.Count)
				}
			}
		}
	}
	return sums
}

func TestBusinessMetrics_Recorders(t *testing.T) {
	ctx := context.Background()
	sums := collect(t, func(m *BusinessMetrics) {
		m.RecordDatasetLoad(ctx, "local:data", 3, 1, 120, 40*time.Millisecond, nil)
		m.RecordDatasetLoad(ctx, "local:data", 0, 0, 0, time.Millisecond, errors.New("list failed"))
		m.RecordCacheLookup(ctx, true)
		m.RecordCacheLookup(ctx, true)
		m.RecordCacheLookup(ctx, false)
		m.RecordAssistantRequest(ctx, "azure", "answered", time.Second)
		m.RecordUpload(ctx, true)
	})

	assert.Equal(t, int64(2), sums["dataset_loads_total"])
	assert.Equal(t, int64(2), sums["dataset_load_duration_seconds"])
	assert.Equal(t, int64(3), sums["survey_files_ingested_total"])
	assert.Equal(t, int64(1), sums["survey_ingest_warnings_total"])
	assert.Equal(t, int64(120), sums["dataset_records"])
	assert.Equal(t, int64(2), sums["dataset_cache_hits_total"])
	assert.Equal(t, int64(1), sums["dataset_cache_misses_total"])
	assert.Equal(t, int64(1), sums["assistant_requests_total"])
	assert.Equal(t, int64(1), sums["survey_uploads_total"])
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	assert.NotPanics(t, func() {
		m.RecordDatasetLoad(context.Background(), "s", 1, 0, 1, time.Second, nil)
		m.RecordCacheLookup(context.Background(), false)
		m.RecordAssistantRequest(context.Background(), "azure", "timeout", time.Second)
		m.RecordUpload(context.Background(), false)
	})
}
