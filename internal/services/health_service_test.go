package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retentionpulse/internal/cache"
	"retentionpulse/internal/files"
	"retentionpulse/internal/shared/testutil"
)

// brokenSource fails every listing
type brokenSource struct{}

func (brokenSource) Descriptor() string { return "s3://broken" }
func (brokenSource) List(ctx context.Context) ([]string, error) {
	return nil, errors.New("access denied")
}
func (brokenSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	return nil, errors.New("access denied")
}

func TestHealthService_Readiness(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, "24Nov.xlsx", [][]interface{}{testutil.SurveyHeader})
	testutil.WriteWorkbook(t, dir, "25Nov.xlsx", [][]interface{}{testutil.SurveyHeader})

	tests := []struct {
		name          string
		source        files.Source
		configured    bool
		wantStatus    string
		wantSource    string
		wantAssistant string
	}{
		{name: "ready", source: files.NewLocalSource(dir, nil), configured: true, wantStatus: "ready", wantSource: "ready", wantAssistant: "ready"},
		{name: "assistant missing keeps readiness", source: files.NewLocalSource(dir, nil), wantStatus: "ready", wantSource: "ready", wantAssistant: "degraded"},
		{name: "source failing", source: brokenSource{}, configured: true, wantStatus: "not_ready", wantSource: "not_ready", wantAssistant: "ready"},
		{name: "no source", configured: true, wantStatus: "not_ready", wantSource: "not_ready", wantAssistant: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService("1.0.0", tt.source, cache.New(time.Minute), "azure", tt.configured, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			require.Contains(t, status.Services, "source")
			assert.Equal(t, tt.wantSource, status.Services["source"].Status)
			assert.Equal(t, tt.wantAssistant, status.Services["assistant"].Status)
			assert.Equal(t, "empty", status.Services["cache"].Message)
		})
	}
}

func TestHealthService_ReadinessReportsFileCount(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, "24Nov.xlsx", [][]interface{}{testutil.SurveyHeader})

	hs := NewHealthService("1.0.0", files.NewLocalSource(dir, nil), nil, "azure", true, nil)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "local:"+dir+": 1 file", status.Services["source"].Message)
	assert.Equal(t, "disabled", status.Services["cache"].Message)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil, "bedrock", false, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, "1.2.3", live.Version)
	assert.Contains(t, live.Runtime, "goroutines")

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)
	assert.Equal(t, "1.2.3", hs.Version()["version"])
}
