package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "retentionpulse/internal/errors"
	"retentionpulse/internal/shared/testutil"
)

func TestDashboardService_View(t *testing.T) {
	loader := &stubLoader{ds: testutil.SampleDataset()}
	svc, _ := newTestDashboard(t, loader, DashboardOptions{})

	view, err := svc.View(context.Background(), ViewQuery{})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, view.Status)
	assert.Equal(t, DateRange{From: "2024-11-24", To: "2024-11-25", MinDate: "2024-11-24", MaxDate: "2024-11-25"}, view.Range)

	require.Len(t, view.Buckets, 2)
	assert.Equal(t, 3, view.Buckets[0].Total)
	assert.Equal(t, 1, view.Buckets[0].Accepted)
	assert.Equal(t, 2, view.Buckets[1].Total)
	assert.Equal(t, 2, view.Buckets[1].Accepted)

	require.Len(t, view.Cumulative, 2)
	assert.Equal(t, 5, view.Cumulative[1].CumulativeTotal)
	assert.Equal(t, 3, view.Cumulative[1].CumulativeAccepted)
	assert.Equal(t, 60.0, view.Cumulative[1].CumulativePct)

	require.Len(t, view.Distributions, 2)
	assert.Equal(t, 3, view.Distributions[0].Yes)
	assert.Equal(t, 2, view.Distributions[0].No)

	// summary and duplicates cover the undated record too
	assert.Equal(t, 6, view.Summary.Total)
	assert.Equal(t, 4, view.Summary.Cancellations)
	assert.Equal(t, 50.0, view.Summary.RetentionRate)
	require.True(t, view.Duplicates.HasDuplicates())
	assert.Equal(t, "100", view.Duplicates.Groups[0].CustomerID)

	assert.Equal(t, 6, view.Footer.TotalRecords)
	assert.Equal(t, 5, view.Footer.ShownRecords)
	assert.Len(t, view.Footer.Files, 3)
}

func TestDashboardService_ViewRanges(t *testing.T) {
	nov25 := time.Date(2024, time.November, 25, 15, 30, 0, 0, time.UTC)
	nov24 := time.Date(2024, time.November, 24, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		opts      DashboardOptions
		query     ViewQuery
		wantFrom  string
		wantShown int
		wantErr   bool
	}{
		{name: "explicit start", query: ViewQuery{From: &nov25}, wantFrom: "2024-11-25", wantShown: 2},
		{name: "explicit end", query: ViewQuery{To: &nov24}, wantFrom: "2024-11-24", wantShown: 3},
		{
			name:      "default start after the data falls back to the first date",
			opts:      DashboardOptions{DefaultStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
			wantFrom:  "2024-11-24",
			wantShown: 5,
		},
		{name: "inverted range", query: ViewQuery{From: &nov25, To: &nov24}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestDashboard(t, &stubLoader{ds: testutil.SampleDataset()}, tt.opts)
			view, err := svc.View(context.Background(), tt.query)
			if tt.wantErr {
				var appErr *apperrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, view.Range.From)
			assert.Equal(t, tt.wantShown, view.Footer.ShownRecords)
		})
	}
}

func TestDashboardService_EmptySource(t *testing.T) {
	svc, _ := newTestDashboard(t, &stubLoader{}, DashboardOptions{})

	view, err := svc.View(context.Background(), ViewQuery{})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, view.Status)
	assert.Contains(t, view.Message, "memory:test")
	assert.NotNil(t, view.Buckets)

	_, ok, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDashboardService_LoadErrorPropagates(t *testing.T) {
	listErr := apperrors.NewNetworkError("failed to list survey files", errors.New("dial tcp: timeout"))
	svc, _ := newTestDashboard(t, &stubLoader{err: listErr}, DashboardOptions{})

	_, err := svc.View(context.Background(), ViewQuery{})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeNetwork, appErr.Type)
}

func TestDashboardService_CachesAndReloads(t *testing.T) {
	loader := &stubLoader{ds: testutil.SampleDataset()}
	svc, _ := newTestDashboard(t, loader, DashboardOptions{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Dataset(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loader.Calls())

	_, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())
}

func TestDashboardService_Upload(t *testing.T) {
	loader := &stubLoader{ds: testutil.SampleDataset()}
	svc, src := newTestDashboard(t, loader, DashboardOptions{EnableUpload: true, MaxUploadSize: 1 << 20})
	ctx := context.Background()

	_, err := svc.Dataset(ctx)
	require.NoError(t, err)

	data := testutil.WorkbookBytes(t, [][]interface{}{
		testutil.SurveyHeader,
		{"200", "Si", "No", ""},
		{"201", "no", "SI", ""},
	})
	result, err := svc.Upload(ctx, `C:\fakepath\26Nov.xlsx`, data)
	require.NoError(t, err)

	assert.Equal(t, "26Nov.xlsx", result.File)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, fmt.Sprintf("%d-11-26", time.Now().Year()), result.CutoffDate)
	assert.Contains(t, src.saved, "26Nov.xlsx")

	// the upload invalidated the cache
	_, err = svc.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Calls())
}

func TestDashboardService_UploadRejected(t *testing.T) {
	valid := testutil.WorkbookBytes(t, [][]interface{}{testutil.SurveyHeader, {"1", "Si", "Si", ""}})

	tests := []struct {
		name     string
		opts     DashboardOptions
		file     string
		data     []byte
		wantCode string
		wantType apperrors.ErrorType
	}{
		{name: "disabled", opts: DashboardOptions{}, file: "a.xlsx", data: valid, wantType: apperrors.ErrTypeValidation},
		{name: "too large", opts: DashboardOptions{EnableUpload: true, MaxUploadSize: 10}, file: "a.xlsx", data: valid, wantCode: "UPLOAD_TOO_LARGE"},
		{name: "wrong extension", opts: DashboardOptions{EnableUpload: true}, file: "a.csv", data: valid, wantType: apperrors.ErrTypeValidation},
		{name: "not a workbook", opts: DashboardOptions{EnableUpload: true}, file: "a.xlsx", data: []byte("plain text"), wantCode: "UPLOAD_REJECTED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, src := newTestDashboard(t, &stubLoader{}, tt.opts)
			_, err := svc.Upload(context.Background(), tt.file, tt.data)
			require.Error(t, err)
			assert.Empty(t, src.saved)

			if tt.wantCode != "" {
				var apiErr *apperrors.APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
				return
			}
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantType, appErr.Type)
		})
	}
}
