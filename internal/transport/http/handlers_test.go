package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retentionpulse/internal/assistant"
	apierrors "retentionpulse/internal/errors"
	"retentionpulse/internal/middleware"
	"retentionpulse/internal/services"
	"retentionpulse/internal/shared/testutil"
	"retentionpulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) View(ctx context.Context, q services.ViewQuery) (*services.DashboardView, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardView), args.Error(1)
}

func (m *MockDashboardService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDashboardService) Reload(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDashboardService) Upload(ctx context.Context, name string, data []byte) (*services.UploadResult, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UploadResult), args.Error(1)
}

func (m *MockDashboardService) SourceDescriptor() string { return "local:testdata" }

// MockChatService is a mock implementation of ChatServiceInterface
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Ask(ctx context.Context, sessionID, question string) (*services.ChatReply, error) {
	args := m.Called(sessionID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ChatReply), args.Error(1)
}

func (m *MockChatService) History(sessionID string) []assistant.Message {
	args := m.Called(sessionID)
	return args.Get(0).([]assistant.Message)
}

func (m *MockChatService) Clear(sessionID string) {
	m.Called(sessionID)
}

type fixture struct {
	dashboard *MockDashboardService
	chat      *MockChatService
	router    chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)
	v := middleware.NewValidationMiddleware(logger, eh)

	f := &fixture{dashboard: new(MockDashboardService), chat: new(MockChatService)}
	f.router = NewRouter(RouterConfig{
		Dashboard:    NewDashboardHandler(f.dashboard, v, 1<<20, logger, eh),
		Chat:         NewChatHandler(f.chat, v, logger, eh),
		Health:       NewHealthHandler(services.NewHealthService("test", nil, nil, "azure", false, logger), logger),
		ClientLog:    NewClientLogHandler(v, logger, eh),
		Metrics:      NewMetricsHandler(nil, nil),
		Page:         ServeDashboard(PageConfig{Title: "Retención", Version: "test"}, logger),
		ErrorHandler: eh,
		Logger:       logger,
	})
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func sampleView() *services.DashboardView {
	ds := testutil.SampleDataset()
	return &services.DashboardView{
		Status: services.StatusOK,
		Range:  services.DateRange{From: "2024-11-24", To: "2024-11-25"},
		Buckets: []domain.DateBucketSummary{
			{CutoffDate: *testutil.Date(2024, time.November, 24), Total: 3, Accepted: 1, NotAccepted: 2},
		},
		Cumulative: []domain.DateBucketSummary{
			{CutoffDate: *testutil.Date(2024, time.November, 24), Total: 3, Accepted: 1, NotAccepted: 2, CumulativeTotal: 3, CumulativeAccepted: 1, CumulativePct: 33.3},
		},
		Duplicates: domain.DuplicateReport{Applicable: true, Groups: []domain.DuplicateGroup{{CustomerID: "100", Count: 2}}},
		Footer:     services.Footer{TotalRecords: ds.Len(), ShownRecords: 5, Files: ds.Files},
	}
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	from := time.Date(2024, time.November, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		setupMock      func(m *MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "default range",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.ViewQuery{}).Return(sampleView(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:  "explicit start",
			query: "?from=2024-11-25",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.ViewQuery{From: &from}).Return(sampleView(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_records":6`,
		},
		{
			name:           "malformed date",
			query:          "?from=25-11-2024",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "YYYY-MM-DD",
		},
		{
			name:  "empty source",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.ViewQuery{}).Return(&services.DashboardView{Status: services.StatusEmpty, Message: "No se encontraron archivos Excel en local:testdata"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"empty"`,
		},
		{
			name:  "source unreachable",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.ViewQuery{}).Return(nil,
					apierrors.NewNetworkError("failed to list survey files", errors.New("no route to host")).WithContext("source", "s3://bucket"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "s3://bucket",
		},
		{
			name:  "inverted range",
			query: "?from=2024-11-26&to=2024-11-24",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(nil, apierrors.NewAppValidationError(services.ErrInvalidRange.Error()))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "start date is after end date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f.dashboard)

			rec := f.do(httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			f.dashboard.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Reload(t *testing.T) {
	f := newFixture(t)
	f.dashboard.On("Reload").Return(testutil.SampleDataset(), nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(6), body["records"])
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDashboardHandler_Upload(t *testing.T) {
	workbook := testutil.WorkbookBytes(t, [][]interface{}{testutil.SurveyHeader, {"1", "Si", "No", ""}})

	tests := []struct {
		name           string
		field          string
		file           string
		setupMock      func(m *MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "stored",
			field: "file",
			file:  "26Nov.xlsx",
			setupMock: func(m *MockDashboardService) {
				m.On("Upload", "26Nov.xlsx", workbook).Return(&services.UploadResult{File: "26Nov.xlsx", Rows: 1, Source: "local:testdata"}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"rows":1`,
		},
		{
			name:           "missing field",
			field:          "",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "VALIDATION_FAILED",
		},
		{
			name:           "not a workbook name",
			field:          "file",
			file:           "notes.txt",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ".xlsx",
		},
		{
			name:  "unreadable workbook",
			field: "file",
			file:  "26Nov.xlsx",
			setupMock: func(m *MockDashboardService) {
				m.On("Upload", "26Nov.xlsx", workbook).Return(nil, apierrors.UploadRejectedError(errors.New("zip: not a valid zip file")))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "UPLOAD_REJECTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f.dashboard)

			body, ctype := multipartBody(t, tt.field, tt.file, workbook)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", ctype)
			rec := f.do(req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			f.dashboard.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Exports(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		contains    string
	}{
		{"buckets", "/api/export/buckets.csv", "text/csv", "2024-11-24,3,1,2"},
		{"duplicates", "/api/export/duplicates.csv", "text/csv", "100,2"},
		{"records", "/api/export/records.csv", "text/csv", "Customer id,Quiere baja"},
		{"workbook", "/api/export/report.xlsx", "spreadsheetml", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.dashboard.On("View", mock.Anything).Return(sampleView(), nil).Maybe()
			f.dashboard.On("Dataset").Return(testutil.SampleDataset(), nil).Maybe()

			rec := f.do(httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestDashboardHandler_ExportWithoutData(t *testing.T) {
	f := newFixture(t)
	f.dashboard.On("View", mock.Anything).Return(&services.DashboardView{Status: services.StatusEmpty}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/export/buckets.csv", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_SURVEY_DATA")
}

func TestChatHandler_Ask(t *testing.T) {
	sessionID := "6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f"

	tests := []struct {
		name           string
		contentType    string
		body           string
		setupMock      func(m *MockChatService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "answered",
			contentType: "application/json",
			body:        `{"question":"¿Tasa?"}`,
			setupMock: func(m *MockChatService) {
				m.On("Ask", sessionID, "¿Tasa?").Return(&services.ChatReply{Answer: "50%"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"answer":"50%"`,
		},
		{
			name:        "placeholder keeps 200",
			contentType: "application/json",
			body:        `{"question":"¿Tasa?"}`,
			setupMock: func(m *MockChatService) {
				m.On("Ask", sessionID, "¿Tasa?").Return(&services.ChatReply{Answer: assistant.PlaceholderTimeout, Error: assistant.CodeTimeout}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"error":"timeout"`,
		},
		{
			name:           "missing question",
			contentType:    "application/json",
			body:           `{}`,
			setupMock:      func(m *MockChatService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "question is required",
		},
		{
			name:        "blank question",
			contentType: "application/json",
			body:        `{"question":"   "}`,
			setupMock: func(m *MockChatService) {
				m.On("Ask", sessionID, "   ").Return(nil, services.ErrEmptyQuestion)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "VALIDATION_FAILED",
		},
		{
			name:           "wrong content type",
			contentType:    "text/plain",
			body:           `question`,
			setupMock:      func(m *MockChatService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedBody:   "UNSUPPORTED_MEDIA_TYPE",
		},
		{
			name:           "invalid json",
			contentType:    "application/json",
			body:           `{"question":`,
			setupMock:      func(m *MockChatService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "INVALID_JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f.chat)

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set(middleware.SessionHeader, sessionID)
			rec := f.do(req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			f.chat.AssertExpectations(t)
		})
	}
}

func TestChatHandler_HistoryAndClear(t *testing.T) {
	sessionID := "0b5a4c1e-2f0e-4b8e-9a7e-0c8f1d2e3a4b"
	f := newFixture(t)
	f.chat.On("History", sessionID).Return([]assistant.Message{
		{Role: assistant.RoleUser, Text: "hola"},
		{Role: assistant.RoleAssistant, Text: "¡hola!"},
	})
	f.chat.On("Clear", sessionID).Return()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sessionID})
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"hola"`)

	req = httptest.NewRequest(http.MethodDelete, "/api/chat/history", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sessionID})
	rec = f.do(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.chat.AssertExpectations(t)
}

func TestRouter_PageHealthAndMisc(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{"page", http.MethodGet, "/", "", http.StatusOK, "<title>Retención</title>"},
		{"health", http.MethodGet, "/api/health", "", http.StatusOK, `"status":"ok"`},
		{"readiness without source", http.MethodGet, "/api/health/ready", "", http.StatusServiceUnavailable, `"not_ready"`},
		{"metrics disabled", http.MethodGet, "/metrics", "", http.StatusNotFound, ""},
		{"client log", http.MethodPost, "/api/client-log", `{"level":"error","message":"chart failed"}`, http.StatusNoContent, ""},
		{"client log invalid level", http.MethodPost, "/api/client-log", `{"level":"fatal","message":"x"}`, http.StatusBadRequest, "level"},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			rec := f.do(req)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
		})
	}
}
