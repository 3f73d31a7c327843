package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"retentionpulse/internal/dataprocessing"
	apierrors "retentionpulse/internal/errors"
	"retentionpulse/internal/exporter"
	"retentionpulse/internal/middleware"
	"retentionpulse/internal/services"
)

// uploadField is the multipart field carrying the workbook
const uploadField = "file"

// DashboardHandler serves the dashboard data, reloads, uploads and exports
type DashboardHandler struct {
	service       DashboardServiceInterface
	validator     *middleware.ValidationMiddleware
	maxUploadSize int64
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *middleware.ValidationMiddleware, maxUploadSize int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:       service,
		validator:     validator,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:  errorHandler,
	}
}

// Routes returns the dashboard routes, mounted under /api. Upload is
// registered by the router next to the other rate limited endpoints.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/dashboard", h.GetDashboard)
	r.With(render.SetContentType(render.ContentTypeJSON)).Post("/reload", h.Reload)

	r.Route("/export", func(r chi.Router) {
		r.Get("/buckets.csv", h.ExportBuckets)
		r.Get("/records.csv", h.ExportRecords)
		r.Get("/duplicates.csv", h.ExportDuplicates)
		r.Get("/report.xlsx", h.ExportWorkbook)
	})

	return r
}

// GetDashboard handles GET /api/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r, false)
	if !ok {
		return
	}
	render.JSON(w, r, view)
}

// Reload handles POST /api/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)

	ds, err := h.service.Reload(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"status":  services.StatusEmpty,
		"records": 0,
		"files":   []string{},
		"source":  h.service.SourceDescriptor(),
	}
	if ds.Len() > 0 {
		resp["status"] = services.StatusOK
		resp["records"] = ds.Len()
		resp["files"] = ds.Files
		resp["loaded_at"] = ds.LoadedAt
		resp["warnings"] = ds.Warnings
	}

	h.logger.InfoContext(ctx, "dataset reloaded",
		slog.String("request_id", reqID),
		slog.Int("records", ds.Len()))
	render.JSON(w, r, resp)
}

// Upload handles POST /api/upload with a multipart "file" field
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxUploadSize > 0 {
		// multipart framing needs a little room beyond the file itself
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, "a multipart file field named \"file\" is required"))
		return
	}
	defer file.Close()

	if err := h.validator.ValidateStruct(UploadRequest{FileName: header.Filename, Size: header.Size}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.Upload(ctx, header.Filename, buf.Bytes())
	if err != nil {
		h.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", header.Filename),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// ExportBuckets handles GET /api/export/buckets.csv with the cumulative view of the range
func (h *DashboardHandler) ExportBuckets(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r, true)
	if !ok {
		return
	}
	h.writeCSV(w, r, "buckets", func(out io.Writer) error {
		return exporter.WriteBucketsCSV(out, view.Cumulative)
	})
}

// ExportRecords handles GET /api/export/records.csv with the records in range
func (h *DashboardHandler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	vq, err := parseRange(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	ds, err := h.service.Dataset(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if ds == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoSurveyData)
		return
	}

	records := ds.Records
	if vq.From != nil || vq.To != nil {
		var from, to time.Time
		if vq.From != nil {
			from = *vq.From
		}
		if vq.To != nil {
			to = *vq.To
		}
		records = dataprocessing.FilterByDateRange(records, from, to)
	}

	h.writeCSV(w, r, "records", func(out io.Writer) error {
		return exporter.WriteRecordsCSV(out, records)
	})
}

// ExportDuplicates handles GET /api/export/duplicates.csv
func (h *DashboardHandler) ExportDuplicates(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r, true)
	if !ok {
		return
	}
	h.writeCSV(w, r, "duplicates", func(out io.Writer) error {
		return exporter.WriteDuplicatesCSV(out, view.Duplicates)
	})
}

// ExportWorkbook handles GET /api/export/report.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r, true)
	if !ok {
		return
	}
	ds, err := h.service.Dataset(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = exporter.WriteWorkbook(&buf, exporter.Report{
		Records:    ds.Records,
		Buckets:    view.Cumulative,
		Summary:    view.Summary,
		Duplicates: view.Duplicates,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("report", "xlsx"))
	w.Write(buf.Bytes())
}

// view resolves the range and builds the dashboard view. An empty
// dataset is a valid view unless requireData is set, as for exports.
func (h *DashboardHandler) view(w http.ResponseWriter, r *http.Request, requireData bool) (*services.DashboardView, bool) {
	ctx := r.Context()

	vq, err := parseRange(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	view, err := h.service.View(ctx, vq)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build dashboard",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)))
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	if requireData && view.Status == services.StatusEmpty {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoSurveyData)
		return nil, false
	}
	return view, true
}

func (h *DashboardHandler) writeCSV(w http.ResponseWriter, r *http.Request, name string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(name, "csv"))
	w.Write(buf.Bytes())
}

func attachment(name, ext string) string {
	return fmt.Sprintf(`attachment; filename="retencion_%s_%s.%s"`, name, time.Now().Format("20060102"), ext)
}
