package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"retentionpulse/internal/cache"
	"retentionpulse/internal/dataprocessing"
	apperrors "retentionpulse/internal/errors"
	"retentionpulse/internal/files"
	"retentionpulse/internal/infrastructure"
	"retentionpulse/pkg/contracts/domain"
)

// Dashboard statuses
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
)

// DatasetLoader loads the merged dataset from the source
type DatasetLoader interface {
	Load(ctx context.Context) (*domain.Dataset, error)
}

// DashboardOptions configures a DashboardService
type DashboardOptions struct {
	// DefaultStart is used when a view request has no start date.
	DefaultStart  time.Time
	MaxUploadSize int64
	EnableUpload  bool
}

// DashboardService serves the survey dataset and its derived views.
type DashboardService struct {
	loader   DatasetLoader
	source   files.Writable
	ingestor *dataprocessing.Ingestor
	cache    *cache.DatasetCache
	key      string
	opts     DashboardOptions
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewDashboardService wires the loader, the writable source used for
// uploads, and the dataset cache. The cache key is the source descriptor.
func NewDashboardService(
	loader DatasetLoader,
	source files.Writable,
	ingestor *dataprocessing.Ingestor,
	datasetCache *cache.DatasetCache,
	opts DashboardOptions,
	metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if ingestor == nil {
		ingestor = dataprocessing.NewIngestor(nil, logger)
	}
	return &DashboardService{
		loader:   loader,
		source:   source,
		ingestor: ingestor,
		cache:    datasetCache,
		key:      source.Descriptor(),
		opts:     opts,
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "dashboard")),
	}
}

// SourceDescriptor identifies the configured source
func (s *DashboardService) SourceDescriptor() string {
	return s.key
}

// Dataset returns the cached dataset, loading it on a miss. A nil dataset
// with a nil error means the source has no usable files.
func (s *DashboardService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	ds, hit, err := s.cache.GetOrLoad(ctx, s.key, s.load)
	s.metrics.RecordCacheLookup(ctx, hit)
	return ds, err
}

func (s *DashboardService) load(ctx context.Context) (*domain.Dataset, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dataset.load")
	defer span.End()

	start := time.Now()
	ds, err := s.loader.Load(ctx)
	duration := time.Since(start)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordDatasetLoad(ctx, s.key, 0, 0, 0, duration, err)
		s.logger.ErrorContext(ctx, "Dataset load failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, err
	}

	var fileCount, warningCount int
	if ds != nil {
		fileCount, warningCount = len(ds.Files), len(ds.Warnings)
	}
	s.metrics.RecordDatasetLoad(ctx, s.key, fileCount, warningCount, ds.Len(), duration, nil)
	s.logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("files", fileCount),
		slog.Int("records", ds.Len()),
		slog.Duration("duration", duration))
	return ds, nil
}

// Reload drops the cached dataset and loads it again.
func (s *DashboardService) Reload(ctx context.Context) (*domain.Dataset, error) {
	s.cache.Invalidate(s.key)
	s.logger.InfoContext(ctx, "Dataset cache invalidated")
	return s.Dataset(ctx)
}

// ViewQuery selects the cutoff date range of the dashboard. Nil bounds
// take the defaults: the configured start date and the latest cutoff date.
type ViewQuery struct {
	From *time.Time
	To   *time.Time
}

// DateRange describes the applied filter and the dataset bounds
type DateRange struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
}

// Footer carries the dataset counts shown under the dashboard
type Footer struct {
	TotalRecords int       `json:"total_records"`
	ShownRecords int       `json:"shown_records"`
	Files        []string  `json:"files"`
	Source       string    `json:"source"`
	LoadedAt     time.Time `json:"loaded_at"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// DashboardView is everything the dashboard renders for one date range.
type DashboardView struct {
	Status        string                     `json:"status"`
	Message       string                     `json:"message,omitempty"`
	Range         DateRange                  `json:"range"`
	Buckets       []domain.DateBucketSummary `json:"buckets"`
	Cumulative    []domain.DateBucketSummary `json:"cumulative"`
	Distributions []domain.Distribution      `json:"distributions"`
	Summary       domain.ContextSummary      `json:"summary"`
	Duplicates    domain.DuplicateReport     `json:"duplicates"`
	Footer        Footer                     `json:"footer"`
}

// View builds the dashboard for q. Distributions, buckets and the shown
// record count follow the range; the summary and duplicates cover the
// whole dataset.
func (s *DashboardService) View(ctx context.Context, q ViewQuery) (*DashboardView, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return s.emptyView(), nil
	}

	rng, from, to, err := s.resolveRange(ds, q)
	if err != nil {
		return nil, err
	}

	filtered := dataprocessing.FilterByDateRange(ds.Records, from, to)
	buckets := dataprocessing.AggregateByDate(filtered)

	return &DashboardView{
		Status:        StatusOK,
		Range:         rng,
		Buckets:       buckets,
		Cumulative:    dataprocessing.Cumulative(buckets),
		Distributions: dataprocessing.Distributions(filtered),
		Summary:       dataprocessing.Summarize(ds),
		Duplicates:    dataprocessing.DetectDuplicates(ds),
		Footer: Footer{
			TotalRecords: ds.Len(),
			ShownRecords: len(filtered),
			Files:        ds.Files,
			Source:       ds.Source,
			LoadedAt:     ds.LoadedAt,
			Warnings:     ds.Warnings,
		},
	}, nil
}

func (s *DashboardService) emptyView() *DashboardView {
	return &DashboardView{
		Status:        StatusEmpty,
		Message:       fmt.Sprintf("No se encontraron archivos Excel en %s", s.key),
		Buckets:       []domain.DateBucketSummary{},
		Cumulative:    []domain.DateBucketSummary{},
		Distributions: []domain.Distribution{},
		Duplicates:    domain.DuplicateReport{Groups: []domain.DuplicateGroup{}},
		Footer:        Footer{Files: []string{}, Source: s.key},
	}
}

// resolveRange applies defaults to q. When the default start lies after
// the latest cutoff date, the earliest cutoff date is used instead.
func (s *DashboardService) resolveRange(ds *domain.Dataset, q ViewQuery) (DateRange, time.Time, time.Time, error) {
	minDate, maxDate, ok := ds.DateBounds()

	var from, to time.Time
	if q.From != nil {
		from = dataprocessing.TruncateDate(*q.From)
	} else if !s.opts.DefaultStart.IsZero() {
		from = dataprocessing.TruncateDate(s.opts.DefaultStart)
		if ok && from.After(maxDate) {
			from = minDate
		}
	}
	if q.To != nil {
		to = dataprocessing.TruncateDate(*q.To)
	} else if ok {
		to = maxDate
	}

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return DateRange{}, from, to, apperrors.NewAppValidationError(ErrInvalidRange.Error())
	}

	rng := DateRange{From: formatDate(from), To: formatDate(to)}
	if ok {
		rng.MinDate = formatDate(minDate)
		rng.MaxDate = formatDate(maxDate)
	}
	return rng, from, to, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// Summary returns the assistant context for the whole dataset. ok is false
// when no data is loaded.
func (s *DashboardService) Summary(ctx context.Context) (summary domain.ContextSummary, ok bool, err error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return summary, false, err
	}
	if ds.Len() == 0 {
		return summary, false, nil
	}
	return dataprocessing.Summarize(ds), true, nil
}

// UploadResult describes a stored workbook
type UploadResult struct {
	File       string `json:"file"`
	Rows       int    `json:"rows"`
	CutoffDate string `json:"cutoff_date,omitempty"`
	Source     string `json:"source"`
}

// Upload validates data as a survey workbook, stores it in the source and
// invalidates the cache so the next read includes it.
func (s *DashboardService) Upload(ctx context.Context, name string, data []byte) (*UploadResult, error) {
	if !s.opts.EnableUpload {
		return nil, apperrors.NewAppValidationError(ErrUploadDisabled.Error())
	}
	if s.opts.MaxUploadSize > 0 && int64(len(data)) > s.opts.MaxUploadSize {
		s.metrics.RecordUpload(ctx, false)
		return nil, apperrors.ErrUploadTooLarge
	}

	clean, err := files.CleanUploadName(name)
	if err != nil {
		s.metrics.RecordUpload(ctx, false)
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	table, err := s.ingestor.Ingest(clean, data)
	if err != nil {
		s.metrics.RecordUpload(ctx, false)
		return nil, apperrors.UploadRejectedError(err)
	}

	if err := s.source.Save(ctx, clean, data); err != nil {
		s.metrics.RecordUpload(ctx, false)
		if errors.Is(err, files.ErrInvalidName) {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		return nil, apperrors.NewStorageError("failed to store upload", err).WithContext("file", clean)
	}

	s.cache.Invalidate(s.key)
	s.metrics.RecordUpload(ctx, true)

	result := &UploadResult{File: clean, Rows: len(table.Rows), Source: s.key}
	if len(table.Rows) > 0 && table.Rows[0].CutoffDate != nil {
		result.CutoffDate = table.Rows[0].CutoffDate.Format(domain.DateLayout)
	}

	s.logger.InfoContext(ctx, "Survey workbook uploaded",
		slog.String("file", clean),
		slog.Int("rows", result.Rows),
		slog.String("cutoff_date", result.CutoffDate))
	return result, nil
}
