package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "retentionpulse/internal/errors"
	"retentionpulse/pkg/contracts/domain"
)

// BlobSource yields named spreadsheet buffers from a directory or bucket.
type BlobSource interface {
	// Descriptor identifies the source, e.g. "local:data" or "s3://bucket/prefix".
	Descriptor() string
	// List returns candidate object names in a stable order.
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Loader merges every spreadsheet of a source into one Dataset.
type Loader struct {
	source   BlobSource
	ingestor *Ingestor
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoader creates a loader for source.
func NewLoader(source BlobSource, ingestor *Ingestor, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if ingestor == nil {
		ingestor = NewIngestor(nil, logger)
	}
	return &Loader{
		source:   source,
		ingestor: ingestor,
		logger:   logger.With(slog.String("source", source.Descriptor())),
		now:      time.Now,
	}
}

// Source returns the underlying blob source.
func (l *Loader) Source() BlobSource {
	return l.source
}

// Load enumerates, ingests and merges the source. It returns (nil, nil)
// when no file produced any rows; per-file failures are kept as warnings
// and do not abort the load. A listing failure is returned as an error.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, error) {
	names, err := l.source.List(ctx)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to list survey files", err).
			WithContext("source", l.source.Descriptor())
	}

	var (
		tables   []*FileTable
		warnings []string
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !IsSpreadsheetName(name) {
			continue
		}

		data, err := l.source.Fetch(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			warnings = append(warnings, fmt.Sprintf("Error al leer %s: %v", baseName(name), err))
			l.logger.Warn("Failed to fetch survey file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}

		table, err := l.ingestor.Ingest(name, data)
		if errors.Is(err, ErrTemporaryFile) {
			continue
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Error al leer %s: %v", baseName(name), err))
			l.logger.Warn("Failed to ingest survey file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		if len(table.Rows) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s no contiene registros", table.Name))
			continue
		}
		tables = append(tables, table)
	}

	if len(tables) == 0 {
		l.logger.Info("No survey data found",
			slog.Int("candidates", len(names)),
			slog.Int("warnings", len(warnings)))
		return nil, nil
	}

	ds := Merge(tables)
	ds.Warnings = warnings
	ds.Source = l.source.Descriptor()
	ds.LoadedAt = l.now()

	l.logger.Info("Survey dataset loaded",
		slog.Int("files", len(ds.Files)),
		slog.Int("records", len(ds.Records)),
		slog.Int("warnings", len(warnings)))

	return ds, nil
}

// Merge concatenates tables in order and normalizes the answer columns once
// over the merged rows.
func Merge(tables []*FileTable) *domain.Dataset {
	ds := &domain.Dataset{}
	total := 0
	for _, t := range tables {
		total += len(t.Rows)
	}
	raw := make([]RawRecord, 0, total)
	for _, t := range tables {
		ds.Files = append(ds.Files, t.Name)
		ds.Columns.CustomerID = ds.Columns.CustomerID || t.Columns.CustomerID
		ds.Columns.ResponseDate = ds.Columns.ResponseDate || t.Columns.ResponseDate
		raw = append(raw, t.Rows...)
	}

	ds.Records = NormalizeRecords(raw)
	return ds
}

// NormalizeRecords applies the answer normalizer to every row. Rows from
// files without an id column keep HasCustomerID=false.
func NormalizeRecords(raw []RawRecord) []domain.Record {
	out := make([]domain.Record, len(raw))
	for i, r := range raw {
		out[i] = domain.Record{
			CustomerID:        r.CustomerID,
			HasCustomerID:     r.HasCustomerID,
			WantsCancellation: NormalizeAnswer(r.WantsCancellation) == domain.AnswerYes,
			AcceptedDiscount:  NormalizeAnswer(r.AcceptedDiscount) == domain.AnswerYes,
			ResponseDate:      r.ResponseDate,
			CutoffDate:        r.CutoffDate,
			SourceFile:        r.SourceFile,
		}
	}
	return out
}
