package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"retentionpulse/internal/config"
	"retentionpulse/internal/dataprocessing"
	"retentionpulse/internal/exporter"
	"retentionpulse/internal/files"
	"retentionpulse/internal/infrastructure"
	"retentionpulse/internal/validation"
	"retentionpulse/pkg/contracts/domain"
)

// options are the parsed command line flags
type options struct {
	dir        string
	bucket     string
	prefix     string
	from       string
	to         string
	out        string
	records    string
	duplicates string
	workbook   string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("survey report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("survey-report", flag.ContinueOnError)
	fs.StringVar(&opts.dir, "dir", "", "directory containing survey .xlsx files (overrides the configured source)")
	fs.StringVar(&opts.bucket, "bucket", "", "S3 bucket containing survey .xlsx files (overrides the configured source)")
	fs.StringVar(&opts.prefix, "prefix", "", "S3 key prefix, used with -bucket")
	fs.StringVar(&opts.from, "from", "", "first cutoff date to report, YYYY-MM-DD")
	fs.StringVar(&opts.to, "to", "", "last cutoff date to report, YYYY-MM-DD")
	fs.StringVar(&opts.out, "out", "", "write the cumulative per-date table as CSV to this path")
	fs.StringVar(&opts.records, "records", "", "write the filtered records as CSV to this path")
	fs.StringVar(&opts.duplicates, "duplicates", "", "write the duplicate customer ids as CSV to this path")
	fs.StringVar(&opts.workbook, "xlsx", "", "write the full report workbook to this path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.dir != "" && opts.bucket != "" {
		return nil, fmt.Errorf("-dir and -bucket are mutually exclusive")
	}
	return opts, nil
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s %q: expected YYYY-MM-DD", name, v)
	}
	return t, nil
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	from, err := parseDate("from", opts.from)
	if err != nil {
		return err
	}
	to, err := parseDate("to", opts.to)
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("start date %s is after end date %s", opts.from, opts.to)
	}

	validator := validation.NewFileValidator(logger)
	outputs := []struct{ path, ext string }{
		{opts.out, ".csv"}, {opts.records, ".csv"}, {opts.duplicates, ".csv"}, {opts.workbook, ".xlsx"},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := validator.ValidateOutputFile(o.path, o.ext); err != nil {
			return err
		}
	}

	srcCfg := cfg.Source
	switch {
	case opts.dir != "":
		if _, err := validator.ValidateInputDirectory(opts.dir); err != nil {
			return err
		}
		srcCfg.Kind = config.SourceKindLocal
		srcCfg.DataDir = opts.dir
	case opts.bucket != "":
		srcCfg.Kind = config.SourceKindS3
		srcCfg.Bucket = opts.bucket
		srcCfg.Prefix = opts.prefix
	}

	source, err := files.New(ctx, srcCfg, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting survey report",
		slog.String("source", source.Descriptor()),
		slog.String("from", opts.from),
		slog.String("to", opts.to))

	loader := dataprocessing.NewLoader(source, dataprocessing.NewIngestor(dataprocessing.NewDateExtractor(), logger), logger)
	ds, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	if ds.Len() == 0 {
		fmt.Fprintf(stdout, "No se encontraron archivos Excel en %s\n", source.Descriptor())
		return nil
	}

	records := dataprocessing.FilterByDateRange(ds.Records, from, to)
	buckets := dataprocessing.Cumulative(dataprocessing.AggregateByDate(records))
	summary := dataprocessing.Summarize(ds)
	duplicates := dataprocessing.DetectDuplicates(ds)

	printReport(stdout, ds, records, buckets, summary, duplicates)

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{opts.out, func(w io.Writer) error { return exporter.WriteBucketsCSV(w, buckets) }},
		{opts.records, func(w io.Writer) error { return exporter.WriteRecordsCSV(w, records) }},
		{opts.duplicates, func(w io.Writer) error { return exporter.WriteDuplicatesCSV(w, duplicates) }},
		{opts.workbook, func(w io.Writer) error {
			return exporter.WriteWorkbook(w, exporter.Report{
				Records:    records,
				Buckets:    buckets,
				Summary:    summary,
				Duplicates: duplicates,
			})
		}},
	}
	for _, out := range writers {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.write); err != nil {
			return err
		}
		logger.Info("Report written", slog.String("path", out.path))
	}
	return nil
}

func printReport(w io.Writer, ds *domain.Dataset, records []domain.Record, buckets []domain.DateBucketSummary, summary domain.ContextSummary, duplicates domain.DuplicateReport) {
	fmt.Fprintf(w, "Fuente: %s\n", ds.Source)
	fmt.Fprintf(w, "Archivos: %d  Registros: %d  Mostrados: %d\n\n", len(ds.Files), ds.Len(), len(records))

	fmt.Fprintf(w, "%-12s %7s %7s %10s %9s %10s\n", "Fecha corte", "Total", "Acepto", "No acepto", "% Acepto", "% Acumul.")
	for _, b := range buckets {
		fmt.Fprintf(w, "%-12s %7d %7d %10d %8.1f%% %9.1f%%\n",
			b.CutoffDate.Format(domain.DateLayout), b.Total, b.Accepted, b.NotAccepted, b.AcceptedPct, b.CumulativePct)
	}

	fmt.Fprintf(w, "\nResumen: %s\n", summary)

	switch {
	case !duplicates.Applicable:
		fmt.Fprintln(w, "Duplicados: sin columna de cliente")
	case !duplicates.HasDuplicates():
		fmt.Fprintln(w, "Duplicados: ninguno")
	default:
		fmt.Fprintf(w, "Duplicados: %d clientes, %d registros\n", len(duplicates.Groups), duplicates.TotalRecords())
		for _, g := range duplicates.Groups {
			fmt.Fprintf(w, "  %s x%d\n", g.CustomerID, g.Count)
		}
	}

	for _, warning := range ds.Warnings {
		fmt.Fprintf(w, "Aviso: %s\n", warning)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
