// Package dataprocessing turns retention survey spreadsheets into one
// normalized dataset and derives the statistics shown on the dashboard.
//
// # Architecture
//
// The package is organized as a small pipeline:
//
// 1. DateExtractor: reads the survey cutoff date from a file name
// 2. HomologateColumns: maps header spellings to the canonical schema
// 3. Ingestor: reads one .xlsx workbook into a FileTable
// 4. Loader: lists a BlobSource, ingests every workbook and merges them
// 5. NormalizeAnswer: folds free-text yes/no answers into "Si" or "No"
// 6. DetectDuplicates, AggregateByDate, Cumulative, Summarize: derived views
//
// # Usage
//
//	loader := dataprocessing.NewLoader(source, dataprocessing.NewIngestor(nil, logger), logger)
//	ds, err := loader.Load(ctx)
//	if err != nil {
//	    return err // the source could not be listed
//	}
//	if ds == nil {
//	    return nil // no survey data yet
//	}
//	buckets := dataprocessing.Cumulative(dataprocessing.AggregateByDate(
//	    dataprocessing.FilterByDateRange(ds.Records, from, to)))
//
// # Data Flow
//
//	BlobSource → Ingestor (homologate, cutoff date) → Merge (normalize answers) → Dataset
//	Dataset → {DetectDuplicates, AggregateByDate/Cumulative, Summarize}
//
// # Error Handling
//
// A workbook that cannot be fetched or parsed is skipped and reported in
// Dataset.Warnings. Only a failure to list the source aborts a load.
//
// Records whose file name carries no date keep a nil CutoffDate. They are
// counted in totals, duplicates and the assistant summary, but excluded
// from date range filtering and per-date buckets.
package dataprocessing
