package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"retentionpulse/pkg/contracts/domain"
)

// Sheet names of the exported workbook. Records comes first so the
// workbook ingests like any survey export.
const (
	SheetRecords    = "Registros"
	SheetBuckets    = "Por fecha"
	SheetSummary    = "Resumen"
	SheetDuplicates = "Duplicados"
)

// Report is the content of an exported workbook
type Report struct {
	Records    []domain.Record
	Buckets    []domain.DateBucketSummary
	Summary    domain.ContextSummary
	Duplicates domain.DuplicateReport
}

// WriteWorkbook writes report as an .xlsx workbook to w
func WriteWorkbook(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetRecords); err != nil {
		return fmt.Errorf("renaming first sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	records := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		records = append(records, RecordRow(r))
	}
	if err := writeSheet(f, SheetRecords, RecordHeader, records, headerStyle); err != nil {
		return err
	}

	buckets := make([][]string, 0, len(report.Buckets))
	for _, b := range report.Buckets {
		buckets = append(buckets, BucketRow(b))
	}
	if err := writeSheet(f, SheetBuckets, BucketHeader, buckets, headerStyle); err != nil {
		return err
	}

	s := report.Summary
	summary := [][]string{
		{"Total", fmt.Sprint(s.Total)},
		{"Bajas", fmt.Sprint(s.Cancellations)},
		{"% Bajas", formatPct(s.CancellationsPct)},
		{"Descuentos", fmt.Sprint(s.Discounts)},
		{"% Descuentos", formatPct(s.DiscountsPct)},
		{"Retenidos", fmt.Sprint(s.Retained)},
		{"Tasa retencion", formatPct(s.RetentionRate)},
	}
	if err := writeSheet(f, SheetSummary, []string{"Indicador", "Valor"}, summary, headerStyle); err != nil {
		return err
	}

	duplicates := make([][]string, 0, len(report.Duplicates.Groups))
	for _, g := range report.Duplicates.Groups {
		duplicates = append(duplicates, DuplicateRow(g))
	}
	if err := writeSheet(f, SheetDuplicates, DuplicateHeader, duplicates, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("opening sheet %s: %w", sheet, err)
	}

	if err := sw.SetRow("A1", toCells(header, headerStyle)); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(row, 0)); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet %s: %w", sheet, err)
	}
	return nil
}

func toCells(values []string, style int) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		if style != 0 {
			cells[i] = excelize.Cell{StyleID: style, Value: v}
		} else {
			cells[i] = v
		}
	}
	return cells
}
