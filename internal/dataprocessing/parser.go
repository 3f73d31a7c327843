package dataprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "retentionpulse/internal/errors"
	"retentionpulse/pkg/contracts/domain"
)

// TempFilePrefix marks spreadsheet lock files left behind by an open editor.
const TempFilePrefix = "~$"

// maxExcelSerial is the serial of 9999-12-31, the last date Excel can store.
const maxExcelSerial = 2958465

// ErrTemporaryFile is returned for lock files, which never hold data.
var ErrTemporaryFile = errors.New("temporary lock file")

// responseDateLayouts are tried in order for text-formatted response dates.
var responseDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"01-02-06",
	"1/2/06",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
}

// RawRecord is one spreadsheet row after column homologation but before
// answer normalization.
type RawRecord struct {
	CustomerID        string
	HasCustomerID     bool
	WantsCancellation string
	AcceptedDiscount  string
	ResponseDate      *time.Time
	CutoffDate        *time.Time
	SourceFile        string
}

// FileTable is the canonical table produced from one spreadsheet.
type FileTable struct {
	Name    string
	Columns domain.ColumnSet
	Rows    []RawRecord
}

// Ingestor turns spreadsheet bytes into a FileTable.
type Ingestor struct {
	dates  *DateExtractor
	logger *slog.Logger
}

// NewIngestor creates an ingestor. A nil extractor uses the wall clock.
func NewIngestor(dates *DateExtractor, logger *slog.Logger) *Ingestor {
	if dates == nil {
		dates = NewDateExtractor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{dates: dates, logger: logger}
}

// IsSpreadsheetName reports whether name is an .xlsx file that is not a lock file.
func IsSpreadsheetName(name string) bool {
	base := baseName(name)
	return strings.HasSuffix(strings.ToLower(base), ".xlsx") && !strings.HasPrefix(base, TempFilePrefix)
}

// Ingest parses the first sheet of an .xlsx workbook. The first row is the
// header. A parse failure is returned as a parsing AppError so the caller
// can skip the file and keep loading.
func (in *Ingestor) Ingest(name string, data []byte) (*FileTable, error) {
	base := baseName(name)
	if strings.HasPrefix(base, TempFilePrefix) {
		return nil, ErrTemporaryFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open %s", base), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s has no sheets", base), nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read rows of %s", base), err)
	}

	table := &FileTable{Name: base}
	if len(rows) == 0 {
		return table, nil
	}

	headers := HomologateColumns(rows[0])
	columnMap := make(map[string]int)
	for i, h := range headers {
		if _, seen := columnMap[h]; !seen {
			columnMap[h] = i
		}
	}
	_, table.Columns.CustomerID = columnMap[domain.ColumnCustomerID]
	_, hasResponse := columnMap[domain.ColumnResponseDate]

	var cutoff *time.Time
	if d, ok := in.dates.Extract(base); ok {
		cutoff = &d
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec := RawRecord{
			CustomerID:        cell(row, columnMap, domain.ColumnCustomerID),
			HasCustomerID:     table.Columns.CustomerID,
			WantsCancellation: cell(row, columnMap, domain.ColumnWantsCancelation),
			AcceptedDiscount:  cell(row, columnMap, domain.ColumnAcceptedDiscount),
			CutoffDate:        cutoff,
			SourceFile:        base,
		}
		if hasResponse {
			if d, ok := ParseResponseDate(cell(row, columnMap, domain.ColumnResponseDate)); ok {
				rec.ResponseDate = &d
			}
		}
		if rec.ResponseDate == nil && cutoff != nil {
			d := *cutoff
			rec.ResponseDate = &d
		}
		if rec.ResponseDate != nil {
			table.Columns.ResponseDate = true
		}
		table.Rows = append(table.Rows, rec)
	}

	in.logger.Debug("Spreadsheet ingested",
		slog.String("file", base),
		slog.Int("rows", len(table.Rows)),
		slog.Bool("has_customer_id", table.Columns.CustomerID),
		slog.Bool("has_cutoff_date", cutoff != nil))

	return table, nil
}

// ParseResponseDate accepts Excel serial numbers and the common text
// layouts. Anything else is reported as absent.
func ParseResponseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if len(v) == 8 && isDigits(v) {
		if t, err := time.Parse("20060102", v); err == nil {
			return TruncateDate(t), true
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if !(serial > 0 && serial <= maxExcelSerial) {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return TruncateDate(t), true
	}
	for _, layout := range responseDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return TruncateDate(t), true
		}
	}
	return time.Time{}, false
}

func isDigits(v string) bool {
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cell(row []string, columnMap map[string]int, column string) string {
	idx, ok := columnMap[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// baseName strips any directory or object-key prefix.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
