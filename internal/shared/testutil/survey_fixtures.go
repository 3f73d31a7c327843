package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"retentionpulse/pkg/contracts/domain"
)

// SurveyHeader is the canonical header row used by fixture workbooks.
var SurveyHeader = []interface{}{
	domain.ColumnCustomerID,
	domain.ColumnWantsCancelation,
	domain.ColumnAcceptedDiscount,
	domain.ColumnResponseDate,
}

// WorkbookBytes writes rows (header first) to the first sheet of a new
// workbook and returns the .xlsx bytes.
func WorkbookBytes(t testing.TB, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, ref, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteWorkbook saves a fixture workbook named name under dir and returns its path.
func WriteWorkbook(t testing.TB, dir, name string, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, WorkbookBytes(t, rows), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Date returns a pointer to a UTC calendar date.
func Date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// SampleDataset returns a small dataset with two cutoff dates, one
// duplicate customer and one record without a cutoff date.
func SampleDataset() *domain.Dataset {
	nov24 := Date(2024, time.November, 24)
	nov25 := Date(2024, time.November, 25)
	rec := func(id string, cancel, discount bool, cutoff *time.Time, file string) domain.Record {
		return domain.Record{
			CustomerID:        id,
			HasCustomerID:     true,
			WantsCancellation: cancel,
			AcceptedDiscount:  discount,
			CutoffDate:        cutoff,
			ResponseDate:      cutoff,
			SourceFile:        file,
		}
	}
	return &domain.Dataset{
		Columns: domain.ColumnSet{CustomerID: true, ResponseDate: true},
		Files:   []string{"encuesta_24Nov.xlsx", "encuesta_25Nov.xlsx", "encuesta.xlsx"},
		Source:  "local:testdata",
		Records: []domain.Record{
			rec("100", true, true, nov24, "encuesta_24Nov.xlsx"),
			rec("101", true, false, nov24, "encuesta_24Nov.xlsx"),
			rec("102", false, false, nov24, "encuesta_24Nov.xlsx"),
			rec("100", true, true, nov25, "encuesta_25Nov.xlsx"),
			rec("103", false, true, nov25, "encuesta_25Nov.xlsx"),
			rec("104", true, false, nil, "encuesta.xlsx"),
		},
		LoadedAt: time.Date(2024, time.November, 26, 9, 0, 0, 0, time.UTC),
	}
}
