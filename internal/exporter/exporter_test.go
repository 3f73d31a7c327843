package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retentionpulse/internal/dataprocessing"
	"retentionpulse/internal/shared/testutil"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteBucketsCSV(t *testing.T) {
	ds := testutil.SampleDataset()
	buckets := dataprocessing.Cumulative(dataprocessing.AggregateByDate(ds.Records))

	var buf bytes.Buffer
	require.NoError(t, WriteBucketsCSV(&buf, buckets))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, BucketHeader, rows[0])
	assert.Equal(t, []string{"2024-11-24", "3", "1", "2", "33.3", "66.7", "3", "1", "33.3"}, rows[1])
	assert.Equal(t, []string{"2024-11-25", "2", "2", "0", "100.0", "0.0", "5", "3", "60.0"}, rows[2])
}

func TestWriteBucketsCSV_DailyOnly(t *testing.T) {
	ds := testutil.SampleDataset()
	var buf bytes.Buffer
	require.NoError(t, WriteBucketsCSV(&buf, dataprocessing.AggregateByDate(ds.Records)))

	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"", "", ""}, rows[1][6:])
}

func TestWriteRecordsCSV(t *testing.T) {
	ds := testutil.SampleDataset()

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, ds.Records))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, len(ds.Records)+1)
	assert.Equal(t, RecordHeader, rows[0])
	assert.Equal(t, []string{"100", "Si", "Si", "2024-11-24", "2024-11-24", "encuesta_24Nov.xlsx"}, rows[1])
	// unknown cutoff renders empty
	assert.Equal(t, []string{"104", "Si", "No", "", "", "encuesta.xlsx"}, rows[6])
}

func TestWriteDuplicatesCSV(t *testing.T) {
	report := dataprocessing.DetectDuplicates(testutil.SampleDataset())

	var buf bytes.Buffer
	require.NoError(t, WriteDuplicatesCSV(&buf, report))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, "encuesta_24Nov.xlsx; encuesta_25Nov.xlsx", rows[1][2])
}

func TestWriteWorkbook(t *testing.T) {
	ds := testutil.SampleDataset()
	report := Report{
		Records:    ds.Records,
		Buckets:    dataprocessing.Cumulative(dataprocessing.AggregateByDate(ds.Records)),
		Summary:    dataprocessing.Summarize(ds),
		Duplicates: dataprocessing.DetectDuplicates(ds),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, report))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRecords, SheetBuckets, SheetSummary, SheetDuplicates}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "6"}, summary[1])
	assert.Equal(t, []string{"Tasa retencion", "50.0"}, summary[7])

	buckets, err := f.GetRows(SheetBuckets)
	require.NoError(t, err)
	assert.Len(t, buckets, 3)
}

func TestWriteWorkbook_ReingestsToSameAnswers(t *testing.T) {
	ds := testutil.SampleDataset()

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, Report{Records: ds.Records}))

	table, err := dataprocessing.NewIngestor(nil, nil).Ingest("export.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, table.Rows, len(ds.Records))
	assert.True(t, table.Columns.CustomerID)

	for i, raw := range table.Rows {
		want := ds.Records[i]
		assert.Equal(t, want.CustomerID, raw.CustomerID)
		assert.Equal(t, want.WantsCancellation, dataprocessing.IsAffirmative(raw.WantsCancellation))
		assert.Equal(t, want.AcceptedDiscount, dataprocessing.IsAffirmative(raw.AcceptedDiscount))
	}
}
