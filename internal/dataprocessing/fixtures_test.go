package dataprocessing

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"retentionpulse/internal/shared/testutil"
	"retentionpulse/pkg/contracts/domain"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	return testutil.WorkbookBytes(t, rows)
}

// memorySource is an in-memory BlobSource.
type memorySource struct {
	files   map[string][]byte
	listErr error
	fetched []string
}

func (m *memorySource) Descriptor() string { return "memory:test" }

func (m *memorySource) List(ctx context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memorySource) Fetch(ctx context.Context, name string) ([]byte, error) {
	m.fetched = append(m.fetched, name)
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return data, nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.March, 1, 12, 0, 0, 0, time.UTC) }
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func record(id string, cancel, discount bool, cutoff *time.Time, file string) domain.Record {
	return domain.Record{
		CustomerID:        id,
		HasCustomerID:     id != "",
		WantsCancellation: cancel,
		AcceptedDiscount:  discount,
		CutoffDate:        cutoff,
		SourceFile:        file,
	}
}
