package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"retentionpulse/internal/cache"
	"retentionpulse/internal/files"
	"retentionpulse/internal/shared/testutil"
	"retentionpulse/pkg/contracts/domain"
)

// stubLoader returns a fixed dataset and counts loads
type stubLoader struct {
	ds    *domain.Dataset
	err   error
	calls int32
}

func (l *stubLoader) Load(ctx context.Context) (*domain.Dataset, error) {
	atomic.AddInt32(&l.calls, 1)
	return l.ds, l.err
}

func (l *stubLoader) Calls() int {
	return int(atomic.LoadInt32(&l.calls))
}

// memorySource is an in-memory files.Writable
type memorySource struct {
	mu    sync.Mutex
	saved map[string][]byte
}

var _ files.Writable = (*memorySource)(nil)

func newMemorySource() *memorySource {
	return &memorySource{saved: make(map[string][]byte)}
}

func (s *memorySource) Descriptor() string { return "memory:test" }

func (s *memorySource) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.saved))
	for n := range s.saved {
		names = append(names, n)
	}
	return names, nil
}

func (s *memorySource) Fetch(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[name], nil
}

func (s *memorySource) Save(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[name] = data
	return nil
}

// MockAsker is a mock for assistant.Asker
type MockAsker struct {
	mock.Mock
}

func (m *MockAsker) Ask(ctx context.Context, system, dataContext, question string) (string, error) {
	args := m.Called(ctx, system, dataContext, question)
	return args.String(0), args.Error(1)
}

func (m *MockAsker) Provider() string { return "mock" }

func newTestDashboard(t *testing.T, loader DatasetLoader, opts DashboardOptions) (*DashboardService, *memorySource) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	src := newMemorySource()
	if opts.DefaultStart.IsZero() {
		opts.DefaultStart = time.Date(2024, time.November, 24, 0, 0, 0, 0, time.UTC)
	}
	return NewDashboardService(loader, src, nil, cache.New(time.Minute), opts, nil, logger), src
}
