package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/querydesk/internal/clock"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/history"
	"github.com/timmy/querydesk/internal/logger"
)

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	return logger.New(cfg)
}

type stubSource struct {
	mu        sync.Mutex
	schema    *domain.Schema
	schemaErr error
	health    string
	healthErr error
	calls     atomic.Int64
}

func (s *stubSource) Schema(ctx context.Context) (*domain.Schema, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema, s.schemaErr
}

func (s *stubSource) Health(ctx context.Context) (*domain.HealthStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.healthErr != nil {
		return nil, s.healthErr
	}
	return &domain.HealthStatus{Status: s.health}, nil
}

type stubHistory struct {
	mu      sync.Mutex
	entries []domain.QueryHistoryEntry
}

func (h *stubHistory) Refresh(ctx context.Context) bool { return true }

func (h *stubHistory) Stats() history.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return history.Compute(h.entries)
}

func hrSchema() *domain.Schema {
	return &domain.Schema{
		Tables: []domain.Table{
			{Name: "employees", Columns: []domain.Column{{Name: "id"}, {Name: "dept_id"}, {Name: "salary"}}},
			{Name: "departments", Columns: []domain.Column{{Name: "id"}, {Name: "name"}}},
		},
		Relationships: []domain.Relationship{{FromTable: "employees", ToTable: "departments"}},
	}
}

func TestSnapshot_BeforeRefresh(t *testing.T) {
	d := New(&stubSource{}, &stubHistory{}, nil, 0, testLogger())
	s := d.Snapshot()
	assert.Equal(t, domain.HealthUnknown, s.Health)
	assert.Zero(t, s.Tables)
	assert.True(t, s.RefreshedAt.IsZero())
}

func TestRefresh_BuildsSnapshot(t *testing.T) {
	src := &stubSource{schema: hrSchema(), health: "ok"}
	hist := &stubHistory{entries: []domain.QueryHistoryEntry{
		{Query: "a", Metrics: domain.QueryMetrics{CacheHit: true, ResponseTimeMs: 30}},
		{Query: "b", Metrics: domain.QueryMetrics{ResponseTimeMs: 10}},
	}}
	d := New(src, hist, nil, 0, testLogger())

	require.NoError(t, d.Refresh(context.Background()))
	s := d.Snapshot()
	assert.Equal(t, "ok", s.Health)
	assert.Equal(t, 2, s.Tables)
	assert.Equal(t, 5, s.Columns)
	assert.Equal(t, 1, s.Relationships)
	assert.Equal(t, 50, s.History.CacheHitRate)
	assert.Equal(t, 20, s.History.AvgLatencyMs)
	assert.False(t, s.RefreshedAt.IsZero())
}

func TestRefresh_FailureKeepsPreviousParts(t *testing.T) {
	src := &stubSource{schema: hrSchema(), health: "ok"}
	d := New(src, &stubHistory{}, nil, 0, testLogger())
	require.NoError(t, d.Refresh(context.Background()))

	src.mu.Lock()
	src.schemaErr = errors.New("connection refused")
	src.health = "degraded"
	src.mu.Unlock()

	err := d.Refresh(context.Background())
	require.Error(t, err)

	s := d.Snapshot()
	assert.Equal(t, 2, s.Tables)
	assert.Equal(t, "degraded", s.Health)
}

func TestStart_RefreshesOnInterval(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	src := &stubSource{schema: hrSchema(), health: "ok"}
	d := New(src, &stubHistory{}, clk, DefaultRefreshInterval, testLogger())

	d.Start(context.Background())
	d.Start(context.Background())
	clk.WaitForTimers(1)
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	clk.Advance(DefaultRefreshInterval)
	require.Eventually(t, func() bool { return src.calls.Load() == 2 }, time.Second, time.Millisecond)

	d.Stop()
	d.Stop()
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(3 * DefaultRefreshInterval)
	assert.Equal(t, int64(2), src.calls.Load())
}
