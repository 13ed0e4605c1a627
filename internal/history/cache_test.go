package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

type stubFetcher struct {
	entries []domain.QueryHistoryEntry
	err     error
	calls   int
}

func (s *stubFetcher) QueryHistory(ctx context.Context) ([]domain.QueryHistoryEntry, error) {
	s.calls++
	return s.entries, s.err
}

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	return logger.New(cfg)
}

func entry(q string, hit bool, ms float64) domain.QueryHistoryEntry {
	return domain.QueryHistoryEntry{Query: q, Metrics: domain.QueryMetrics{CacheHit: hit, ResponseTimeMs: ms}}
}

func TestRefresh_FailureKeepsStaleEntries(t *testing.T) {
	f := &stubFetcher{entries: []domain.QueryHistoryEntry{entry("q1", false, 10)}}
	c := New(f, testLogger())

	require.True(t, c.Refresh(context.Background()))
	require.Len(t, c.Entries(), 1)
	refreshed := c.RefreshedAt()

	f.err = errors.New("connection refused")
	f.entries = nil
	assert.False(t, c.Refresh(context.Background()))

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "q1", entries[0].Query)
	assert.Equal(t, refreshed, c.RefreshedAt())
	assert.Equal(t, 2, f.calls)
}

func TestRefresh_NilBecomesEmpty(t *testing.T) {
	c := New(&stubFetcher{}, testLogger())
	require.True(t, c.Refresh(context.Background()))
	assert.NotNil(t, c.Entries())
	assert.Empty(t, c.Entries())
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.CacheHitRate)
	assert.Equal(t, 0, s.AvgLatencyMs)
	assert.Empty(t, s.Recent)
}

func TestCompute_RatesAndLatency(t *testing.T) {
	s := Compute([]domain.QueryHistoryEntry{
		entry("a", true, 0),
		entry("b", false, 10),
		entry("c", true, 21),
	})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 67, s.CacheHitRate)
	// The zero latency entry is excluded: (10+21)/2 = 15.5.
	assert.Equal(t, 16, s.AvgLatencyMs)
}

func TestCompute_RecentNewestFirst(t *testing.T) {
	var entries []domain.QueryHistoryEntry
	for i := 1; i <= 7; i++ {
		entries = append(entries, entry(fmt.Sprintf("q%d", i), false, 1))
	}

	s := Compute(entries)
	require.Len(t, s.Recent, RecentLimit)
	got := make([]string, 0, len(s.Recent))
	for _, e := range s.Recent {
		got = append(got, e.Query)
	}
	assert.Equal(t, []string{"q7", "q6", "q5", "q4", "q3"}, got)
}

func TestCache_Stats(t *testing.T) {
	c := New(&stubFetcher{entries: []domain.QueryHistoryEntry{entry("a", true, 40)}}, testLogger())
	c.Refresh(context.Background())

	s := c.Stats()
	assert.Equal(t, 100, s.CacheHitRate)
	assert.Equal(t, 40, s.AvgLatencyMs)
}
