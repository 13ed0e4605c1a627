// Package history keeps a read-through copy of the service's query
// history and derives the dashboard statistics from it.
package history

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

// RecentLimit is the number of entries reported by Stats.Recent.
const RecentLimit = 5

// Fetcher loads the service's query history, oldest first.
type Fetcher interface {
	QueryHistory(ctx context.Context) ([]domain.QueryHistoryEntry, error)
}

// Cache holds the last successfully fetched history. A failed refresh
// leaves the previous entries in place.
type Cache struct {
	fetcher Fetcher
	logger  *logger.Logger

	mu          sync.RWMutex
	entries     []domain.QueryHistoryEntry
	refreshedAt time.Time
}

func New(fetcher Fetcher, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Cache{
		fetcher: fetcher,
		logger:  log.WithComponent("history"),
	}
}

// Refresh reloads the history. Errors are logged at debug level and
// otherwise ignored; it reports whether the cache was updated.
func (c *Cache) Refresh(ctx context.Context) bool {
	start := time.Now()
	entries, err := c.fetcher.QueryHistory(ctx)
	if err != nil {
		c.logger.WithError(err).Debug("history refresh failed, keeping cached entries")
		return false
	}
	if entries == nil {
		entries = []domain.QueryHistoryEntry{}
	}

	c.mu.Lock()
	c.entries = entries
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	c.logger.WithFields(logger.Fields{
		logger.FieldCount:      len(entries),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Debug("history refreshed")
	return true
}

// Entries returns the cached history, oldest first.
func (c *Cache) Entries() []domain.QueryHistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.QueryHistoryEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// RefreshedAt is the time of the last successful refresh, zero if none.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Stats summarises a history.
type Stats struct {
	Total        int
	CacheHitRate int // percent
	AvgLatencyMs int // over entries with a positive response time
	Recent       []domain.QueryHistoryEntry
}

// Stats computes statistics over the cached entries.
func (c *Cache) Stats() Stats {
	return Compute(c.Entries())
}

// Compute derives Stats from entries ordered oldest first. Recent holds
// the last RecentLimit entries, newest first.
func Compute(entries []domain.QueryHistoryEntry) Stats {
	s := Stats{Total: len(entries), Recent: []domain.QueryHistoryEntry{}}
	if len(entries) == 0 {
		return s
	}

	hits := 0
	var latencySum float64
	latencyCount := 0
	for _, e := range entries {
		if e.Metrics.CacheHit {
			hits++
		}
		if e.Metrics.ResponseTimeMs > 0 {
			latencySum += e.Metrics.ResponseTimeMs
			latencyCount++
		}
	}

	s.CacheHitRate = int(math.Round(100 * float64(hits) / float64(len(entries))))
	if latencyCount > 0 {
		s.AvgLatencyMs = int(math.Round(latencySum / float64(latencyCount)))
	}

	for i := len(entries) - 1; i >= 0 && len(s.Recent) < RecentLimit; i-- {
		s.Recent = append(s.Recent, entries[i])
	}
	return s
}
