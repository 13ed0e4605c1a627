// Package dashboard keeps a periodically refreshed snapshot of service
// health, schema size and query statistics.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timmy/querydesk/internal/clock"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/history"
	"github.com/timmy/querydesk/internal/logger"
)

const DefaultRefreshInterval = 5 * time.Second

// Source provides the schema and health endpoints.
type Source interface {
	Schema(ctx context.Context) (*domain.Schema, error)
	Health(ctx context.Context) (*domain.HealthStatus, error)
}

// HistorySource is the history cache.
type HistorySource interface {
	Refresh(ctx context.Context) bool
	Stats() history.Stats
}

// Snapshot is the dashboard's view at one point in time.
type Snapshot struct {
	Health        string
	Tables        int
	Columns       int
	Relationships int
	History       history.Stats
	RefreshedAt   time.Time
}

type Dashboard struct {
	source   Source
	history  HistorySource
	clock    clock.Clock
	interval time.Duration
	logger   *logger.Logger

	mu     sync.RWMutex
	schema *domain.Schema
	health string
	at     time.Time

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(source Source, hist HistorySource, clk clock.Clock, interval time.Duration, log *logger.Logger) *Dashboard {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Dashboard{
		source:   source,
		history:  hist,
		clock:    clk,
		interval: interval,
		logger:   log.WithComponent("dashboard"),
		health:   domain.HealthUnknown,
	}
}

// Refresh fetches schema, history and health concurrently. A part that
// fails keeps its previous value; the first error is returned.
func (d *Dashboard) Refresh(ctx context.Context) error {
	start := time.Now()
	var g errgroup.Group

	g.Go(func() error {
		schema, err := d.source.Schema(ctx)
		if err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		d.mu.Lock()
		d.schema = schema
		d.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		d.history.Refresh(ctx)
		return nil
	})
	g.Go(func() error {
		health, err := d.source.Health(ctx)
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		d.mu.Lock()
		d.health = health.Status
		d.mu.Unlock()
		return nil
	})

	err := g.Wait()

	d.mu.Lock()
	d.at = d.clock.Now()
	d.mu.Unlock()

	log := d.logger.WithField(logger.FieldDurationMs, time.Since(start).Milliseconds())
	if err != nil {
		log.WithError(err).Debug("dashboard refresh incomplete")
		return err
	}
	log.Debug("dashboard refreshed")
	return nil
}

// Snapshot returns the current view.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	s := Snapshot{Health: d.health, RefreshedAt: d.at}
	if d.schema != nil {
		s.Tables = len(d.schema.Tables)
		s.Columns = d.schema.ColumnCount()
		s.Relationships = len(d.schema.Relationships)
	}
	d.mu.RUnlock()

	s.History = d.history.Stats()
	return s
}

// Start refreshes immediately and then on every interval until Stop or
// ctx is done. Calling Start twice is a no-op.
func (d *Dashboard) Start(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	ticker := d.clock.NewTicker(d.interval)

	go func() {
		defer close(d.done)
		defer ticker.Stop()

		_ = d.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				_ = d.Refresh(ctx)
			}
		}
	}()
}

// Stop ends the refresh loop and waits for it to exit.
func (d *Dashboard) Stop() {
	d.runMu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
