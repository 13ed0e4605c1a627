package poller

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
	"github.com/timmy/querydesk/internal/logger"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// scriptedFetcher returns its statuses in order, repeating the last one.
type scriptedFetcher struct {
	mu       sync.Mutex
	statuses []*domain.IngestStatus
	err      error
	gate     chan struct{}

	calls    atomic.Int64
	returned atomic.Int64
}

func (f *scriptedFetcher) IngestStatus(ctx context.Context, jobID string) (*domain.IngestStatus, error) {
	n := int(f.calls.Add(1))
	defer f.returned.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := n - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	s := *f.statuses[idx]
	return &s, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) Publish(kind domain.EventKind, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, domain.Event{Kind: kind, Payload: payload})
}

func (b *recordingBus) count(kind domain.EventKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (b *recordingBus) all() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.events...)
}

func newTestPoller(t *testing.T, f StatusFetcher) (*Poller, *clock.Fake, *recordingBus) {
	t.Helper()
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	clk := clock.NewFake(epoch)
	bus := &recordingBus{}
	p := New(f, bus, clk, Config{Interval: DefaultInterval}, logger.New(cfg))
	t.Cleanup(p.Close)
	return p, clk, bus
}

func waitDone(t *testing.T, p *Poller, jobID string, done int) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, _ := p.Snapshot(jobID)
		return s.DoneCount == done
	}, time.Second, time.Millisecond)
}

func TestPoller_CompletesOnceAfterFinalTick(t *testing.T) {
	f := &scriptedFetcher{statuses: []*domain.IngestStatus{
		{Done: 1, Total: 5}, {Done: 2, Total: 5}, {Done: 3, Total: 5}, {Done: 4, Total: 5}, {Done: 5, Total: 5},
	}}
	p, clk, bus := newTestPoller(t, f)

	require.NoError(t, p.Start("job-1"))
	clk.WaitForTimers(1)

	for i := 1; i <= 5; i++ {
		if i < 5 {
			assert.Equal(t, 0, bus.count(domain.EventDocumentsComplete))
		}
		clk.Advance(DefaultInterval)
		waitDone(t, p, "job-1", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job, err := p.Wait(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, 100, job.Progress())
	require.NotNil(t, job.FinishedAt)

	clk.Advance(10 * DefaultInterval)
	p.Close()

	assert.Equal(t, int64(5), f.calls.Load())
	assert.Equal(t, 1, bus.count(domain.EventDocumentsComplete))
	assert.Equal(t, 1, bus.count(domain.EventNotify))

	events := bus.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventDocumentsComplete, events[0].Kind)
	assert.Equal(t, domain.DocumentsComplete{JobID: "job-1", Done: 5, Total: 5}, events[0].Payload)
	notice := events[1].Payload.(domain.Notice)
	assert.Equal(t, "Upload", notice.Title)
	assert.Equal(t, "Documents indexed successfully", notice.Body)
	assert.Equal(t, domain.SeveritySuccess, notice.Severity)
}

func TestPoller_ZeroTotalKeepsPolling(t *testing.T) {
	f := &scriptedFetcher{statuses: []*domain.IngestStatus{{Done: 0, Total: 0}}}
	p, clk, bus := newTestPoller(t, f)

	require.NoError(t, p.Start("job-1"))
	clk.WaitForTimers(1)
	clk.Advance(DefaultInterval)
	require.Eventually(t, func() bool {
		s, _ := p.Snapshot("job-1")
		return s.Status == domain.JobStatusRunning
	}, time.Second, time.Millisecond)

	clk.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return f.calls.Load() == 2 }, time.Second, time.Millisecond)
	assert.Empty(t, bus.all())
}

func TestPoller_FailureIsTerminal(t *testing.T) {
	f := &scriptedFetcher{err: errors.New("connection refused")}
	p, clk, bus := newTestPoller(t, f)

	require.NoError(t, p.Start("job-1"))
	clk.WaitForTimers(1)
	clk.Advance(DefaultInterval)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job, err := p.Wait(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, "Status check failed: connection refused", job.LastError)

	p.Close()
	clk.Advance(5 * DefaultInterval)
	assert.Equal(t, int64(1), f.calls.Load())
	assert.Empty(t, bus.all())
}

func TestPoller_CancelDiscardsLateResponse(t *testing.T) {
	f := &scriptedFetcher{
		statuses: []*domain.IngestStatus{{Done: 3, Total: 3}},
		gate:     make(chan struct{}),
	}
	p, clk, bus := newTestPoller(t, f)

	require.NoError(t, p.Start("job-1"))
	clk.WaitForTimers(1)
	clk.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	require.True(t, p.Cancel("job-1"))
	assert.False(t, p.Cancel("job-1"))

	close(f.gate)
	require.Eventually(t, func() bool { return f.returned.Load() == 1 }, time.Second, time.Millisecond)
	p.Close()

	clk.Advance(5 * DefaultInterval)
	job, ok := p.Snapshot("job-1")
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusCancelled, job.Status)
	assert.Equal(t, 0, job.DoneCount)
	assert.Equal(t, int64(1), f.calls.Load())
	assert.Empty(t, bus.all())
}

func TestPoller_SkipsTickWhileInFlight(t *testing.T) {
	f := &scriptedFetcher{
		statuses: []*domain.IngestStatus{{Done: 1, Total: 2}},
		gate:     make(chan struct{}),
	}
	p, clk, _ := newTestPoller(t, f)

	require.NoError(t, p.Start("job-1"))
	clk.WaitForTimers(1)
	clk.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	p.mu.Lock()
	j := p.jobs["job-1"]
	p.mu.Unlock()

	clk.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return j.skipped.Load() >= 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), f.calls.Load())
	assert.Equal(t, int64(1), j.requests.Load())

	close(f.gate)
	waitDone(t, p, "job-1", 1)
}

func TestPoller_StartIsIdempotent(t *testing.T) {
	f := &scriptedFetcher{statuses: []*domain.IngestStatus{{Done: 0, Total: 1}}}
	p, clk, _ := newTestPoller(t, f)

	require.NoError(t, p.Start("job-1"))
	require.NoError(t, p.Start("job-1"))
	clk.WaitForTimers(1)
	assert.Equal(t, 1, clk.Pending())
	assert.Len(t, p.Jobs(), 1)

	assert.ErrorIs(t, p.Start(""), ErrEmptyJobID)
}

func TestPoller_StartAfterClose(t *testing.T) {
	p, _, _ := newTestPoller(t, &scriptedFetcher{})
	p.Close()
	assert.ErrorIs(t, p.Start("job-1"), ErrClosed)
}

func TestPoller_WaitUnknownAndTimeout(t *testing.T) {
	f := &scriptedFetcher{statuses: []*domain.IngestStatus{{Done: 0, Total: 1}}}
	p, _, _ := newTestPoller(t, f)

	_, err := p.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	require.NoError(t, p.Start("job-1"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	job, err := p.Wait(ctx, "job-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.JobStatusPending, job.Status)
}
