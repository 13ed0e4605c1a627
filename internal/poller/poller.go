// Package poller tracks server-side ingestion jobs by polling their status
// until they complete, fail or are cancelled.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/querydesk/internal/clock"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

const DefaultInterval = 800 * time.Millisecond

var (
	ErrClosed      = errors.New("poller closed")
	ErrJobNotFound = errors.New("job not tracked")
	ErrEmptyJobID  = errors.New("empty job id")
)

// StatusFetcher retrieves the progress of one job.
type StatusFetcher interface {
	IngestStatus(ctx context.Context, jobID string) (*domain.IngestStatus, error)
}

// Publisher is the part of the event bus the poller needs.
type Publisher interface {
	Publish(kind domain.EventKind, payload any)
}

type Config struct {
	Interval time.Duration
}

// Poller runs one poll loop per job. Each loop owns a ticker; a tick that
// arrives while the previous status request is outstanding is skipped.
type Poller struct {
	fetcher  StatusFetcher
	bus      Publisher
	clock    clock.Clock
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	jobs   map[string]*job
	closed bool
	wg     sync.WaitGroup
}

type job struct {
	mu       sync.Mutex
	state    domain.IngestJob
	cancel   context.CancelFunc
	finished chan struct{}

	inFlight atomic.Bool
	requests atomic.Int64
	skipped  atomic.Int64
}

type pollResult struct {
	status *domain.IngestStatus
	err    error
}

// New creates a Poller.
// Parameters:
//   - fetcher: source of job status, usually the API client.
//   - bus: receives documents-complete and notify events.
//   - clk: ticker source; nil uses the real clock.
//   - cfg: poll interval; zero uses DefaultInterval.
//   - log: component logger; nil uses the default.
// Returns:
//   - *Poller: poller with no tracked jobs.
func New(fetcher StatusFetcher, bus Publisher, clk clock.Clock, cfg Config, log *logger.Logger) *Poller {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		bus:      bus,
		clock:    clk,
		interval: interval,
		logger:   log.WithComponent("poller"),
		jobs:     make(map[string]*job),
	}
}

// Start begins polling jobID. Starting a job that is already being polled
// is a no-op; a job in a terminal state is tracked afresh.
func (p *Poller) Start(jobID string) error {
	if jobID == "" {
		return ErrEmptyJobID
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if existing, ok := p.jobs[jobID]; ok && !existing.snapshot().Status.IsTerminal() {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.SetJobID(p.logger.WithContext(ctx), jobID)

	j := &job{
		state: domain.IngestJob{
			ID:          jobID,
			Status:      domain.JobStatusPending,
			SubmittedAt: p.clock.Now(),
		},
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	p.jobs[jobID] = j

	ticker := p.clock.NewTicker(p.interval)
	p.wg.Add(1)
	go p.run(ctx, j, ticker)

	logger.CtxInfo(ctx, "polling started every %s", p.interval)
	return nil
}

func (p *Poller) run(ctx context.Context, j *job, ticker clock.Ticker) {
	defer p.wg.Done()
	defer ticker.Stop()

	jobID := j.id()
	results := make(chan pollResult, 1)
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			if !j.inFlight.CompareAndSwap(false, true) {
				j.skipped.Add(1)
				logger.CtxDebug(ctx, "tick skipped, status request outstanding")
				continue
			}
			j.requests.Add(1)
			go func() {
				status, err := p.fetcher.IngestStatus(ctx, jobID)
				select {
				case results <- pollResult{status: status, err: err}:
				case <-ctx.Done():
				}
			}()

		case r := <-results:
			j.inFlight.Store(false)
			if ctx.Err() != nil {
				return
			}
			if p.handle(ctx, j, r) {
				return
			}
		}
	}
}

// handle applies one status response and reports whether polling is over.
func (p *Poller) handle(ctx context.Context, j *job, r pollResult) bool {
	if r.err != nil {
		msg := fmt.Sprintf("Status check failed: %v", r.err)
		if j.finish(domain.JobStatusFailed, msg, p.clock.Now()) {
			logger.With(logger.Fields{logger.FieldStatus: domain.JobStatusFailed}).
				Warn(ctx, "polling stopped: %v", r.err)
		}
		return true
	}

	status := r.status
	if status == nil {
		status = &domain.IngestStatus{}
	}

	j.mu.Lock()
	if j.state.Status.IsTerminal() {
		j.mu.Unlock()
		return true
	}
	j.state.DoneCount = status.Done
	j.state.TotalCount = status.Total
	j.state.Errors = append([]string(nil), status.Errors...)
	complete := status.Total > 0 && status.Done >= status.Total
	if complete {
		now := p.clock.Now()
		j.state.Status = domain.JobStatusDone
		j.state.FinishedAt = &now
	} else {
		j.state.Status = domain.JobStatusRunning
	}
	j.mu.Unlock()

	logger.With(logger.Fields{
		logger.FieldCount: status.Done,
		"total":           status.Total,
	}).Debug(ctx, "status polled")

	if !complete {
		return false
	}

	// Only the loop that moved the job to done gets here, so completion is
	// announced once and never after a cancellation.
	defer close(j.finished)
	p.bus.Publish(domain.EventDocumentsComplete, domain.DocumentsComplete{
		JobID: j.id(),
		Done:  status.Done,
		Total: status.Total,
	})
	p.bus.Publish(domain.EventNotify, domain.Notice{
		Title:    "Upload",
		Body:     "Documents indexed successfully",
		Severity: domain.SeveritySuccess,
	})
	logger.CtxInfo(ctx, "ingestion complete: %d/%d documents", status.Done, status.Total)
	return true
}

// finish moves the job to a terminal status. It reports false when the
// job had already finished.
func (j *job) finish(status domain.JobStatus, lastError string, at time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Status.IsTerminal() {
		return false
	}
	j.state.Status = status
	j.state.LastError = lastError
	j.state.FinishedAt = &at
	close(j.finished)
	return true
}

func (j *job) id() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.ID
}

func (j *job) snapshot() domain.IngestJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.state
	s.Errors = append([]string(nil), j.state.Errors...)
	return s
}

// Cancel stops polling jobID. No request is issued and nothing is
// published for the job afterwards, even if a request already in flight
// later succeeds. It reports whether the job was still active.
func (p *Poller) Cancel(jobID string) bool {
	p.mu.Lock()
	j, ok := p.jobs[jobID]
	p.mu.Unlock()
	if !ok {
		return false
	}

	cancelled := j.finish(domain.JobStatusCancelled, "", p.clock.Now())
	j.cancel()
	if cancelled {
		p.logger.WithField(logger.FieldJobID, jobID).Info("polling cancelled")
	}
	return cancelled
}

// Snapshot returns a copy of the job's current state.
func (p *Poller) Snapshot(jobID string) (domain.IngestJob, bool) {
	p.mu.Lock()
	j, ok := p.jobs[jobID]
	p.mu.Unlock()
	if !ok {
		return domain.IngestJob{}, false
	}
	return j.snapshot(), true
}

// Jobs returns snapshots of every tracked job.
func (p *Poller) Jobs() []domain.IngestJob {
	p.mu.Lock()
	jobs := make([]*job, 0, len(p.jobs))
	for _, j := range p.jobs {
		jobs = append(jobs, j)
	}
	p.mu.Unlock()

	out := make([]domain.IngestJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.snapshot())
	}
	return out
}

// Wait blocks until jobID reaches a terminal state or ctx is done.
func (p *Poller) Wait(ctx context.Context, jobID string) (domain.IngestJob, error) {
	p.mu.Lock()
	j, ok := p.jobs[jobID]
	p.mu.Unlock()
	if !ok {
		return domain.IngestJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	select {
	case <-j.finished:
		return j.snapshot(), nil
	case <-ctx.Done():
		return j.snapshot(), ctx.Err()
	}
}

// Close cancels every active job and waits for the poll loops to exit.
// It must not be called from a bus handler.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	ids := make([]string, 0, len(p.jobs))
	for id := range p.jobs {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.Cancel(id)
	}
	p.wg.Wait()
}
