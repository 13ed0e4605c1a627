// Package query submits natural-language queries and broadcasts their
// results.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

const (
	DefaultLimit = 50

	noticeTitle = "Query"
)

// ErrQueryInFlight rejects a submission while another is running.
var ErrQueryInFlight = errors.New("query already in flight")

// Runner executes a query against the service.
type Runner interface {
	Query(ctx context.Context, in apiclient.QueryRequest) (*domain.ResultPayload, error)
}

// HistoryRefresher reloads the query history after a successful query.
type HistoryRefresher interface {
	Refresh(ctx context.Context) bool
}

type Publisher interface {
	Publish(kind domain.EventKind, payload any)
}

// Orchestrator runs one query at a time.
type Orchestrator struct {
	runner  Runner
	bus     Publisher
	history HistoryRefresher
	logger  *logger.Logger

	inFlight atomic.Bool

	mu          sync.RWMutex
	lastQuery   string
	lastMetrics map[string]any
	lastError   string
}

// New creates an Orchestrator. history may be nil.
func New(runner Runner, bus Publisher, history HistoryRefresher, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Orchestrator{
		runner:  runner,
		bus:     bus,
		history: history,
		logger:  log.WithComponent("query"),
	}
}

// Submit runs text with the given paging. Blank text is ignored and
// returns (nil, nil). A non-positive limit uses DefaultLimit.
//
// On success the payload is published as query-results followed by a
// success notice, and the history is refreshed. On failure a danger
// notice carrying the service's detail is published and the error is
// returned.
func (o *Orchestrator) Submit(ctx context.Context, text string, limit, offset int) (*domain.ResultPayload, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrQueryInFlight
	}
	defer o.inFlight.Store(false)

	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	o.mu.Lock()
	o.lastQuery = text
	o.lastError = ""
	o.mu.Unlock()

	start := time.Now()
	payload, err := o.runner.Query(ctx, apiclient.QueryRequest{Query: text, Limit: limit, Offset: offset})
	if err != nil {
		detail := apiclient.Detail(err)
		o.mu.Lock()
		o.lastError = detail
		o.mu.Unlock()

		o.logger.WithError(err).WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).
			Warn("query failed")
		o.bus.Publish(domain.EventNotify, domain.Notice{
			Title:    noticeTitle,
			Body:     detail,
			Severity: domain.SeverityDanger,
		})
		return nil, err
	}

	o.mu.Lock()
	o.lastMetrics = payload.PerformanceMetrics
	o.mu.Unlock()

	o.logger.WithFields(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      len(payload.Results.Table),
		"documents":            len(payload.Results.Documents),
		"query_type":           payload.QueryType,
	}).Info("query executed")

	o.bus.Publish(domain.EventQueryResults, payload)
	o.bus.Publish(domain.EventNotify, domain.Notice{
		Title:    noticeTitle,
		Body:     "Query executed successfully",
		Severity: domain.SeveritySuccess,
	})
	if o.history != nil {
		o.history.Refresh(ctx)
	}
	return payload, nil
}

// loading reports whether a query is running.
func (o *Orchestrator) loading() bool {
	return o.inFlight.Load()
}

// LastMetrics returns the performance metrics of the last successful
// query, or nil.
func (o *Orchestrator) LastMetrics() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastMetrics
}

// LastError is the detail of the last failed query, cleared by the next
// submission.
func (o *Orchestrator) LastError() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastError
}

func (o *Orchestrator) LastQuery() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastQuery
}
