package query

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

type stubRunner struct {
	payload *domain.ResultPayload
	err     error
	gate    chan struct{}
	started chan struct{}

	mu       sync.Mutex
	requests []apiclient.QueryRequest
}

func (s *stubRunner) Query(ctx context.Context, in apiclient.QueryRequest) (*domain.ResultPayload, error) {
	s.mu.Lock()
	s.requests = append(s.requests, in)
	s.mu.Unlock()
	if s.started != nil {
		close(s.started)
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.payload, s.err
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

type countingHistory struct{ calls int }

func (h *countingHistory) Refresh(ctx context.Context) bool {
	h.calls++
	return true
}

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	return logger.New(cfg)
}

func samplePayload() *domain.ResultPayload {
	p := &domain.ResultPayload{
		QueryType: "sql",
		Results: domain.Results{
			Table: []domain.Row{domain.NewRow("name", "Ada", "salary", 120)},
		},
		PerformanceMetrics: map[string]any{"cache_hit": false, "response_time_ms": 12},
	}
	p.Normalize()
	return p
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	runner := &stubRunner{payload: samplePayload()}
	bus := &recordingBus{}
	o := New(runner, bus, nil, testLogger())

	payload, err := o.Submit(context.Background(), "   \t", 0, 0)
	assert.NoError(t, err)
	assert.Nil(t, payload)
	assert.Empty(t, runner.requests)
	assert.Empty(t, bus.events)
}

func TestSubmit_Success(t *testing.T) {
	runner := &stubRunner{payload: samplePayload()}
	bus := &recordingBus{}
	history := &countingHistory{}
	o := New(runner, bus, history, testLogger())

	payload, err := o.Submit(context.Background(), "top earners", 0, -3)
	require.NoError(t, err)
	assert.Same(t, runner.payload, payload)

	require.Len(t, runner.requests, 1)
	assert.Equal(t, apiclient.QueryRequest{Query: "top earners", Limit: DefaultLimit, Offset: 0}, runner.requests[0])

	require.Len(t, bus.events, 2)
	assert.Equal(t, domain.EventQueryResults, bus.events[0].Kind)
	assert.Same(t, runner.payload, bus.events[0].Payload)
	assert.Equal(t, domain.Notice{Title: "Query", Body: "Query executed successfully", Severity: domain.SeveritySuccess}, bus.events[1].Payload)

	assert.Equal(t, 1, history.calls)
	assert.Equal(t, runner.payload.PerformanceMetrics, o.LastMetrics())
	assert.Equal(t, "top earners", o.LastQuery())
	assert.Empty(t, o.LastError())
	assert.False(t, o.loading())
}

func TestSubmit_FailureSurfacesDetail(t *testing.T) {
	runner := &stubRunner{err: &apiclient.APIError{StatusCode: 400, Detail: "DATABASE_URL not set"}}
	bus := &recordingBus{}
	history := &countingHistory{}
	o := New(runner, bus, history, testLogger())

	_, err := o.Submit(context.Background(), "headcount", 10, 0)
	require.Error(t, err)
	var apiErr *apiclient.APIError
	assert.True(t, errors.As(err, &apiErr))

	assert.Equal(t, "DATABASE_URL not set", o.LastError())
	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.Notice{Title: "Query", Body: "DATABASE_URL not set", Severity: domain.SeverityDanger}, bus.events[0].Payload)
	assert.Equal(t, 0, history.calls)
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	runner := &stubRunner{
		payload: samplePayload(),
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	o := New(runner, &recordingBus{}, nil, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), "first", 0, 0)
		done <- err
	}()
	<-runner.started
	assert.True(t, o.loading())

	_, err := o.Submit(context.Background(), "second", 0, 0)
	assert.ErrorIs(t, err, ErrQueryInFlight)

	close(runner.gate)
	require.NoError(t, <-done)
	assert.False(t, o.loading())
	assert.Len(t, runner.requests, 1)
}
