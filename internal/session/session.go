// Package session wires the workflow components around one event bus.
// Producers and consumers never reference each other; they meet only
// through the bus owned here.
package session

import (
	"context"
	"sync"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/clock"
	"github.com/timmy/querydesk/internal/config"
	"github.com/timmy/querydesk/internal/dashboard"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/eventbus"
	"github.com/timmy/querydesk/internal/history"
	"github.com/timmy/querydesk/internal/logger"
	"github.com/timmy/querydesk/internal/notify"
	"github.com/timmy/querydesk/internal/poller"
	"github.com/timmy/querydesk/internal/preference"
	"github.com/timmy/querydesk/internal/query"
	"github.com/timmy/querydesk/internal/results"
	"github.com/timmy/querydesk/internal/vocab"
	"github.com/timmy/querydesk/internal/workflow"
)

// Backend is every call the session makes to the query service.
// *apiclient.Client implements it.
type Backend interface {
	ConnectDatabase(ctx context.Context, connString string) (*domain.Schema, error)
	UploadDocuments(ctx context.Context, files []apiclient.Upload) (string, error)
	IngestStatus(ctx context.Context, jobID string) (*domain.IngestStatus, error)
	Schema(ctx context.Context) (*domain.Schema, error)
	QueryHistory(ctx context.Context) ([]domain.QueryHistoryEntry, error)
	Query(ctx context.Context, in apiclient.QueryRequest) (*domain.ResultPayload, error)
	Health(ctx context.Context) (*domain.HealthStatus, error)
}

// Steps records which workflow steps have completed.
type Steps struct {
	Connected         bool
	DocumentsUploaded bool
	QueryRun          bool
}

// Options are the collaborators New cannot build from config alone.
type Options struct {
	Clock       clock.Clock       // nil uses the real clock
	Preferences *preference.Store // optional
	Logger      *logger.Logger
}

// Session owns the bus and every component subscribed to it.
type Session struct {
	Bus           *eventbus.Bus
	Notifications *notify.Queue
	Vocabulary    *vocab.Cache
	History       *history.Cache
	Poller        *poller.Poller
	Query         *query.Orchestrator
	Results       *results.Presenter
	Connector     *workflow.Connector
	Uploader      *workflow.Uploader
	Dashboard     *dashboard.Dashboard
	Preferences   *preference.Store

	cfg     *config.Config
	backend Backend
	group   *eventbus.Group
	logger  *logger.Logger

	mu     sync.RWMutex
	steps  Steps
	closed bool
}

// New builds a session and registers every subscriber before returning,
// so no event published afterwards can be missed.
func New(cfg *config.Config, backend Backend, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	bus := eventbus.New(log)
	hist := history.New(backend, log)
	poll := poller.New(backend, bus, clk, poller.Config{Interval: cfg.Poller.Interval}, log)

	notes := notify.New(clk, notify.Config{
		TTL:        cfg.Notify.TTL,
		MaxVisible: cfg.Notify.MaxVisible,
	}, log)
	words := vocab.New(vocab.Config{
		SchemaCap: cfg.Vocabulary.SchemaCap,
		AliasCap:  cfg.Vocabulary.AliasCap,
	}, log)

	s := &Session{
		Bus:           bus,
		Notifications: notes,
		Vocabulary:    words,
		History:       hist,
		Poller:        poll,
		Query:         query.New(backend, bus, hist, log),
		Results:       results.New(cfg.Results.PageSize, log),
		Connector:     workflow.NewConnector(backend, bus, log),
		Uploader:      workflow.NewUploader(backend, poll, bus, log),
		Dashboard:     dashboard.New(backend, hist, clk, cfg.Dashboard.RefreshInterval, log),
		Preferences:   opts.Preferences,
		cfg:           cfg,
		backend:       backend,
		group:         bus.NewGroup(),
		logger:        log.WithComponent("session"),
	}

	s.group.Track(s.Notifications.Subscribe(bus))
	s.Vocabulary.Subscribe(s.group)
	s.group.Track(s.Results.Subscribe(bus))

	s.group.Subscribe(domain.EventSchemaReady, func(domain.Event) {
		s.markStep(func(st *Steps) { st.Connected = true })
	})
	s.group.Subscribe(domain.EventDocumentsComplete, func(domain.Event) {
		s.markStep(func(st *Steps) { st.DocumentsUploaded = true })
	})
	s.group.Subscribe(domain.EventQueryResults, func(domain.Event) {
		s.markStep(func(st *Steps) { st.QueryRun = true })
	})

	return s
}

func (s *Session) markStep(update func(*Steps)) {
	s.mu.Lock()
	update(&s.steps)
	s.mu.Unlock()
}

// Steps returns the completed workflow steps.
func (s *Session) Steps() Steps {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

// Connect runs the connect step. An empty connString falls back to the
// configured default.
func (s *Session) Connect(ctx context.Context, connString string) (*domain.Schema, error) {
	if connString == "" {
		connString = s.cfg.Connect.ConnectionString
	}
	return s.Connector.Connect(ctx, connString)
}

// Load performs the initial load: it refreshes query history and
// republishes the current schema. A history failure keeps the empty
// cache; the returned error is the schema fetch's.
func (s *Session) Load(ctx context.Context) error {
	s.History.Refresh(ctx)
	_, err := s.LoadSchema(ctx)
	return err
}

// LoadSchema fetches the service's current schema and, when a data source
// is connected, republishes it so subscribers catch up without a new
// connect. It reports whether anything was published.
func (s *Session) LoadSchema(ctx context.Context) (bool, error) {
	schema, err := s.backend.Schema(ctx)
	if err != nil {
		return false, err
	}
	if len(schema.Tables) == 0 {
		return false, nil
	}
	s.Bus.Publish(domain.EventSchemaReady, schema)
	aliases := schema.AliasVocab
	if aliases == nil {
		aliases = []string{}
	}
	s.Bus.Publish(domain.EventAliasVocabulary, aliases)
	return true, nil
}

// RunQuery submits text with the configured limit and offset.
func (s *Session) RunQuery(ctx context.Context, text string) (*domain.ResultPayload, error) {
	return s.Query.Submit(ctx, text, s.cfg.Query.Limit, s.cfg.Query.Offset)
}

// Close stops polling and the dashboard, cancels pending notification
// timers and removes every subscription. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Poller.Close()
	s.Dashboard.Stop()
	s.group.Close()
	s.Notifications.Close()
	s.Bus.Close()
	s.logger.Debug("session closed")
}
