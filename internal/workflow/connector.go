// Package workflow implements the steps that feed the session: connecting
// a data source and uploading documents. Each step publishes its outcome
// on the bus and keeps a visible state for the presentation layer.
package workflow

import (
	"context"
	"sync"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

// Publisher is the part of the event bus the steps need.
type Publisher interface {
	Publish(kind domain.EventKind, payload any)
}

// SchemaDiscoverer connects a data source and returns its schema.
type SchemaDiscoverer interface {
	ConnectDatabase(ctx context.Context, connString string) (*domain.Schema, error)
}

// ConnectorState is what the connector shows to the user.
type ConnectorState struct {
	Message string
	Error   string
	Loading bool
	Schema  *domain.Schema
}

// Connector runs schema discovery.
type Connector struct {
	client SchemaDiscoverer
	bus    Publisher
	logger *logger.Logger

	mu    sync.RWMutex
	state ConnectorState
}

func NewConnector(client SchemaDiscoverer, bus Publisher, log *logger.Logger) *Connector {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Connector{
		client: client,
		bus:    bus,
		logger: log.WithComponent("connector"),
	}
}

// Connect discovers the schema behind connString. On success it
// publishes schema-ready, alias-vocabulary and a success notice; on
// failure a danger notice.
func (c *Connector) Connect(ctx context.Context, connString string) (*domain.Schema, error) {
	c.setState(ConnectorState{Message: "Connecting…", Loading: true, Schema: c.State().Schema})

	schema, err := c.client.ConnectDatabase(ctx, connString)
	if err != nil {
		detail := apiclient.Detail(err)
		c.setState(ConnectorState{Message: detail, Error: detail, Schema: c.State().Schema})
		c.logger.WithError(err).Warn("schema discovery failed")
		c.bus.Publish(domain.EventNotify, domain.Notice{
			Title:    "Database",
			Body:     detail,
			Severity: domain.SeverityDanger,
		})
		return nil, err
	}

	c.setState(ConnectorState{Message: "Connected & analyzed.", Schema: schema})
	c.logger.WithFields(logger.Fields{
		"tables":        len(schema.Tables),
		"relationships": len(schema.Relationships),
	}).Info("schema discovered")

	aliases := schema.AliasVocab
	if aliases == nil {
		aliases = []string{}
	}
	c.bus.Publish(domain.EventSchemaReady, schema)
	c.bus.Publish(domain.EventAliasVocabulary, aliases)
	c.bus.Publish(domain.EventNotify, domain.Notice{
		Title:    "Database",
		Body:     "Schema discovery complete",
		Severity: domain.SeveritySuccess,
	})
	return schema, nil
}

func (c *Connector) State() ConnectorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connector) setState(s ConnectorState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
