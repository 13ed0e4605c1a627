// Package vocab accumulates the autocomplete vocabulary from discovered
// schemas and alias lists.
package vocab

import (
	"strings"
	"sync"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/eventbus"
	"github.com/timmy/querydesk/internal/logger"
)

const (
	DefaultSchemaCap = 300
	DefaultAliasCap  = 400
)

type Config struct {
	SchemaCap int
	AliasCap  int
}

// Cache is a first-seen-ordered set of tokens. Each merge is an ordered
// union truncated to the cap of the event kind that triggered it, so it
// never exceeds the larger of the two caps and never holds duplicates.
type Cache struct {
	schemaCap int
	aliasCap  int
	logger    *logger.Logger

	mu     sync.RWMutex
	tokens []string
	seen   map[string]struct{}
}

func New(cfg Config, log *logger.Logger) *Cache {
	if cfg.SchemaCap <= 0 {
		cfg.SchemaCap = DefaultSchemaCap
	}
	if cfg.AliasCap <= 0 {
		cfg.AliasCap = DefaultAliasCap
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Cache{
		schemaCap: cfg.SchemaCap,
		aliasCap:  cfg.AliasCap,
		logger:    log.WithComponent("vocab"),
		seen:      make(map[string]struct{}),
	}
}

// Subscribe registers the cache for schema-ready and alias-vocabulary on
// the group's bus.
func (c *Cache) Subscribe(group *eventbus.Group) {
	group.Track(eventbus.On(group.Bus(), domain.EventSchemaReady, func(s *domain.Schema) {
		c.MergeSchema(s)
	}))
	group.Track(eventbus.On(group.Bus(), domain.EventAliasVocabulary, func(aliases []string) {
		c.MergeAliases(aliases)
	}))
}

// MergeSchema adds every table and column name of s.
func (c *Cache) MergeSchema(s *domain.Schema) {
	c.merge(s.Tokens(), c.schemaCap, domain.EventSchemaReady)
}

// MergeAliases adds the alias vocabulary.
func (c *Cache) MergeAliases(aliases []string) {
	c.merge(aliases, c.aliasCap, domain.EventAliasVocabulary)
}

func (c *Cache) merge(incoming []string, limit int, kind domain.EventKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, tok := range incoming {
		if tok == "" {
			continue
		}
		if _, dup := c.seen[tok]; dup {
			continue
		}
		c.seen[tok] = struct{}{}
		c.tokens = append(c.tokens, tok)
		added++
	}

	dropped := 0
	if len(c.tokens) > limit {
		for _, tok := range c.tokens[limit:] {
			delete(c.seen, tok)
		}
		dropped = len(c.tokens) - limit
		c.tokens = c.tokens[:limit:limit]
	}

	c.logger.WithFields(logger.Fields{
		logger.FieldEventKind: string(kind),
		logger.FieldCount:     len(c.tokens),
		"added":               added,
		"dropped":             dropped,
	}).Debug("vocabulary merged")
}

// Tokens returns the vocabulary in first-seen order.
func (c *Cache) Tokens() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

// Suggest returns up to n tokens starting with prefix, ignoring case, in
// cache order. n <= 0 means no limit.
func (c *Cache) Suggest(prefix string, n int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, tok := range c.tokens {
		if !strings.HasPrefix(strings.ToLower(tok), prefix) {
			continue
		}
		out = append(out, tok)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
