package eventbus

import (
	"sync"

	"github.com/timmy/querydesk/internal/domain"
)

// Group collects the subscriptions of one owner so they can be removed
// together during teardown.
type Group struct {
	bus    *Bus
	mu     sync.Mutex
	tokens []Token
	closed bool
}

// NewGroup creates a subscription group on b.
func (b *Bus) NewGroup() *Group {
	return &Group{bus: b}
}

// Bus returns the bus the group subscribes on.
func (g *Group) Bus() *Bus {
	return g.bus
}

// Subscribe registers handler on the group's bus.
func (g *Group) Subscribe(kind domain.EventKind, handler Handler) Token {
	return g.Track(g.bus.Subscribe(kind, handler))
}

// Track adds an existing token to the group. Tracking after Close
// unsubscribes the token immediately.
func (g *Group) Track(token Token) Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		g.bus.Unsubscribe(token)
		return token
	}
	g.tokens = append(g.tokens, token)
	return token
}

// Close unsubscribes every tracked token. Safe to call more than once.
func (g *Group) Close() {
	g.mu.Lock()
	tokens := g.tokens
	g.tokens = nil
	g.closed = true
	g.mu.Unlock()

	for _, t := range tokens {
		g.bus.Unsubscribe(t)
	}
}
