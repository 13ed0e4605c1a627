// Package eventbus provides the in-memory publish/subscribe bus that
// decouples workflow steps from the panels reacting to them.
package eventbus

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

// Handler receives a published event. Payloads are shared between all
// subscribers of a kind and must not be mutated.
type Handler func(event domain.Event)

// Token identifies one subscription. The zero Token is never issued.
type Token struct {
	kind domain.EventKind
	id   uint64
}

// Kind returns the event kind the token is subscribed to.
func (t Token) Kind() domain.EventKind {
	return t.kind
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches events synchronously to subscribers in registration
// order. Each Publish works on a snapshot of the handler list taken when
// it starts, so subscribe/unsubscribe calls made by handlers only affect
// later publishes. All methods are safe for concurrent use.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[domain.EventKind][]subscription
	closed   bool
	logger   *logger.Logger
}

// New creates an empty bus. A nil logger uses the default logger.
func New(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Bus{
		handlers: make(map[domain.EventKind][]subscription),
		logger:   log.WithComponent("eventbus"),
	}
}

// Subscribe registers handler for kind and returns its token.
// Subscribing to a closed bus returns a token that is never invoked.
func (b *Bus) Subscribe(kind domain.EventKind, handler Handler) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	token := Token{kind: kind, id: b.nextID}
	if b.closed || handler == nil {
		return token
	}

	b.handlers[kind] = append(b.handlers[kind], subscription{id: token.id, handler: handler})
	return token
}

// Unsubscribe removes the subscription. Unknown or already removed
// tokens are ignored.
func (b *Bus) Unsubscribe(token Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[token.kind]
	for i, s := range subs {
		if s.id != token.id {
			continue
		}
		// Copy rather than splice in place: a Publish in progress may
		// still be iterating the old backing array.
		next := make([]subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, token.kind)
		} else {
			b.handlers[token.kind] = next
		}
		return
	}
}

// Publish invokes every handler currently subscribed to kind, in order.
// A panicking handler is recovered and logged; delivery continues with
// the next handler.
func (b *Bus) Publish(kind domain.EventKind, payload any) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	snapshot := b.handlers[kind]
	b.mu.Unlock()

	event := domain.Event{Kind: kind, Payload: payload}
	for _, s := range snapshot {
		b.dispatch(s, event)
	}

	b.logger.WithFields(logger.Fields{
		logger.FieldEventKind: string(kind),
		logger.FieldCount:     len(snapshot),
	}).Debug("event published")
}

func (b *Bus) dispatch(s subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logger.Fields{
				logger.FieldEventKind: string(event.Kind),
				"subscription":        s.id,
				"stack":               string(debug.Stack()),
			}).Error(fmt.Sprintf("event handler panicked: %v", r))
		}
	}()
	s.handler(event)
}

// SubscriberCount returns the number of handlers registered for kind.
func (b *Bus) SubscriberCount(kind domain.EventKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}

// Close drops every subscription. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[domain.EventKind][]subscription)
}
