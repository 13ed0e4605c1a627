// Package notify holds the transient notifications shown to the user.
// Every notification expires on its own timer.
package notify

import (
	"sync"
	"time"

	"github.com/timmy/querydesk/internal/clock"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/eventbus"
	"github.com/timmy/querydesk/internal/logger"
)

const DefaultTTL = 3500 * time.Millisecond

type Config struct {
	TTL time.Duration
	// MaxVisible drops the oldest notification once exceeded. 0 disables.
	MaxVisible int
}

// Queue is the sole owner of notification lifetime: ids are assigned on
// Enqueue and each entry is removed exactly once, by its timer, by
// Dequeue, by the visible cap or by Close.
type Queue struct {
	clock  clock.Clock
	ttl    time.Duration
	max    int
	logger *logger.Logger

	mu     sync.Mutex
	nextID uint64
	items  []domain.Notification
	timers map[uint64]clock.Timer
	closed bool
}

// New creates a queue. A nil clock uses the real one.
func New(clk clock.Clock, cfg Config, log *logger.Logger) *Queue {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		clock:  clk,
		ttl:    ttl,
		max:    cfg.MaxVisible,
		logger: log.WithComponent("notify"),
		timers: make(map[uint64]clock.Timer),
	}
}

// Subscribe makes the queue consume notify events from bus.
func (q *Queue) Subscribe(bus *eventbus.Bus) eventbus.Token {
	return eventbus.On(bus, domain.EventNotify, func(n domain.Notice) {
		q.Enqueue(n)
	})
}

// Enqueue appends a notification and schedules its removal. After Close
// it returns the zero Notification and keeps nothing.
func (q *Queue) Enqueue(n domain.Notice) domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return domain.Notification{}
	}

	q.nextID++
	item := domain.Notification{
		ID:        q.nextID,
		Title:     n.Title,
		Body:      n.Body,
		Severity:  n.Severity,
		CreatedAt: q.clock.Now(),
	}
	if item.Severity == "" {
		item.Severity = domain.SeverityInfo
	}
	q.items = append(q.items, item)

	id := item.ID
	q.timers[id] = q.clock.AfterFunc(q.ttl, func() { q.Dequeue(id) })

	for q.max > 0 && len(q.items) > q.max {
		q.removeLocked(q.items[0].ID)
	}

	q.logger.WithFields(logger.Fields{
		"notification_id": id,
		"severity":        string(item.Severity),
	}).Debugf("notification queued: %s", item.DisplayTitle())
	return item
}

// Dequeue removes the notification with id. Unknown ids are ignored.
func (q *Queue) Dequeue(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(id)
}

func (q *Queue) removeLocked(id uint64) bool {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Visible returns the live notifications, oldest first.
func (q *Queue) Visible() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of live notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops every pending timer and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}
