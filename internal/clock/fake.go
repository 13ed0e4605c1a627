package clock

import (
	"sync"
	"time"
)

// Fake is a Clock whose time only moves on Advance. AfterFunc callbacks
// run synchronously inside Advance, in deadline order; they may create
// new timers but must not call Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
	changed *sync.Cond
}

type waiter struct {
	deadline time.Time
	interval time.Duration // > 0 for tickers
	fn       func()
	ch       chan time.Time
	stopped  bool
}

// NewFake returns a Fake clock set to start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.changed = sync.NewCond(&f.mu)
	return f
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return &fakeTimer{f.add(&waiter{deadline: f.Now().Add(d), fn: fn})}
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	w := &waiter{deadline: f.Now().Add(d), interval: d, ch: make(chan time.Time, 1)}
	return &fakeTicker{f.add(w)}
}

func (f *Fake) add(w *waiter) *fakeHandle {
	f.mu.Lock()
	f.waiters = append(f.waiters, w)
	f.changed.Broadcast()
	f.mu.Unlock()
	return &fakeHandle{clock: f, w: w}
}

// Advance moves time forward by d, firing every waiter whose deadline is
// reached. Tickers fire once per elapsed interval; ticks nobody receives
// are dropped.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.deadline
		if next.interval > 0 {
			next.deadline = next.deadline.Add(next.interval)
		} else {
			f.removeLocked(next)
		}
		now := f.now
		f.mu.Unlock()

		if next.fn != nil {
			next.fn()
			continue
		}
		select {
		case next.ch <- now:
		default:
		}
	}
}

func (f *Fake) nextLocked(target time.Time) *waiter {
	var next *waiter
	for _, w := range f.waiters {
		if w.stopped || w.deadline.After(target) {
			continue
		}
		if next == nil || w.deadline.Before(next.deadline) {
			next = w
		}
	}
	return next
}

func (f *Fake) removeLocked(target *waiter) {
	for i, w := range f.waiters {
		if w == target {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

// Pending returns the number of active timers and tickers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingLocked()
}

func (f *Fake) pendingLocked() int {
	n := 0
	for _, w := range f.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}

// WaitForTimers blocks until at least n timers or tickers are active.
// Use it to sync with a goroutine that registers a ticker before the
// test advances the clock.
func (f *Fake) WaitForTimers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.pendingLocked() < n {
		f.changed.Wait()
	}
}

type fakeHandle struct {
	clock *Fake
	w     *waiter
}

// stop removes the waiter and reports whether it was still scheduled.
func (h *fakeHandle) stop() bool {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	if h.w.stopped {
		return false
	}
	active := false
	for _, w := range h.clock.waiters {
		if w == h.w {
			active = true
			break
		}
	}
	h.w.stopped = true
	h.clock.removeLocked(h.w)
	h.clock.changed.Broadcast()
	return active
}

type fakeTimer struct{ h *fakeHandle }

func (t *fakeTimer) Stop() bool { return t.h.stop() }

type fakeTicker struct{ h *fakeHandle }

func (t *fakeTicker) C() <-chan time.Time { return t.h.w.ch }
func (t *fakeTicker) Stop()               { t.h.stop() }
