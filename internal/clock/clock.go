// Package clock abstracts the timers used by the poller, the notification
// queue and the dashboard so tests can drive time by hand.
package clock

import "time"

// Clock creates timers. Production code uses Real; tests use a Fake.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine (Real) or synchronously
	// during Advance (Fake) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
	// NewTicker panics if d <= 0, like time.NewTicker.
	NewTicker(d time.Duration) Ticker
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop reports whether the call was prevented.
	Stop() bool
}

// Ticker delivers ticks on C. Slow receivers miss ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real returns the Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
