package mock

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var _ backoff.Timer = (*Timer)(nil)

// Timer is a backoff.Timer that fires immediately and records every
// requested wait.
type Timer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

func (t *Timer) Start(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waits = append(t.waits, duration)
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	select {
	case t.c <- time.Now():
	default:
	}
}

func (t *Timer) Stop() {}

func (t *Timer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	return t.c
}

// Waits returns the requested waits in order.
func (t *Timer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}
