package engine

import (
	"sync"
	"time"

	"github.com/embedwatch/overwatcher/internal/clock"
)

// Timer is the engine's single shared deadline cell (§3, §9 Design
// Notes): at most one pending fire at a time. Reset replaces the
// deadline and arms a fresh wait on the clock; a fire from a deadline
// that has since been replaced is stale and tolerated as a no-op,
// since a wait already in flight cannot always be canceled before it
// wakes.
type Timer struct {
	onFire func()
	clock  clock.Clock

	mu  sync.Mutex
	gen uint64
}

// NewTimer creates a disarmed timer backed by the system clock;
// onFire runs on the timer's own goroutine when a deadline is reached
// without being advanced.
func NewTimer(onFire func()) *Timer {
	return NewTimerWithClock(onFire, clock.Real())
}

// NewTimerWithClock creates a disarmed timer driven by c, letting
// tests substitute a controllable clock for deterministic fires.
func NewTimerWithClock(onFire func(), c clock.Clock) *Timer {
	return &Timer{onFire: onFire, clock: c}
}

// Reset (re)arms the timer for d, invalidating any previously pending
// fire.
func (t *Timer) Reset(d time.Duration) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	wake := t.clock.After(d)
	go func() {
		<-wake
		t.fire(gen)
	}()
}

// Stop disarms the timer without firing, tolerating a fire already in
// flight.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	current := t.gen
	t.mu.Unlock()
	if gen != current {
		return
	}
	t.onFire()
}
