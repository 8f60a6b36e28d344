// Package clock abstracts time so the main timer (internal/engine)
// and the link manager's backoff-style sleeps (internal/link) can be
// driven deterministically in tests, the same way the teacher's
// internal/process package abstracts time behind Clock/RealClock for
// StateMachine and its backoff delays. It is factored into its own
// leaf package because internal/engine and internal/link each need
// it independently and neither imports the other.
package clock

import "time"

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// realClock uses the system clock.
type realClock struct{}

func (realClock) Now() time.Time                        { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Real returns a Clock backed by the system clock.
func Real() Clock { return realClock{} }
