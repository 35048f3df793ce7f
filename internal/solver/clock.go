package solver

import "time"

// Clock abstracts time for the governor: the current instant and a
// cancellable deadline wait. The only suspension points in a solve
// are the deadline wait and candidate completion waits.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time

	// After returns a channel delivering one value once d elapses.
	After(d time.Duration) <-chan time.Time
}

// systemClock is the wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall-clock implementation used outside
// tests.
func SystemClock() Clock { return systemClock{} }
