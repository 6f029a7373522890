package gate

import (
	"context"
	"sync"
)

// Stats is a snapshot of an Instrumented gate's counters.
type Stats struct {
	Acquired int
	Released int
	InFlight int
	Peak     int
}

// Balanced reports whether every acquired permit has been released.
func (s Stats) Balanced() bool {
	return s.Acquired == s.Released && s.InFlight == 0
}

// Instrumented wraps a Gate and records permit accounting: how many permits
// were acquired and released, how many are held right now, and the highest
// number ever held at once.
type Instrumented struct {
	inner Gate

	mu    sync.Mutex
	stats Stats
}

// NewInstrumented wraps g.
func NewInstrumented(g Gate) *Instrumented {
	return &Instrumented{inner: g}
}

// Acquire implements Gate.
func (i *Instrumented) Acquire(ctx context.Context) (Permit, error) {
	p, err := i.inner.Acquire(ctx)
	if err != nil {
		return p, err
	}

	i.mu.Lock()
	i.stats.Acquired++
	i.stats.InFlight++
	if i.stats.InFlight > i.stats.Peak {
		i.stats.Peak = i.stats.InFlight
	}
	i.mu.Unlock()

	return p, nil
}

// Release implements Gate.
func (i *Instrumented) Release(p Permit) {
	// Counters drop before the slot is handed back to the inner gate.
	i.mu.Lock()
	i.stats.Released++
	i.stats.InFlight--
	i.mu.Unlock()

	i.inner.Release(p)
}

// Capacity implements Gate.
func (i *Instrumented) Capacity() int {
	return i.inner.Capacity()
}

// Stats returns a snapshot of the counters.
func (i *Instrumented) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}
