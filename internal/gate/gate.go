// Package gate provides admission control for bounding how many install
// tasks run SteamCMD at the same time.
//
// A Gate hands out at most N permits. Acquire blocks until a slot is free or
// the context is done; every acquired permit must be released exactly once.
//
//	g, _ := gate.NewSemaphore(2)
//	p, err := g.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer g.Release(p)
//
// Waiting tasks are not guaranteed to be admitted in request order.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrInvalidCapacity is returned when a gate is built with fewer than one slot.
var ErrInvalidCapacity = errors.New("gate capacity must be at least 1")

// Permit is an occupied admission slot. Seq is unique per gate and only
// useful for logging.
type Permit struct {
	Seq uint64
}

// Gate bounds concurrent work.
type Gate interface {
	// Acquire blocks until a slot is free. It fails only when ctx is done.
	Acquire(ctx context.Context) (Permit, error)

	// Release returns the slot held by p. Releasing the same permit twice is
	// a caller bug and is not detected.
	Release(p Permit)

	// Capacity returns the fixed number of slots.
	Capacity() int
}

// Semaphore is a Gate backed by a weighted semaphore.
type Semaphore struct {
	sem      *semaphore.Weighted
	capacity int
	seq      atomic.Uint64
}

// NewSemaphore creates a gate with the given number of slots.
func NewSemaphore(capacity int) (*Semaphore, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Semaphore{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}, nil
}

// Acquire implements Gate.
func (s *Semaphore) Acquire(ctx context.Context) (Permit, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Permit{}, err
	}
	return Permit{Seq: s.seq.Add(1)}, nil
}

// Release implements Gate.
func (s *Semaphore) Release(Permit) {
	s.sem.Release(1)
}

// Capacity implements Gate.
func (s *Semaphore) Capacity() int {
	return s.capacity
}
