package hardware

import (
	"errors"
	"sync"
	"sync/atomic"
)

// errBorrowerPanicked is the cause carried by a poisoned guard's error.
var errBorrowerPanicked = errors.New("an earlier borrower panicked")

// Guard gives exclusive access to one device handle.
//
// Access is scoped: the handle is only reachable inside the function passed to
// With, and the guard is released on every exit path. Waiters are not queued
// fairly; only mutual exclusion is guaranteed.
//
// If a borrower panics the guard becomes poisoned. The panic continues to
// unwind, and every later With returns ErrGuardPoisoned without touching the
// handle.
type Guard[T any] struct {
	name     string
	mu       sync.Mutex
	handle   T
	poisoned atomic.Bool
}

// NewGuard wraps handle. name identifies the device in errors and logs.
func NewGuard[T any](name string, handle T) *Guard[T] {
	return &Guard[T]{name: name, handle: handle}
}

// Name returns the device name given to NewGuard.
func (g *Guard[T]) Name() string {
	return g.name
}

// Poisoned reports whether a borrower has panicked. It does not block.
func (g *Guard[T]) Poisoned() bool {
	return g.poisoned.Load()
}

// With blocks until the guard is free, then calls fn with the handle.
//
// fn must not acquire another Guard.
//
// Returns:
//   - error: fn's error, or a *DeviceError matching ErrGuardPoisoned if a
//     previous borrower panicked
func (g *Guard[T]) With(fn func(T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned.Load() {
		return &DeviceError{Device: g.name, Kind: ErrGuardPoisoned, Err: errBorrowerPanicked}
	}

	completed := false
	defer func() {
		if !completed {
			g.poisoned.Store(true)
		}
	}()

	err := fn(g.handle)
	completed = true
	return err
}
