package testutil

import (
	"sync"
	"time"
)

// Epoch is the first reading of a DeterministicClock.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a logical wall clock for tests: the n-th call to
// Now returns Epoch plus n-1 seconds.
//
// Unlike ident.SystemClock, DeterministicClock can be reset for test reuse.
// This enables the same scenario to run multiple times with identical
// timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	tick int64
}

// NewDeterministicClock creates a clock that has not ticked yet.
//
// The first call to Now() returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the next reading and advances the clock by one second.
// Implements ident.Clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.tick) * time.Second)
	c.tick++
	return t
}

// Ticks returns how many readings have been taken.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Reset rewinds the clock.
//
// After Reset(), the next call to Now() returns Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = 0
}

// At returns Epoch plus n seconds, the reading the clock gives on its
// (n+1)-th call.
func At(n int) time.Time {
	return Epoch.Add(time.Duration(n) * time.Second)
}
