package testutil

import "sync"

// DeterministicClock is a thread-safe wall clock for tests.
//
// Each call to Now returns the previous time plus a fixed step, so records
// and journal entries carry predictable timestamps. Its Now method satisfies
// registry.WallClock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	now   int64
}

// DefaultEpoch is the first timestamp a default clock returns.
const DefaultEpoch int64 = 1700000000

// NewDeterministicClock creates a clock whose first Now returns DefaultEpoch
// and that advances one second per call.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch, 1)
}

// NewDeterministicClockAt creates a clock whose first Now returns start and
// that advances step seconds per call.
func NewDeterministicClockAt(start, step int64) *DeterministicClock {
	return &DeterministicClock{start: start, step: step, now: start - step}
}

// Now advances the clock and returns the new time in unix seconds.
func (c *DeterministicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the last time returned by Now without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock. After Reset, the next Now returns the start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start - c.step
}
