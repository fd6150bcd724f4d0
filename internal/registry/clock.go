package registry

import (
	"sync/atomic"
	"time"
)

// Clock is the per-registry logical clock that stamps journal entries.
//
// Every committed mutation gets a strictly increasing seq. Ordering never
// depends on wall time, so a replayed journal applies in the same order.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used for replay to resume from the last journaled seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Peek returns the value the next call to Next will return.
func (c *Clock) Peek() int64 {
	return c.seq.Load() + 1
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// WallClock returns the current time in unix seconds. It timestamps records
// and entries; it never orders them.
type WallClock func() int64

// SystemTime is the default WallClock.
func SystemTime() int64 {
	return time.Now().Unix()
}
