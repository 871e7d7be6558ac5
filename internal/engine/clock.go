package engine

import "sync/atomic"

// Clock is a monotonic logical clock. The oracle stamps each committed
// differential step with Next, and the store orders records by the same
// kind of sequence number, never by wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although an oracle only ever advances its own clock from one goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
