// Package port holds the definitions of the physical line boundary:
// edge events coming in, the output capability going out, and the
// millisecond clock both sides are timed against.
package port

import "time"

// EventType indicates the type of change to the line active state.
type EventType int

const (
	_ EventType = iota
	// RisingEdge indicates an inactive to active event (low to high).
	RisingEdge
	// FallingEdge indicates an active to inactive event (high to low).
	FallingEdge
)

// Event is one observed input transition.
type Event struct {
	// Type of state change this event represents.
	Type EventType
	// At is the time the event was detected, in clock milliseconds.
	At uint32
}

// Output is the capability to drive the output line.
// Both operations are idempotent and must be cheap enough to be called
// from an event handler context.
type Output interface {
	// Assert drives the output line active.
	Assert()
	// Deassert drives the output line inactive.
	Deassert()
}

// Clock is a monotonic millisecond counter.
// The counter wraps at the uint32 boundary; consumers must compare
// timestamps wrap-safe and never by plain ordering.
type Clock interface {
	Millis() uint32
}

type monotonicClock struct {
	start time.Time
}

// NewClock returns a Clock counting milliseconds since the call.
// time.Since uses the runtime monotonic reading, so the counter never
// steps on wall clock adjustments.
func NewClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}
