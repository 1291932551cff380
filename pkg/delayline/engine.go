// Package delayline implements the event scheduling engine of the
// digital delay line: input edges are recorded with a target time and
// reproduced on the output after the configured latency.
package delayline

import (
	"fmt"
	"sync"

	"delayline/pkg/port"
)

var ErrInvalidCapacity = fmt.Errorf("capacity must be even and positive")

// Engine owns the transition schedule and the engine configuration.
//
// Three caller contexts interleave: the edge handlers (Rise/Fall), the
// polling loop (Poll) and the configuration channel (Apply). One mutex
// serializes them; it is the only synchronization in the engine and
// stands in for the interrupt masking a bare-metal build would use.
// No method blocks on anything but that mutex.
type Engine struct {
	mu sync.Mutex

	// set is the active configuration, replaced wholesale by Apply.
	set Settings
	// queue holds the pending output transitions in delayed mode.
	queue *ring
	// out is the output line capability.
	out port.Output
	// factor is the linear mode step width in milliseconds.
	factor uint32
}

// Status is a point-in-time snapshot of the engine for diagnostics.
type Status struct {
	Settings
	// QueueDepth is the implied occupancy of the schedule.
	QueueDepth int `json:"queueDepth"`
	// Overflows counts writer laps, i.e. bursts that exceeded capacity.
	Overflows uint64 `json:"overflows"`
}

// New creates an Engine driving out, with a schedule of the given
// capacity. The capacity must be even: slot roles are encoded in ring
// position parity, and an odd ring length would flip the encoding on
// every wrap. The engine starts disabled with the output deasserted.
func New(out port.Output, capacity int, factor uint32) (*Engine, error) {
	if capacity <= 0 || capacity%2 != 0 {
		return nil, ErrInvalidCapacity
	}
	if factor == 0 {
		factor = DefaultDelayFactor
	}

	e := &Engine{
		queue:  newRing(capacity),
		out:    out,
		factor: factor,
	}
	e.out.Deassert()
	return e, nil
}

// Rise records a rising input edge detected at the given time.
func (e *Engine) Rise(at uint32) {
	e.edge(roleAssert, at)
}

// Fall records a falling input edge detected at the given time.
func (e *Engine) Fall(at uint32) {
	e.edge(roleDeassert, at)
}

func (e *Engine) edge(ro role, at uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.set.Enabled {
		return
	}

	if !e.set.HasDelay {
		// direct mode mirrors the input, the schedule is bypassed
		if ro == roleAssert {
			e.out.Assert()
		} else {
			e.out.Deassert()
		}
		return
	}

	e.queue.schedule(ro, at+e.set.LatencyMs)
}

// Poll dispatches every scheduled transition due at now. It is called
// once per iteration of the polling loop and never blocks. Both cursors
// are inspected under the engine lock so the edge handlers cannot tear
// the pair.
func (e *Engine) Poll(now uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.set.Enabled || !e.set.HasDelay {
		return
	}
	if e.queue.reader == e.queue.writer {
		// nothing pending
		return
	}

	// reader parity after advancing names the transition still pending:
	// waiting to assert means the output reads deasserted now, and vice
	// versa. Driving the line on every poll is fine, the capability is
	// idempotent.
	if e.queue.advance(now) == roleAssert {
		e.out.Deassert()
	} else {
		e.out.Assert()
	}
}

// Apply decodes one command flag and swaps it in as one atomic unit:
// new settings, empty schedule, output forced deasserted. No stale
// transition survives a reconfiguration.
func (e *Engine) Apply(flag byte) Settings {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.set = Decode(flag, e.factor)
	e.queue.reset()
	e.out.Deassert()

	return e.set
}

// Snapshot returns the current Status.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		Settings:   e.set,
		QueueDepth: e.queue.depth(),
		Overflows:  e.queue.overflows,
	}
}
