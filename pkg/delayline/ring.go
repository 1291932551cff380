package delayline

// role tags which output transition a scheduled slot stands for.
// The tag is never stored: a slot's role is implied by the parity of its
// ring position. Even slots hold assert times, odd slots deassert times,
// which halves the slot size but requires strict alternation (see
// schedule for the compensation rule).
type role int

const (
	roleAssert   role = 0
	roleDeassert role = 1
)

// ring is the fixed-capacity schedule of pending output transitions.
// Occupancy is implied by the cursor positions alone; a writer that laps
// the reader silently invalidates the oldest entries (the cursors then
// read as nearly empty). That is the accepted overflow behavior, the
// ring only counts the laps so the fault is observable.
//
// ring is not synchronized; the Engine serializes all access.
type ring struct {
	slots  []uint32
	reader int
	writer int

	overflows uint64
}

func newRing(capacity int) *ring {
	return &ring{slots: make([]uint32, capacity)}
}

// put writes one timestamp at the writer cursor and advances it.
func (r *ring) put(t uint32) {
	r.slots[r.writer] = t
	r.writer = (r.writer + 1) % len(r.slots)

	// writer caught the reader: the implied occupancy just collapsed
	// from full to empty and the unconsumed entries are lost.
	if r.writer == r.reader {
		r.overflows++
	}
}

// schedule enqueues a transition of the given role at the target time.
//
// Producers are expected to alternate assert, deassert, assert, ...
// matching the slot parity. If the same role arrives twice without its
// opposite in between (a pulse too short for the line watcher, or a lost
// paired edge), a single insertion would leave every later slot tagged
// with the wrong parity. In that case a second entry with the same target
// is written, forcing the parity back into alignment; the pair collapses
// to one effective schedule point at dispatch.
func (r *ring) schedule(ro role, target uint32) {
	r.put(target)
	if r.writer%2 == int(ro) {
		r.put(target)
	}
}

// advance pops every pending slot that is due at now and returns the role
// the reader parity points at afterwards, i.e. the transition the output
// is still waiting for.
func (r *ring) advance(now uint32) role {
	for r.reader != r.writer && due(r.slots[r.reader], now) {
		r.reader = (r.reader + 1) % len(r.slots)
	}
	return role(r.reader % 2)
}

// reset empties the schedule. Stale slot contents are left in place,
// validity is defined by the cursors only.
func (r *ring) reset() {
	r.reader = 0
	r.writer = 0
}

// depth is the implied occupancy. A full ring is indistinguishable from
// an empty one, which is exactly the overflow failure mode.
func (r *ring) depth() int {
	return (r.writer - r.reader + len(r.slots)) % len(r.slots)
}

// due reports whether target t has been reached at time now, tolerating
// counter wraparound. The subtraction is evaluated in int32 space, so a
// target up to 2^31-1 ms ahead of now is pending and anything else is
// due. Plain ordering would misfire whenever the clock wraps inside the
// buffer horizon.
func due(t, now uint32) bool {
	return int32(now-t) >= 0
}
