package delayline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingFIFO(t *testing.T) {
	r := newRing(8)

	r.schedule(roleAssert, 10)
	r.schedule(roleDeassert, 20)
	r.schedule(roleAssert, 30)
	require.Equal(t, 3, r.depth())

	assert.Equal(t, roleAssert, r.advance(5), "nothing due yet")
	assert.Equal(t, 3, r.depth())

	assert.Equal(t, roleDeassert, r.advance(10), "assert consumed")
	assert.Equal(t, roleAssert, r.advance(20), "deassert consumed")
	assert.Equal(t, roleDeassert, r.advance(30))
	assert.Equal(t, 0, r.depth())
}

func TestRingAdvancePopsAllDue(t *testing.T) {
	r := newRing(8)
	r.schedule(roleAssert, 10)
	r.schedule(roleDeassert, 11)
	r.schedule(roleAssert, 12)
	r.schedule(roleDeassert, 13)

	// a slow poll arrives after all four targets have passed
	assert.Equal(t, roleAssert, r.advance(100))
	assert.Equal(t, 0, r.depth())
}

func TestRingCompensation(t *testing.T) {
	r := newRing(8)

	// two rising edges back to back, the paired falling edge was missed
	r.schedule(roleAssert, 10)
	r.schedule(roleAssert, 20)

	// the second insertion is doubled so parity stays aligned
	require.Equal(t, 3, r.depth())
	assert.Equal(t, 0, r.writer%2, "writer parity must expect an assert next")

	// correctly alternating traffic afterwards dispatches correctly
	r.schedule(roleAssert, 30)
	r.schedule(roleDeassert, 40)

	assert.Equal(t, roleDeassert, r.advance(30), "pending deassert after asserts")
	assert.Equal(t, roleAssert, r.advance(40))
	assert.Equal(t, 0, r.depth())
}

func TestRingCompensationDeassert(t *testing.T) {
	r := newRing(8)

	r.schedule(roleAssert, 10)
	r.schedule(roleDeassert, 20)
	r.schedule(roleDeassert, 25)

	assert.Equal(t, 0, r.writer%2)
	assert.Equal(t, roleAssert, r.advance(25))
}

func TestRingReset(t *testing.T) {
	r := newRing(4)
	r.schedule(roleAssert, 10)
	r.schedule(roleDeassert, 20)

	r.reset()

	assert.Equal(t, 0, r.depth())
	assert.Equal(t, 0, r.reader)
	assert.Equal(t, 0, r.writer)
	assert.Equal(t, roleAssert, r.advance(100), "stale slots must not dispatch")
}

func TestRingOverflow(t *testing.T) {
	r := newRing(4)

	// five unconsumed entries on a ring of four: the writer laps the
	// reader, the oldest entries are lost and the cursors read nearly
	// empty. No panic, no out-of-range cursor, one counted lap.
	ts := uint32(10)
	for i := 0; i < 5; i++ {
		if i%2 == 0 {
			r.schedule(roleAssert, ts)
		} else {
			r.schedule(roleDeassert, ts)
		}
		ts += 10
	}

	assert.Equal(t, uint64(1), r.overflows)
	assert.Equal(t, 1, r.depth())
	assert.GreaterOrEqual(t, r.reader, 0)
	assert.Less(t, r.writer, 4)

	// the engine keeps running
	r.advance(math.MaxUint32 / 2)
	assert.Equal(t, 0, r.depth())
}

func TestDueWrapSafe(t *testing.T) {
	tests := []struct {
		name    string
		target  uint32
		now     uint32
		wantDue bool
	}{
		{"exactly due", 100, 100, true},
		{"past", 100, 101, true},
		{"pending", 101, 100, false},
		{"target beyond wrap still pending", 10, math.MaxUint32 - 10, false},
		{"due after clock wrapped", math.MaxUint32 - 10, 10, true},
		{"far future reads pending", 1 << 30, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDue, due(tt.target, tt.now))
		})
	}
}
