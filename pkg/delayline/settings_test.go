package delayline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeIsTotal(t *testing.T) {
	// every 6-bit flag must decode deterministically, direct mode iff
	// the selector nibble is zero
	for flag := 0; flag < 64; flag++ {
		s := Decode(byte(flag), DefaultDelayFactor)

		assert.Equal(t, flag&0x20 != 0, s.Enabled, "flag %#02x enabled", flag)
		assert.Equal(t, flag&0x0f != 0, s.HasDelay, "flag %#02x hasDelay", flag)
		if flag&0x0f == 0 {
			assert.Zero(t, s.LatencyMs, "flag %#02x direct mode latency", flag)
		}

		again := Decode(byte(flag), DefaultDelayFactor)
		assert.Equal(t, s, again, "flag %#02x not deterministic", flag)
	}
}

func TestDecodeLinear(t *testing.T) {
	for sel := 1; sel <= 15; sel++ {
		s := Decode(byte(0x20|sel), DefaultDelayFactor)
		assert.True(t, s.Enabled)
		assert.True(t, s.HasDelay)
		assert.Equal(t, uint32(20*sel), s.LatencyMs, "selector %d", sel)
	}
}

func TestDecodeLinearFactor(t *testing.T) {
	s := Decode(0x22, 25)
	assert.Equal(t, uint32(50), s.LatencyMs)
}

func TestDecodeExponential(t *testing.T) {
	// decade from bits 2..3, fraction table {1,2,4,8} from bits 0..1.
	// The table is the calibrated enumeration (bit1 x4, bit0 x2), not a
	// power series.
	fraction := []uint32{1, 2, 4, 8}

	for exp := 0; exp <= 3; exp++ {
		for frac := 0; frac <= 3; frac++ {
			sel := exp<<2 | frac
			if sel == 0 {
				// zero selector is direct mode, not 1 ms
				continue
			}

			exponent := uint32(1)
			for i := 0; i < exp; i++ {
				exponent *= 10
			}
			want := exponent * fraction[frac]

			s := Decode(byte(0x10|sel), DefaultDelayFactor)
			assert.True(t, s.HasDelay, "exp %d frac %d", exp, frac)
			assert.Equal(t, want, s.LatencyMs, "exp %d frac %d", exp, frac)
		}
	}
}

func TestDecodeHighBitsMasked(t *testing.T) {
	// flags are 6 bits by construction of the receive path; Decode masks
	// anyway so it stays total over a full byte
	assert.Equal(t, Decode(0x21, 20), Decode(0xe1, 20))
}
