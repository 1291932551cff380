package delayline

// Command flag layout, one 6-bit value per configuration change:
//
//	bit 5      ENABLE  output generation on/off
//	bit 4      FEXP    exponential latency encoding
//	bits 0..3  DELAY   latency selector, 0 selects direct mode
const (
	flagEnable = 1 << 5
	flagExp    = 1 << 4
	maskDelay  = 0x0f
	maskFlag   = 0x3f
)

// DefaultDelayFactor is the linear mode step width in milliseconds,
// giving a 20..300 ms range over the 15 non-zero selector values.
const DefaultDelayFactor = 20

// Settings is the complete engine configuration derived from one command
// flag. It is replaced wholesale on every configuration change, never
// mutated field by field.
type Settings struct {
	// Enabled is false while the engine must produce no output at all.
	Enabled bool `json:"enabled"`
	// HasDelay selects delayed mode; false is direct pass-through.
	HasDelay bool `json:"hasDelay"`
	// LatencyMs is the delay applied to every transition in delayed mode.
	LatencyMs uint32 `json:"latencyMs"`
}

// Decode derives the Settings for a command flag. Total over all 64 flag
// values, no side effects.
//
// A zero DELAY selector always means direct mode, regardless of FEXP.
// In linear mode the latency is factor*DELAY. In exponential mode bits
// 2..3 select a decade and bits 0..1 a fraction from the table {1,2,4,8}:
// bit 1 contributes x4 and bit 0 contributes x2, multiplied independently.
// The table is part of the device's calibrated latency grid and is kept
// as is (it is not the power series 2^FRAC its bit pattern suggests).
func Decode(flag byte, factor uint32) Settings {
	flag &= maskFlag

	s := Settings{Enabled: flag&flagEnable != 0}

	sel := uint32(flag & maskDelay)
	if sel == 0 {
		return s
	}
	s.HasDelay = true

	if flag&flagExp == 0 {
		s.LatencyMs = factor * sel
		return s
	}

	exponent := uint32(1)
	for i := sel >> 2; i > 0; i-- {
		exponent *= 10
	}

	fraction := uint32(1)
	if sel&0x2 != 0 {
		fraction *= 4
	}
	if sel&0x1 != 0 {
		fraction *= 2
	}

	s.LatencyMs = exponent * fraction
	return s
}
