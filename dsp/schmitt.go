package dsp

// Default thresholds for gate and clock signals, in volts.
const (
	LowThreshold  = 0.1
	HighThreshold = 1.0
)

// SchmittTrigger turns a continuous signal into rising-edge events. The
// signal has to climb to the high threshold to latch and fall back to the
// low threshold before another edge can fire.
type SchmittTrigger struct {
	high bool
}

// Process returns true on the invocation where in crosses HighThreshold
// from a low state.
func (s *SchmittTrigger) Process(in float64) bool {
	return s.ProcessThresholds(in, LowThreshold, HighThreshold)
}

// ProcessThresholds is Process with explicit thresholds.
func (s *SchmittTrigger) ProcessThresholds(in, low, high float64) bool {
	if s.high {
		if in <= low {
			s.high = false
		}
		return false
	}
	if in >= high {
		s.high = true
		return true
	}
	return false
}

// IsHigh reports the latched state.
func (s *SchmittTrigger) IsHigh() bool { return s.high }

// Reset returns the trigger to the low state.
func (s *SchmittTrigger) Reset() { s.high = false }
