// Package dsp holds the small per-sample building blocks shared by the
// arpeggiator and the quantizer: one-shot pulses, Schmitt triggers and
// clamping helpers. Nothing in here allocates or blocks.
package dsp

// TriggerDuration is the width of gate, end-of-cycle and trigger pulses (1ms).
const TriggerDuration = 1e-3

// PulseGenerator reports high for a fixed amount of elapsed time after
// Trigger is called. The zero value is an inactive pulse.
type PulseGenerator struct {
	remaining float64
}

// Trigger (re)starts the pulse for the given duration in seconds.
func (p *PulseGenerator) Trigger(duration float64) {
	if duration < 0 {
		duration = 0
	}
	p.remaining = duration
}

// Process advances the pulse by dt seconds and reports whether it is still
// high. The call whose cumulative elapsed time reaches the width reports low.
func (p *PulseGenerator) Process(dt float64) bool {
	if p.remaining <= 0 {
		return false
	}
	if dt > 0 {
		p.remaining -= dt
	}
	if p.remaining <= 0 {
		p.remaining = 0
		return false
	}
	return true
}

// Active reports whether the pulse is high without advancing it.
func (p *PulseGenerator) Active() bool {
	return p.remaining > 0
}

// Reset drops the pulse immediately.
func (p *PulseGenerator) Reset() {
	p.remaining = 0
}
