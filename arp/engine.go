// Package arp implements a clock-driven arpeggiator: it captures a set of
// pitches at the start of each cycle and walks it one step per clock edge in
// one of four orders, producing a pitch voltage, a gate and an end-of-cycle
// pulse.
//
// Engine.Process is meant to be called once per sample from a real-time
// loop. It does not allocate, block or log.
package arp

import "go-arpquant/dsp"

// MaxPitches bounds the pitch set (one per polyphonic channel).
const MaxPitches = 16

// Output voltage range.
const (
	MinVolts = -10.0
	MaxVolts = 10.0
)

// Clock is the external clock input.
type Clock interface {
	ClockVoltage() float64
	ClockConnected() bool
}

// PitchSource supplies the polyphonic pitches captured at cycle start.
// A disconnected source reports zero channels.
type PitchSource interface {
	PitchChannels() int
	PitchVoltage(ch int) float64
}

// GateSource optionally filters the captured pitches per channel.
type GateSource interface {
	GateConnected() bool
	GateVoltage(ch int) float64
}

// Host is everything the engine reads on each invocation.
type Host interface {
	Clock
	PitchSource
	GateSource
	// Pattern is the selected traversal (0-3); other values mean Ascending.
	Pattern() int
	// Offset is the number of steps into the cycle to start (0-10).
	Offset() int
}

// Output is what one invocation produces.
type Output struct {
	Pitch float64
	Gate  float64
	EOC   float64
}

// Status is a read-only snapshot for displays.
type Status struct {
	Running  bool
	Active   Kind // pattern of the running cycle
	Selected Kind // pattern that the next cycle will use
	Index    int
	Position int
	Pitches  int
	Pitch    float64
	Gate     bool
	EOC      bool
}

// Engine is the arpeggiator state machine. The zero value is not usable;
// use NewEngine.
type Engine struct {
	settings Settings

	clock     dsp.SchmittTrigger
	gatePulse dsp.PulseGenerator
	eocPulse  dsp.PulseGenerator

	running   bool
	eocQueued bool
	pattern   Pattern
	selected  Kind

	pitches  [MaxPitches]float64
	nPitches int

	out Output
}

// NewEngine returns an idle engine with default settings.
func NewEngine() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset stops the engine. Settings are kept.
func (e *Engine) Reset() {
	e.running = false
	e.eocQueued = false
	e.clock.Reset()
	e.gatePulse.Reset()
	e.eocPulse.Reset()
	e.pitches = [MaxPitches]float64{}
	e.nPitches = 1
	e.pattern = Pattern{}
	e.out = Output{}
}

// Process runs one invocation. dt is the time since the previous call in
// seconds.
func (e *Engine) Process(h Host, dt float64) Output {
	edge := e.clock.Process(h.ClockVoltage())
	if !h.ClockConnected() {
		e.running = false
	}

	e.selected = KindFromInt(h.Pattern())
	offset := h.Offset()

	if edge {
		if e.eocQueued {
			e.eocPulse.Trigger(dsp.TriggerDuration)
			e.eocQueued = false
		}
		if e.running && !e.pattern.Finished() {
			e.pattern.Advance()
		} else {
			e.restart(h, offset)
		}
		if e.pattern.Finished() {
			e.eocQueued = true
		}
		e.gatePulse.Trigger(dsp.TriggerDuration)
	}

	e.out.Pitch = dsp.Clamp(e.pitches[e.pattern.Index()], MinVolts, MaxVolts)

	pulse := e.gatePulse.Process(dt)
	gate := e.running
	switch e.settings.GateMode {
	case GateTrigger:
		gate = gate && pulse
	case GateRetrigger:
		gate = gate && !pulse
	}
	e.out.Gate = dsp.BoolVolts(gate)
	e.out.EOC = dsp.BoolVolts(e.eocPulse.Process(dt))
	return e.out
}

// restart captures a new pitch set and starts a cycle with it.
func (e *Engine) restart(h Host, offset int) {
	e.capture(h)
	e.pattern.Init(e.selected, e.nPitches, offset, e.settings.RepeatEnd)
	e.running = true
}

// capture fills the pitch buffer in place from the host.
func (e *Engine) capture(h Host) {
	n := 0
	channels := dsp.Clamp(h.PitchChannels(), 0, MaxPitches)
	gated := h.GateConnected()
	for ch := 0; ch < channels; ch++ {
		if gated && h.GateVoltage(ch) <= 0 {
			continue
		}
		e.pitches[n] = h.PitchVoltage(ch)
		n++
	}
	if n == 0 {
		e.pitches[0] = 0
		n = 1
	}
	e.nPitches = n
}

// Running reports whether a cycle is in progress.
func (e *Engine) Running() bool { return e.running }

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	return Status{
		Running:  e.running,
		Active:   e.pattern.Kind(),
		Selected: e.selected,
		Index:    e.pattern.Index(),
		Position: e.pattern.Position(),
		Pitches:  e.nPitches,
		Pitch:    e.out.Pitch,
		Gate:     e.out.Gate > 0,
		EOC:      e.out.EOC > 0,
	}
}

// PitchSet returns a copy of the captured pitches.
func (e *Engine) PitchSet() []float64 {
	out := make([]float64, e.nPitches)
	copy(out, e.pitches[:e.nPitches])
	return out
}
