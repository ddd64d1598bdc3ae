// Package quantizer implements a multi-lane scale quantizer with per-channel
// sample-and-hold and change triggers.
//
// Engine.Process runs once per sample. Lane state lives in fixed arrays
// allocated at construction, so processing does not allocate.
package quantizer

import "go-arpquant/dsp"

const (
	// DefaultLanes is the lane count of the standard rack.
	DefaultLanes = 8
	// MaxChannels bounds the polyphonic channels per lane.
	MaxChannels = 16
)

// Host is everything the engine reads on each invocation.
type Host interface {
	// KeyInput and ScaleInput override the Key and Scale params when
	// connected.
	KeyInput() (v float64, connected bool)
	ScaleInput() (v float64, connected bool)
	// TransposeInput is added to the Transpose param, one volt per semitone.
	TransposeInput() float64

	Key() int
	Scale() int
	Transpose() float64     // semitones
	Shift(lane int) float64 // octaves

	CVChannels(lane int) int
	CV(lane, ch int) float64
	HoldChannels(lane int) int
	Hold(lane, ch int) float64
}

// Lane is one independent group of CV in, hold in, pitch out and trigger
// out.
type Lane struct {
	channels int

	hold     [MaxChannels]dsp.SchmittTrigger
	holdEdge [MaxChannels]bool
	trigger  [MaxChannels]dsp.PulseGenerator

	held [MaxChannels]float64
	last [MaxChannels]float64

	out     [MaxChannels]float64
	trigOut [MaxChannels]float64
}

// Channels is the channel count of the last invocation.
func (l *Lane) Channels() int { return l.channels }

// Output returns the pitch of channel ch.
func (l *Lane) Output(ch int) float64 {
	if ch < 0 || ch >= MaxChannels {
		return 0
	}
	return l.out[ch]
}

// Trigger returns the trigger voltage of channel ch (0 or 10).
func (l *Lane) Trigger(ch int) float64 {
	if ch < 0 || ch >= MaxChannels {
		return 0
	}
	return l.trigOut[ch]
}

// Held returns the quantized held pitch of channel ch, before shift and
// transposition.
func (l *Lane) Held(ch int) float64 {
	if ch < 0 || ch >= MaxChannels {
		return 0
	}
	return l.held[ch]
}

// Engine quantizes all lanes against a shared root, scale and transposition.
type Engine struct {
	table Table
	lanes []Lane

	root  int
	scale int
	first bool

	// transposition cache, keyed on the unquantized value
	transIn    float64
	transOut   float64
	transValid bool

	keyLights   [Notes]float64
	scaleLights []float64
}

// NewEngine allocates an engine with n lanes (at least one). A nil table
// selects the default table.
func NewEngine(n int, table Table) *Engine {
	if n < 1 {
		n = 1
	}
	if table == nil {
		table = NewDefaultTable()
	}
	e := &Engine{
		table:       table,
		lanes:       make([]Lane, n),
		scaleLights: make([]float64, max(table.Scales(), 1)),
	}
	e.Reset()
	return e
}

// Reset clears all lanes and forces the lights to refresh.
func (e *Engine) Reset() {
	for i := range e.lanes {
		e.lanes[i] = Lane{}
	}
	e.root, e.scale = 0, 0
	e.first = true
	e.transValid = false
	e.keyLights = [Notes]float64{}
	for i := range e.scaleLights {
		e.scaleLights[i] = 0
	}
}

// Process runs one invocation. dt is the time since the previous call in
// seconds.
func (e *Engine) Process(h Host, dt float64) {
	lastRoot, lastScale := e.root, e.scale

	if v, ok := h.KeyInput(); ok {
		e.root = e.table.KeyFromVoltage(v)
	} else {
		e.root = h.Key()
	}
	e.root = dsp.Clamp(e.root, 0, Notes-1)

	if v, ok := h.ScaleInput(); ok {
		e.scale = e.table.ScaleFromVoltage(v)
	} else {
		e.scale = h.Scale()
	}
	e.scale = dsp.Clamp(e.scale, 0, len(e.scaleLights)-1)

	trans := e.transposition(h)

	for i := range e.lanes {
		e.processLane(h, i, trans, dt)
	}

	if e.first || lastScale != e.scale {
		for i := range e.scaleLights {
			e.scaleLights[i] = 0
		}
		e.scaleLights[e.scale] = 10
	}
	if e.first || lastRoot != e.root {
		e.keyLights = [Notes]float64{}
		e.keyLights[e.root] = 10
	}
	e.first = false
}

// transposition quantizes the global transposition to semitones through
// the chromatic scale, reusing the last result while the input is unchanged.
func (e *Engine) transposition(h Host) float64 {
	raw := (h.TransposeInput() + h.Transpose()) / Notes
	if raw == 0 {
		return 0
	}
	if e.transValid && raw == e.transIn {
		return e.transOut
	}
	e.transIn = raw
	e.transOut = e.table.Quantize(raw, 0, ScaleChromatic)
	e.transValid = true
	return e.transOut
}

func (e *Engine) processLane(h Host, i int, trans, dt float64) {
	l := &e.lanes[i]
	shift := h.Shift(i)
	nCV := dsp.Clamp(h.CVChannels(i), 0, MaxChannels)
	nHold := dsp.Clamp(h.HoldChannels(i), 0, MaxChannels)
	l.channels = max(nCV, nHold)

	for j := 0; j < l.channels; j++ {
		l.holdEdge[j] = l.hold[j].Process(h.Hold(i, j))

		switch {
		case nHold == 0:
			l.held[j] = e.quantize(h.CV(i, j))
		case nHold == 1:
			// channel 0 gates every channel
			if l.holdEdge[0] {
				l.held[j] = e.quantize(h.CV(i, j))
			}
		case nCV == 1:
			if l.holdEdge[j] {
				l.held[j] = e.quantize(h.CV(i, 0))
			}
		default:
			if l.holdEdge[j] {
				l.held[j] = e.quantize(h.CV(i, j))
			}
		}

		if l.held[j] != l.last[j] {
			l.last[j] = l.held[j]
			l.trigger[j].Trigger(dsp.TriggerDuration)
		}

		l.out[j] = l.held[j] + shift + trans
		l.trigOut[j] = dsp.BoolVolts(l.trigger[j].Process(dt))
	}
}

func (e *Engine) quantize(v float64) float64 {
	return e.table.Quantize(v, e.root, e.scale)
}

// Lanes is the number of lanes.
func (e *Engine) Lanes() int { return len(e.lanes) }

// Lane returns lane i for reading. The pointer is only valid while the
// caller holds whatever serializes Process.
func (e *Engine) Lane(i int) *Lane {
	if i < 0 || i >= len(e.lanes) {
		return nil
	}
	return &e.lanes[i]
}

// Root is the effective key of the last invocation.
func (e *Engine) Root() int { return e.root }

// Scale is the effective scale of the last invocation.
func (e *Engine) Scale() int { return e.scale }

// KeyLight returns the brightness of key light i.
func (e *Engine) KeyLight(i int) float64 {
	if i < 0 || i >= Notes {
		return 0
	}
	return e.keyLights[i]
}

// ScaleLight returns the brightness of scale light i.
func (e *Engine) ScaleLight(i int) float64 {
	if i < 0 || i >= len(e.scaleLights) {
		return 0
	}
	return e.scaleLights[i]
}

// Table returns the lookup table in use.
func (e *Engine) Table() Table { return e.table }
