package sequencer

import (
	"math"

	"go-arpquant/dsp"
	"go-arpquant/midi"
)

// Device is a module in the rack. The manager patches its input ports,
// calls Process once per sample and reads its output ports.
type Device interface {
	Name() string

	// Process runs one sample. dt is the sample period in seconds.
	Process(dt float64)
	Reset()

	// SetEmitter installs the callback that receives the device's MIDI
	// output. It is called from Process and must not block.
	SetEmitter(emit func(evt midi.Event))

	// UI
	View() string
	HandleKey(key string) bool
}

// middleC is the note at 0 V, 1 V/octave
const middleC = 60

// PitchToNote converts a pitch voltage to the nearest MIDI note (0-127)
func PitchToNote(v float64) uint8 {
	if math.IsNaN(v) {
		return middleC
	}
	n := math.Round(middleC + v*12)
	return uint8(dsp.Clamp(n, 0, 127))
}

// NoteToPitch converts a MIDI note to its pitch voltage
func NoteToPitch(note uint8) float64 {
	return float64(int(note)-middleC) / 12
}
