package quantizer

import (
	"fmt"
	"math"

	"go-arpquant/dsp"
)

// Notes is the number of pitch classes (and key lights).
const Notes = 12

// Scale indices of the default table.
const (
	ScaleChromatic = iota
	ScaleIonian
	ScaleDorian
	ScalePhrygian
	ScaleLydian
	ScaleMixolydian
	ScaleAeolian
	ScaleLocrian
	ScaleMajorPentatonic
	ScaleMinorPentatonic
	ScaleHarmonicMinor
	ScaleBlues
	ScaleCount
)

// Scale definitions - intervals from root (semitones)
var scaleIntervals = [ScaleCount][]int{
	ScaleChromatic:       {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	ScaleIonian:          {0, 2, 4, 5, 7, 9, 11},
	ScaleDorian:          {0, 2, 3, 5, 7, 9, 10},
	ScalePhrygian:        {0, 1, 3, 5, 7, 8, 10},
	ScaleLydian:          {0, 2, 4, 6, 7, 9, 11},
	ScaleMixolydian:      {0, 2, 4, 5, 7, 9, 10},
	ScaleAeolian:         {0, 2, 3, 5, 7, 8, 10},
	ScaleLocrian:         {0, 1, 3, 5, 6, 8, 10},
	ScaleMajorPentatonic: {0, 2, 4, 7, 9},
	ScaleMinorPentatonic: {0, 3, 5, 7, 10},
	ScaleHarmonicMinor:   {0, 2, 3, 5, 7, 8, 11},
	ScaleBlues:           {0, 3, 5, 6, 7, 10},
}

var scaleNames = [ScaleCount]string{
	"Chromatic", "Ionian", "Dorian", "Phrygian", "Lydian", "Mixolydian",
	"Aeolian", "Locrian", "Maj Penta", "Min Penta", "Harm Min", "Blues",
}

var noteNames = [Notes]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// quantizeRange bounds the input before the integer search.
const quantizeRange = 1000.0

// Table is the lookup the engine quantizes through.
type Table interface {
	Quantize(v float64, root, scale int) float64
	KeyFromVoltage(v float64) int
	ScaleFromVoltage(v float64) int
	Scales() int
}

// DefaultTable is the built-in twelve scale table. Scale 0 is chromatic.
type DefaultTable struct {
	// member[scale][pc] reports whether pitch class pc is in the scale
	member [ScaleCount][Notes]bool
}

// NewDefaultTable builds the membership masks.
func NewDefaultTable() *DefaultTable {
	t := &DefaultTable{}
	for s, intervals := range scaleIntervals {
		for _, iv := range intervals {
			t.member[s][iv%Notes] = true
		}
	}
	return t
}

func (t *DefaultTable) Scales() int { return ScaleCount }

// Quantize returns the nearest pitch on the root/scale grid, in volts per
// octave. Equidistant candidates resolve to the lower one. Out of range
// root and scale are clamped.
func (t *DefaultTable) Quantize(v float64, root, scale int) float64 {
	if math.IsNaN(v) {
		return 0
	}
	root = dsp.Clamp(root, 0, Notes-1)
	scale = dsp.Clamp(scale, 0, ScaleCount-1)

	x := dsp.Clamp(v, -quantizeRange, quantizeRange) * Notes
	lo := int(math.Floor(x)) - Notes/2
	hi := int(math.Ceil(x)) + Notes/2

	best := lo
	bestDist := math.Inf(1)
	for n := lo; n <= hi; n++ {
		if !t.member[scale][pitchClass(n-root)] {
			continue
		}
		if d := math.Abs(float64(n) - x); d < bestDist {
			best, bestDist = n, d
		}
	}
	return float64(best) / Notes
}

// KeyFromVoltage maps a 1V/oct voltage to the pitch class of its nearest
// semitone.
func (t *DefaultTable) KeyFromVoltage(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = dsp.Clamp(v, -quantizeRange, quantizeRange)
	return pitchClass(int(math.Round(v * Notes)))
}

// ScaleFromVoltage spreads 0-10V evenly across the scales.
func (t *DefaultTable) ScaleFromVoltage(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = dsp.Clamp(v, 0, 10)
	return int(math.Round(v / 10 * (ScaleCount - 1)))
}

func pitchClass(n int) int {
	return ((n % Notes) + Notes) % Notes
}

// ScaleName returns the display name of a default table scale.
func ScaleName(scale int) string {
	if scale < 0 || scale >= ScaleCount {
		return fmt.Sprintf("Scale %d", scale)
	}
	return scaleNames[scale]
}

// KeyName returns the note name of a pitch class.
func KeyName(key int) string {
	return noteNames[pitchClass(key)]
}

// NoteName formats a MIDI note number, C4 = 60.
func NoteName(note int) string {
	octave := note/12 - 1
	if note < 0 {
		octave = (note-11)/12 - 1
	}
	return fmt.Sprintf("%s%d", noteNames[pitchClass(note)], octave)
}
