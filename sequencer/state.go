package sequencer

import (
	"go-arpquant/arp"
	"go-arpquant/quantizer"
)

// Tempo bounds in BPM
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// State is everything a project save restores
type State struct {
	Tempo     int            `json:"tempo"`
	Arp       ArpState       `json:"arp"`
	Quantizer QuantizerState `json:"quantizer"`
}

// ArpState holds the arpeggiator knobs and persisted settings
type ArpState struct {
	Pattern  int          `json:"pattern"`
	Offset   int          `json:"offset"`
	Settings arp.Settings `json:"settings"`
}

// QuantizerState holds the quantizer knobs
type QuantizerState struct {
	Key       int   `json:"key"`
	Scale     int   `json:"scale"`
	Transpose int   `json:"transpose"`
	Shift     []int `json:"shift"`
}

// NewState creates a new state with defaults
func NewState() *State {
	return &State{
		Tempo: DefaultTempo,
		Arp: ArpState{
			Settings: arp.DefaultSettings(),
		},
		Quantizer: QuantizerState{
			Shift: make([]int, quantizer.DefaultLanes),
		},
	}
}

// Snapshot captures the current knob state
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.quant
	shift := make([]int, q.Lanes())
	for i := range shift {
		shift[i] = q.ShiftKnob(i)
	}
	return State{
		Tempo: m.tempo,
		Arp: ArpState{
			Pattern:  m.arp.PatternKnob(),
			Offset:   m.arp.Offset(),
			Settings: m.arp.Settings(),
		},
		Quantizer: QuantizerState{
			Key:       q.KeyKnob(),
			Scale:     q.ScaleKnob(),
			Transpose: q.TransposeKnob(),
			Shift:     shift,
		},
	}
}

// Apply restores a snapshot. Out of range values are clamped, missing lane
// shifts are zeroed.
func (m *Manager) Apply(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setTempo(st.Tempo)
	m.arp.SetPattern(st.Arp.Pattern)
	m.arp.SetOffset(st.Arp.Offset)
	m.arp.SetSettings(st.Arp.Settings)

	q := m.quant
	q.SetKey(st.Quantizer.Key)
	q.SetScale(st.Quantizer.Scale)
	q.SetTranspose(st.Quantizer.Transpose)
	for i := 0; i < q.Lanes(); i++ {
		shift := 0
		if i < len(st.Quantizer.Shift) {
			shift = st.Quantizer.Shift[i]
		}
		q.SetShift(i, shift)
	}
	m.notifyUpdate()
}
