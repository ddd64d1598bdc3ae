package sequencer

import (
	"fmt"
	"strings"

	"go-arpquant/dsp"
	"go-arpquant/midi"
	"go-arpquant/quantizer"
	"go-arpquant/theme"
	"go-arpquant/widgets"

	"github.com/charmbracelet/lipgloss"
)

// Knob ranges
const (
	MaxTranspose = 11 // semitones either way
	MaxShift     = 3  // octaves either way
)

// QuantizerDevice wraps the scale quantizer with ports, knobs and MIDI note
// output for lane 0.
type QuantizerDevice struct {
	engine *quantizer.Engine
	th     *theme.Theme

	// Inputs
	CVIn        []Port
	HoldIn      []Port
	KeyIn       Port
	ScaleIn     Port
	TransposeIn Port

	// Outputs
	Out  []Port
	Trig []Port

	key       int
	scale     int
	transpose int
	shift     []int
	lane      int // selected in the UI

	channel  uint8 // 0-15
	trigHigh bool
	sounding bool
	note     uint8
	emit     func(midi.Event)
}

// NewQuantizerDevice creates a quantizer with the default lane count
// sending lane 0 notes on MIDI channel (1-16). A nil table uses the default
// table and a nil theme the default theme.
func NewQuantizerDevice(channel int, table quantizer.Table, th *theme.Theme) *QuantizerDevice {
	if th == nil {
		th = theme.Default()
	}
	n := quantizer.DefaultLanes
	return &QuantizerDevice{
		engine:  quantizer.NewEngine(n, table),
		th:      th,
		CVIn:    make([]Port, n),
		HoldIn:  make([]Port, n),
		Out:     make([]Port, n),
		Trig:    make([]Port, n),
		shift:   make([]int, n),
		channel: uint8(dsp.Clamp(channel, 1, 16) - 1),
		emit:    func(midi.Event) {},
	}
}

func (d *QuantizerDevice) Name() string { return "Quantizer" }

// quantizer.Host

func (d *QuantizerDevice) KeyInput() (float64, bool) {
	return d.KeyIn.Voltage(0), d.KeyIn.Connected()
}

func (d *QuantizerDevice) ScaleInput() (float64, bool) {
	return d.ScaleIn.Voltage(0), d.ScaleIn.Connected()
}

func (d *QuantizerDevice) TransposeInput() float64   { return d.TransposeIn.Voltage(0) }
func (d *QuantizerDevice) Key() int                  { return d.key }
func (d *QuantizerDevice) Scale() int                { return d.scale }
func (d *QuantizerDevice) Transpose() float64        { return float64(d.transpose) }
func (d *QuantizerDevice) Shift(lane int) float64    { return float64(d.shift[lane]) }
func (d *QuantizerDevice) CVChannels(lane int) int   { return d.CVIn[lane].Channels() }
func (d *QuantizerDevice) CV(lane, ch int) float64   { return d.CVIn[lane].Voltage(ch) }
func (d *QuantizerDevice) HoldChannels(lane int) int { return d.HoldIn[lane].Channels() }
func (d *QuantizerDevice) Hold(lane, ch int) float64 { return d.HoldIn[lane].Voltage(ch) }
func (d *QuantizerDevice) Lanes() int                { return len(d.Out) }
func (d *QuantizerDevice) Engine() *quantizer.Engine { return d.engine }

func (d *QuantizerDevice) SetEmitter(emit func(midi.Event)) {
	if emit == nil {
		emit = func(midi.Event) {}
	}
	d.emit = emit
}

func (d *QuantizerDevice) Process(dt float64) {
	d.engine.Process(d, dt)

	for i := range d.Out {
		lane := d.engine.Lane(i)
		n := lane.Channels()
		d.Out[i].SetChannels(n)
		d.Trig[i].SetChannels(n)
		for ch := 0; ch < n; ch++ {
			d.Out[i].SetVoltage(ch, lane.Output(ch))
			d.Trig[i].SetVoltage(ch, lane.Trigger(ch))
		}
	}

	// lane 0, channel 0 drives the MIDI voice
	trig := d.Trig[0].Voltage(0) > 0
	if trig && !d.trigHigh {
		d.release()
		d.note = PitchToNote(d.Out[0].Voltage(0))
		d.sounding = true
		d.emit(midi.Event{Type: midi.NoteOn, Channel: d.channel, Note: d.note, Velocity: noteVelocity})
	}
	d.trigHigh = trig
}

func (d *QuantizerDevice) release() {
	if d.sounding {
		d.emit(midi.Event{Type: midi.NoteOff, Channel: d.channel, Note: d.note})
		d.sounding = false
	}
}

// Reset clears the engine and releases the sounding note
func (d *QuantizerDevice) Reset() {
	d.release()
	d.trigHigh = false
	d.engine.Reset()
	for i := range d.Out {
		d.Out[i].SetChannels(0)
		d.Trig[i].SetChannels(0)
	}
}

// Knobs

func (d *QuantizerDevice) KeyKnob() int       { return d.key }
func (d *QuantizerDevice) ScaleKnob() int     { return d.scale }
func (d *QuantizerDevice) TransposeKnob() int { return d.transpose }

func (d *QuantizerDevice) SetKey(k int) {
	d.key = dsp.Clamp(k, 0, quantizer.Notes-1)
}

func (d *QuantizerDevice) SetScale(s int) {
	d.scale = dsp.Clamp(s, 0, max(d.engine.Table().Scales(), 1)-1)
}

func (d *QuantizerDevice) SetTranspose(t int) {
	d.transpose = dsp.Clamp(t, -MaxTranspose, MaxTranspose)
}

// ShiftKnob is the octave shift of lane, 0 out of range
func (d *QuantizerDevice) ShiftKnob(lane int) int {
	if lane < 0 || lane >= len(d.shift) {
		return 0
	}
	return d.shift[lane]
}

func (d *QuantizerDevice) SetShift(lane, octaves int) {
	if lane < 0 || lane >= len(d.shift) {
		return
	}
	d.shift[lane] = dsp.Clamp(octaves, -MaxShift, MaxShift)
}

func (d *QuantizerDevice) HandleKey(key string) bool {
	switch key {
	case "j":
		d.SetKey(d.key - 1)
	case "k":
		d.SetKey(d.key + 1)
	case "h":
		d.SetScale(d.scale - 1)
	case "l":
		d.SetScale(d.scale + 1)
	case "t":
		d.SetTranspose(d.transpose - 1)
	case "T":
		d.SetTranspose(d.transpose + 1)
	case "[":
		d.lane = (d.lane + len(d.shift) - 1) % len(d.shift)
	case "]":
		d.lane = (d.lane + 1) % len(d.shift)
	case "d":
		d.SetShift(d.lane, d.shift[d.lane]-1)
	case "u":
		d.SetShift(d.lane, d.shift[d.lane]+1)
	default:
		return false
	}
	return true
}

func (d *QuantizerDevice) View() string {
	th := d.th
	e := d.engine

	title := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true).Render("QUANTIZER")
	out := fmt.Sprintf("%s  %s  %s  %s\n\n",
		title,
		widgets.RenderValue(th, "Key", quantizer.KeyName(e.Root())),
		widgets.RenderValue(th, "Scale", quantizer.ScaleName(e.Scale())),
		widgets.RenderValue(th, "Transpose", fmt.Sprintf("%+d", d.transpose)),
	)

	keys := make([]float64, quantizer.Notes)
	names := make([]string, quantizer.Notes)
	for i := range keys {
		keys[i] = e.KeyLight(i) / 10
		names[i] = quantizer.KeyName(i)
	}
	out += widgets.RenderLightRow(th, keys, names) + "\n\n"

	out += "   " + widgets.RenderLight(th, e.ScaleLight(e.Scale())/10) + " " + quantizer.ScaleName(e.Scale()) + "\n\n"

	// Lanes
	muted := lipgloss.NewStyle().Foreground(th.Muted())
	cursor := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	for i := range d.Out {
		lane := e.Lane(i)
		label := fmt.Sprintf("%d", i+1)
		if i == d.lane {
			label = cursor.Render(">" + label)
		} else {
			label = " " + label
		}

		var notes []string
		for ch := 0; ch < lane.Channels(); ch++ {
			notes = append(notes, quantizer.NoteName(int(PitchToNote(lane.Output(ch)))))
		}
		pitches := muted.Render("-")
		if len(notes) > 0 {
			pitches = strings.Join(notes, " ")
		}
		out += fmt.Sprintf(" %s %s oct %+d  %s\n",
			label,
			widgets.RenderLight(th, d.Trig[i].Voltage(0)/10),
			d.shift[i],
			pitches,
		)
	}

	out += "\n"
	out += widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "j / k", Desc: "previous/next key"},
			{Key: "h / l", Desc: "previous/next scale"},
			{Key: "t / T", Desc: "transpose down/up a semitone"},
			{Key: "[ / ]", Desc: "select lane"},
			{Key: "d / u", Desc: "shift selected lane down/up an octave"},
		}},
	})
	return out
}
