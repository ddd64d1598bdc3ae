package sequencer

import (
	"fmt"
	"strings"

	"go-arpquant/arp"
	"go-arpquant/dsp"
	"go-arpquant/midi"
	"go-arpquant/quantizer"
	"go-arpquant/theme"
	"go-arpquant/widgets"

	"github.com/charmbracelet/lipgloss"
)

// MaxOffset is the largest start offset the knob allows
const MaxOffset = 10

// velocity of generated notes
const noteVelocity = 100

// ArpDevice wraps the arpeggiator engine with ports, knobs and MIDI note
// output.
type ArpDevice struct {
	engine *arp.Engine
	th     *theme.Theme

	// Inputs
	Clock  Port
	Pitch  Port
	Gate   Port
	Select Port

	// Outputs
	Out     Port
	GateOut Port
	EOC     Port

	pattern int
	offset  int
	channel uint8 // 0-15

	gateHigh bool
	note     uint8
	emit     func(midi.Event)
}

// NewArpDevice creates an arpeggiator sending notes on MIDI channel
// (1-16). A nil theme uses the default.
func NewArpDevice(channel int, th *theme.Theme) *ArpDevice {
	if th == nil {
		th = theme.Default()
	}
	return &ArpDevice{
		engine:  arp.NewEngine(),
		th:      th,
		channel: uint8(dsp.Clamp(channel, 1, 16) - 1),
		emit:    func(midi.Event) {},
	}
}

func (d *ArpDevice) Name() string { return "Arp" }

// arp.Host

func (d *ArpDevice) ClockVoltage() float64       { return d.Clock.Voltage(0) }
func (d *ArpDevice) ClockConnected() bool        { return d.Clock.Connected() }
func (d *ArpDevice) PitchChannels() int          { return d.Pitch.Channels() }
func (d *ArpDevice) PitchVoltage(ch int) float64 { return d.Pitch.Voltage(ch) }
func (d *ArpDevice) GateConnected() bool         { return d.Gate.Connected() }
func (d *ArpDevice) GateVoltage(ch int) float64  { return d.Gate.Voltage(ch) }
func (d *ArpDevice) Offset() int                 { return d.offset }

// Pattern is the knob value, or the truncated Select voltage when that
// input is connected.
func (d *ArpDevice) Pattern() int {
	if d.Select.Connected() {
		return int(d.Select.Voltage(0))
	}
	return d.pattern
}

func (d *ArpDevice) Process(dt float64) {
	out := d.engine.Process(d, dt)
	d.Out.SetMono(out.Pitch)
	d.GateOut.SetMono(out.Gate)
	d.EOC.SetMono(out.EOC)

	gate := out.Gate > 0
	switch {
	case gate && !d.gateHigh:
		d.noteOn(PitchToNote(out.Pitch))
	case !gate && d.gateHigh:
		d.noteOff()
	case gate:
		// continuous gates hold across steps, retrigger on a new note
		if n := PitchToNote(out.Pitch); n != d.note {
			d.noteOff()
			d.noteOn(n)
		}
	}
	d.gateHigh = gate
}

func (d *ArpDevice) noteOn(n uint8) {
	d.note = n
	d.emit(midi.Event{Type: midi.NoteOn, Channel: d.channel, Note: n, Velocity: noteVelocity})
}

func (d *ArpDevice) noteOff() {
	d.emit(midi.Event{Type: midi.NoteOff, Channel: d.channel, Note: d.note})
}

// Reset stops the engine and releases a sounding note
func (d *ArpDevice) Reset() {
	if d.gateHigh {
		d.noteOff()
	}
	d.gateHigh = false
	d.engine.Reset()
	d.Out.SetMono(0)
	d.GateOut.SetMono(0)
	d.EOC.SetMono(0)
}

func (d *ArpDevice) SetEmitter(emit func(midi.Event)) {
	if emit == nil {
		emit = func(midi.Event) {}
	}
	d.emit = emit
}

// Knobs

func (d *ArpDevice) PatternKnob() int { return d.pattern }

func (d *ArpDevice) SetPattern(p int) {
	d.pattern = dsp.Clamp(p, 0, int(arp.KindCount)-1)
}

func (d *ArpDevice) SetOffset(o int) {
	d.offset = dsp.Clamp(o, 0, MaxOffset)
}

// Settings are the persisted gate and repeat modes
func (d *ArpDevice) Settings() arp.Settings     { return d.engine.Settings() }
func (d *ArpDevice) SetSettings(s arp.Settings) { d.engine.SetSettings(s) }
func (d *ArpDevice) Status() arp.Status         { return d.engine.Status() }

func (d *ArpDevice) HandleKey(key string) bool {
	s := d.engine.Settings()
	switch key {
	case "j":
		d.SetPattern(d.pattern - 1)
	case "k":
		d.SetPattern(d.pattern + 1)
	case "h":
		d.SetOffset(d.offset - 1)
	case "l":
		d.SetOffset(d.offset + 1)
	case "g":
		s.GateMode = s.GateMode.Next()
		d.engine.SetSettings(s)
	case "r":
		s.RepeatEnd = !s.RepeatEnd
		d.engine.SetSettings(s)
	default:
		return false
	}
	return true
}

func (d *ArpDevice) View() string {
	st := d.engine.Status()
	s := d.engine.Settings()
	th := d.th

	title := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true).Render("ARP")
	selected := arp.KindFromInt(d.Pattern()).String()
	if d.Select.Connected() {
		selected += " (cv)"
	}
	out := fmt.Sprintf("%s  %s  %s  %s  %s\n\n",
		title,
		widgets.RenderValue(th, "Pattern", selected),
		widgets.RenderValue(th, "Offset", fmt.Sprint(d.offset)),
		widgets.RenderValue(th, "Gate", s.GateMode.String()),
		widgets.RenderValue(th, "Ends", arp.RepeatName(s.RepeatEnd)),
	)

	// Captured pitch set with the playhead on the current index
	var notes []string
	for i, v := range d.engine.PitchSet() {
		name := quantizer.NoteName(int(PitchToNote(v)))
		switch {
		case !st.Running:
			name = " " + name + " "
		case i == st.Index:
			name = lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true).Render(string(th.Symbols.Playhead) + name + " ")
		default:
			name = string(th.Symbols.Step) + name + " "
		}
		notes = append(notes, name)
	}
	out += "   " + strings.Join(notes, " ") + "\n"

	state := "idle"
	if st.Running {
		state = fmt.Sprintf("%s over %d pitches", st.Active, st.Pitches)
	}
	out += fmt.Sprintf("   %s Gate  %s EOC  %s\n",
		widgets.RenderLight(th, d.GateOut.Voltage(0)/10),
		widgets.RenderLight(th, d.EOC.Voltage(0)/10),
		lipgloss.NewStyle().Foreground(th.Muted()).Render(state),
	)

	out += "\n"
	out += widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "j / k", Desc: "previous/next pattern"},
			{Key: "h / l", Desc: "decrease/increase start offset"},
			{Key: "g", Desc: "cycle gate mode"},
			{Key: "r", Desc: "toggle repeated end notes"},
		}},
	})
	return out
}
