package sequencer

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"go-arpquant/arp"
	"go-arpquant/config"
	"go-arpquant/debug"
	"go-arpquant/dsp"
	"go-arpquant/midi"
	"go-arpquant/theme"
)

// Clock constants
const (
	stepsPerBeat    = 4    // internal clock runs in 16ths
	midiTicksPerArp = 6    // 24 PPQN timing clock, one arp step per 16th
	midiClockPulse  = 2e-3 // seconds
)

// CC numbers 20-27 feed quantizer lanes 0-7
const ccLaneBase = 20

// UI refresh rate
const uiFPS = 30

// outputChannels of Render: arp pitch, arp gate
const outputChannels = 2

// Sender delivers device MIDI to the outside world
type Sender interface {
	Send(evt midi.Event) error
}

// Status is the transport summary for the header
type Status struct {
	Playing   bool
	Tempo     int
	Clock     config.ClockSource
	Recording bool
	Focused   string
	Held      int
}

// Manager owns the rack. It patches the devices and steps them once per
// sample, runs the clock and forwards device MIDI to the output.
type Manager struct {
	mu sync.Mutex

	arp     *ArpDevice
	quant   *QuantizerDevice
	devices []Device
	focused int

	sampleRate float64
	frames     int64

	tempo       int
	playing     bool
	clockSource config.ClockSource
	phase       float64 // internal clock, in steps
	clockPulse  dsp.PulseGenerator
	midiTicks   int

	// MIDI keyboard notes, in press order
	held  [MaxChannels]uint8
	nHeld int

	events   chan midi.Event
	output   Sender
	recorder *midi.Recorder
	recStart int64

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager builds the default rack from cfg. A nil theme uses the
// default.
func NewManager(cfg *config.Config, th *theme.Theme) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := &Manager{
		arp:         NewArpDevice(cfg.MIDI.ArpChannel, th),
		quant:       NewQuantizerDevice(cfg.MIDI.QuantizerChannel, nil, th),
		sampleRate:  float64(cfg.Audio.SampleRate),
		tempo:       DefaultTempo,
		clockSource: cfg.Clock,
		events:      make(chan midi.Event, 256),
		UpdateChan:  make(chan struct{}, 1),
	}
	if m.sampleRate <= 0 {
		m.sampleRate = float64(config.DefaultConfig().Audio.SampleRate)
	}
	if cfg.UI.LastTempo != 0 {
		m.setTempo(cfg.UI.LastTempo)
	}
	if m.clockSource != config.ClockMIDI {
		m.clockSource = config.ClockInternal
	}
	m.arp.SetSettings(cfg.Arp)

	m.devices = []Device{m.arp, m.quant}
	for _, d := range m.devices {
		d.SetEmitter(m.emit)
	}

	// keyboard is always patched into the arp
	m.arp.Pitch.SetChannels(0)
	m.arp.Gate.SetChannels(0)
	return m
}

// StartRuntime starts the MIDI output and UI refresh goroutines. They stop
// with ctx.
func (m *Manager) StartRuntime(ctx context.Context) {
	go m.outputLoop(ctx)
	go m.uiLoop(ctx)
}

// SetOutput sets where device MIDI goes. nil discards it.
func (m *Manager) SetOutput(s Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = s
}

// SampleRate is the rate Render and Run step the devices at
func (m *Manager) SampleRate() int {
	return int(m.sampleRate)
}

// Arp and Quantizer expose the devices to tests and tools. Callers must
// not use them concurrently with Render.
func (m *Manager) Arp() *ArpDevice             { return m.arp }
func (m *Manager) Quantizer() *QuantizerDevice { return m.quant }

// Per-sample processing

// Render steps the rack once per frame and writes interleaved
// (arp pitch, arp gate) frames scaled from ±10 V to ±1.
func (m *Manager) Render(buf []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dt := 1 / m.sampleRate
	for i := 0; i+outputChannels <= len(buf); i += outputChannels {
		m.step(dt)
		buf[i] = float32(m.arp.Out.Voltage(0) / 10)
		buf[i+1] = float32(m.arp.GateOut.Voltage(0) / 10)
	}
}

// step runs one sample. Caller holds mu.
func (m *Manager) step(dt float64) {
	m.patchClock(dt)

	m.arp.Process(dt)

	// arp pitch and gate feed quantizer lane 0
	m.quant.CVIn[0] = m.arp.Out
	m.quant.HoldIn[0] = m.arp.GateOut
	m.quant.Process(dt)

	m.frames++
}

func (m *Manager) patchClock(dt float64) {
	clk := &m.arp.Clock
	if !m.playing {
		clk.Disconnect()
		return
	}

	switch m.clockSource {
	case config.ClockMIDI:
		clk.SetMono(dsp.BoolVolts(m.clockPulse.Process(dt)))
	default:
		// square wave, high for the first half of each step
		frac := m.phase - math.Floor(m.phase)
		clk.SetMono(dsp.BoolVolts(frac < 0.5))
		m.phase += dt * float64(m.tempo) / 60 * stepsPerBeat
	}
}

// Run renders in real time from a ticker, for when there is no audio
// device to pull frames. It returns when ctx is done.
func (m *Manager) Run(ctx context.Context) {
	const interval = 5 * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rate := m.sampleRate
	limit := int(rate / 10)
	last := time.Now()
	var buf []float32

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			frames := int(now.Sub(last).Seconds() * rate)
			if frames <= 0 {
				continue
			}
			// after a stall, skip ahead rather than burst
			if frames > limit {
				debug.Log("clock", "render fell behind by %d frames", frames-limit)
				frames = limit
				last = now
			} else {
				last = last.Add(time.Duration(float64(frames) / rate * float64(time.Second)))
			}

			if cap(buf) < frames*outputChannels {
				buf = make([]float32, frames*outputChannels)
			}
			m.Render(buf[:frames*outputChannels])
		}
	}
}

// MIDI out

// emit is the device emitter. It runs under mu from Process.
func (m *Manager) emit(evt midi.Event) {
	evt.Tick = m.frames
	select {
	case m.events <- evt:
	default:
		debug.LogEvery(100, "midi", "output queue full, dropped %s", evt)
	}
}

// outputLoop sends device events and records them
func (m *Manager) outputLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-m.events:
			m.dispatch(evt)
		}
	}
}

func (m *Manager) dispatch(evt midi.Event) {
	m.mu.Lock()
	out := m.output
	rec := m.recorder
	start := m.recStart
	rate := m.sampleRate
	m.mu.Unlock()

	if rec != nil && evt.Tick >= start {
		rec.Add(float64(evt.Tick-start)/rate, evt)
	}
	if out == nil {
		return
	}
	if err := out.Send(evt); err != nil {
		debug.LogEvery(100, "midi", "send failed: %v", err)
		return
	}
	debug.Log("dispatch", "frame=%d %s", evt.Tick, evt)
}

// uiLoop nudges the TUI at a fixed rate so lights follow playback
func (m *Manager) uiLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.notifyUpdate()
		}
	}
}

// notifyUpdate notifies the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// MIDI in

// HandleMIDI routes one input event: transport and clock drive the arp
// clock, notes are held as keyboard pitches, CC 20-27 set quantizer lanes.
func (m *Manager) HandleMIDI(evt midi.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	midiClock := m.clockSource == config.ClockMIDI

	switch evt.Type {
	case midi.Clock:
		if !midiClock || !m.playing {
			return
		}
		if m.midiTicks%midiTicksPerArp == 0 {
			m.clockPulse.Trigger(midiClockPulse)
		}
		m.midiTicks++
		return
	case midi.Start:
		if midiClock {
			m.playing = true
			m.midiTicks = 0
			m.clockPulse.Reset()
			debug.Log("clock", "MIDI start")
		}
	case midi.Continue:
		if midiClock {
			m.playing = true
			debug.Log("clock", "MIDI continue at tick %d", m.midiTicks)
		}
	case midi.Stop:
		if midiClock {
			m.playing = false
			debug.Log("clock", "MIDI stop")
		}
	case midi.NoteOn:
		m.press(evt.Note)
	case midi.NoteOff:
		m.release(evt.Note)
	case midi.CC:
		m.setLaneCC(evt.Controller, evt.Value)
	default:
		return
	}
	m.notifyUpdate()
}

// press adds a held note. Notes beyond the port's polyphony are ignored.
func (m *Manager) press(note uint8) {
	for i := 0; i < m.nHeld; i++ {
		if m.held[i] == note {
			return
		}
	}
	if m.nHeld == MaxChannels {
		return
	}
	m.held[m.nHeld] = note
	m.nHeld++
	m.patchKeyboard()
}

func (m *Manager) release(note uint8) {
	for i := 0; i < m.nHeld; i++ {
		if m.held[i] == note {
			copy(m.held[i:], m.held[i+1:m.nHeld])
			m.nHeld--
			m.patchKeyboard()
			return
		}
	}
}

func (m *Manager) patchKeyboard() {
	m.arp.Pitch.SetChannels(m.nHeld)
	m.arp.Gate.SetChannels(m.nHeld)
	for i := 0; i < m.nHeld; i++ {
		m.arp.Pitch.SetVoltage(i, NoteToPitch(m.held[i]))
		m.arp.Gate.SetVoltage(i, 10)
	}
}

// HeldNotes returns the keyboard notes in press order
func (m *Manager) HeldNotes() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint8, m.nHeld)
	copy(out, m.held[:m.nHeld])
	return out
}

// setLaneCC maps a controller onto a quantizer CV lane. Lane 0 belongs to
// the arp, so CC 20 is ignored.
func (m *Manager) setLaneCC(controller, value uint8) {
	lane := int(controller) - ccLaneBase
	if lane <= 0 || lane >= m.quant.Lanes() {
		return
	}
	m.quant.CVIn[lane].SetMono(float64(value) / 127 * 10)
}

// Transport

// Play starts the clock from the top of a step
func (m *Manager) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		return
	}
	m.playing = true
	m.phase = 0
	m.midiTicks = 0
	m.clockPulse.Reset()
}

// Stop stops playback. The arp goes idle on the next sample.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

// TogglePlay starts or stops playback
func (m *Manager) TogglePlay() {
	m.mu.Lock()
	playing := m.playing
	m.mu.Unlock()
	if playing {
		m.Stop()
	} else {
		m.Play()
	}
}

// SetTempo sets the BPM
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setTempo(bpm)
}

func (m *Manager) setTempo(bpm int) {
	m.tempo = dsp.Clamp(bpm, MinTempo, MaxTempo)
}

// Tempo returns the BPM
func (m *Manager) Tempo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// SetClockSource switches between the internal and MIDI clock. Playback
// stops.
func (m *Manager) SetClockSource(src config.ClockSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src != config.ClockMIDI {
		src = config.ClockInternal
	}
	m.clockSource = src
	m.playing = false
	m.clockPulse.Reset()
	debug.Log("clock", "source=%s", src)
}

// ToggleClockSource flips the clock source and returns the new one
func (m *Manager) ToggleClockSource() config.ClockSource {
	m.mu.Lock()
	src := config.ClockMIDI
	if m.clockSource == config.ClockMIDI {
		src = config.ClockInternal
	}
	m.mu.Unlock()
	m.SetClockSource(src)
	return src
}

// Status returns the transport summary
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Playing:   m.playing,
		Tempo:     m.tempo,
		Clock:     m.clockSource,
		Recording: m.recorder != nil,
		Focused:   m.devices[m.focused].Name(),
		Held:      m.nHeld,
	}
}

// Recording

// RecordingsDir is where recordings are exported
func RecordingsDir() (string, error) {
	base, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "recordings"), nil
}

// ToggleRecording starts recording device MIDI, or stops and exports the
// take to dir as a Standard MIDI File. The path is empty when starting or
// when nothing was recorded.
func (m *Manager) ToggleRecording(dir string) (string, error) {
	m.mu.Lock()
	rec := m.recorder
	if rec == nil {
		m.recorder = midi.NewRecorder(float64(m.tempo))
		m.recStart = m.frames
		m.mu.Unlock()
		debug.Log("record", "started")
		m.notifyUpdate()
		return "", nil
	}
	m.recorder = nil
	m.mu.Unlock()
	m.notifyUpdate()

	if rec.Len() == 0 {
		debug.Log("record", "stopped, nothing recorded")
		return "", nil
	}
	path := filepath.Join(dir, time.Now().Format(timestampFormat)+".mid")
	if err := rec.WriteFile(path); err != nil {
		return "", fmt.Errorf("export recording: %w", err)
	}
	debug.Log("record", "wrote %d events to %s", rec.Len(), path)
	return path, nil
}

// Settings

// ArpSettings returns the arpeggiator's persisted settings
func (m *Manager) ArpSettings() arp.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arp.Settings()
}

// SerializeArpSettings encodes the arpeggiator's persisted settings
func (m *Manager) SerializeArpSettings() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arp.engine.SerializeSettings()
}

// RestoreArpSettings applies a payload from SerializeArpSettings
func (m *Manager) RestoreArpSettings(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arp.engine.RestoreSettings(data)
}

// Focus and UI routing

// FocusNext moves focus to the next device
func (m *Manager) FocusNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = (m.focused + 1) % len(m.devices)
	debug.Log("focus", "%s", m.devices[m.focused].Name())
}

// HandleKey routes a key press to the focused device
func (m *Manager) HandleKey(key string) bool {
	m.mu.Lock()
	handled := m.devices[m.focused].HandleKey(key)
	m.mu.Unlock()
	if handled {
		m.notifyUpdate()
	}
	return handled
}

// View returns the view of the focused device
func (m *Manager) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.devices[m.focused].View()
}

// Reset resets every device and releases held notes
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		d.Reset()
	}
	m.nHeld = 0
	m.patchKeyboard()
}
