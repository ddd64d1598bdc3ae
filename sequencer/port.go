package sequencer

import "go-arpquant/dsp"

// MaxChannels is the polyphony of a port
const MaxChannels = 16

// Port is a polyphonic patch point. The manager writes input ports before
// each sample and reads output ports after it.
type Port struct {
	voltages  [MaxChannels]float64
	channels  int
	connected bool
}

// SetChannels connects the port with n channels (clamped to 0-16).
// Channels beyond n read as 0 V.
func (p *Port) SetChannels(n int) {
	n = dsp.Clamp(n, 0, MaxChannels)
	for ch := n; ch < p.channels; ch++ {
		p.voltages[ch] = 0
	}
	p.channels = n
	p.connected = true
}

// SetVoltage sets one channel. Out of range channels are ignored.
func (p *Port) SetVoltage(ch int, v float64) {
	if ch < 0 || ch >= MaxChannels {
		return
	}
	p.voltages[ch] = v
}

// SetMono connects the port with a single channel at v
func (p *Port) SetMono(v float64) {
	p.SetChannels(1)
	p.voltages[0] = v
}

// Disconnect unplugs the port and zeroes it
func (p *Port) Disconnect() {
	p.voltages = [MaxChannels]float64{}
	p.channels = 0
	p.connected = false
}

// Voltage reads a channel, 0 V beyond the channel count
func (p *Port) Voltage(ch int) float64 {
	if ch < 0 || ch >= p.channels {
		return 0
	}
	return p.voltages[ch]
}

func (p *Port) Channels() int   { return p.channels }
func (p *Port) Connected() bool { return p.connected }
