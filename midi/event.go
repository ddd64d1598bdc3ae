package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn   uint8 = 0x90
	NoteOff  uint8 = 0x80
	CC       uint8 = 0xB0
	Clock    uint8 = 0xF8
	Start    uint8 = 0xFA
	Continue uint8 = 0xFB
	Stop     uint8 = 0xFC
)

// Event is a decoded MIDI message. Tick is the sample frame it was
// produced on (zero for input events).
type Event struct {
	Tick       int64
	Type       uint8 // NoteOn, NoteOff, CC, Clock, Start, Continue, Stop
	Channel    uint8 // 0-15
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
}

// IsRealtime reports whether e is a transport or timing message.
func (e Event) IsRealtime() bool {
	return e.Type >= Clock
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("NoteOn  ch=%d note=%d vel=%d", e.Channel+1, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("NoteOff ch=%d note=%d", e.Channel+1, e.Note)
	case CC:
		return fmt.Sprintf("CC      ch=%d cc=%d val=%d", e.Channel+1, e.Controller, e.Value)
	case Clock:
		return "Clock"
	case Start:
		return "Start"
	case Continue:
		return "Continue"
	case Stop:
		return "Stop"
	}
	return fmt.Sprintf("type=0x%02X", e.Type)
}

// Decode converts a wire message into an Event. Messages the sequencer has
// no use for report false. A note on with zero velocity decodes as NoteOff.
func Decode(msg gomidi.Message) (Event, bool) {
	if len(msg) == 1 {
		switch msg[0] {
		case Clock, Start, Continue, Stop:
			return Event{Type: msg[0]}, true
		}
		return Event{}, false
	}

	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Type: NoteOn, Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Type: NoteOff, Channel: ch, Note: key}, true
	case msg.GetControlChange(&ch, &cc, &val):
		return Event{Type: CC, Channel: ch, Controller: cc, Value: val}, true
	}
	return Event{}, false
}

// Encode converts a channel event into a wire message. Realtime events
// report false.
func Encode(e Event) (gomidi.Message, bool) {
	ch := e.Channel & 0x0F
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(ch, e.Note, e.Velocity), true
	case NoteOff:
		return gomidi.NoteOff(ch, e.Note), true
	case CC:
		return gomidi.ControlChange(ch, e.Controller, e.Value), true
	}
	return nil, false
}
