package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-arpquant/debug"
)

// eventBuffer is large enough to hold a burst of clock ticks and notes
// between two reads of the consumer.
const eventBuffer = 256

// InputController listens on one input port and delivers decoded events.
type InputController struct {
	id       string
	inPort   drivers.In
	stopFunc func()
	events   chan Event
	once     sync.Once
}

// NewInputController opens inPort and starts listening. Timing clock
// messages are requested explicitly since drivers filter them by default.
func NewInputController(id string, inPort drivers.In) (*InputController, error) {
	c := &InputController{
		id:     id,
		inPort: inPort,
		events: make(chan Event, eventBuffer),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			c.deliver(msg)
		}, gomidi.UseTimeCode())
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		c.stopFunc = stop
	}

	return c, nil
}

// deliver decodes msg and queues it, dropping it if the consumer is behind.
func (c *InputController) deliver(msg gomidi.Message) {
	evt, ok := Decode(msg)
	if !ok {
		return
	}
	select {
	case c.events <- evt:
	default:
		debug.LogEvery(100, "midi-in", "%s: dropped %s", c.id, evt)
	}
}

func (c *InputController) ID() string {
	return c.id
}

func (c *InputController) Events() <-chan Event {
	return c.events
}

func (c *InputController) Close() error {
	c.once.Do(func() {
		if c.stopFunc != nil {
			c.stopFunc()
		}
		close(c.events)
	})
	return nil
}
