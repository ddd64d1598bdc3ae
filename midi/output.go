package midi

import (
	"fmt"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Output sends events to a named output port, opening it on first use.
type Output struct {
	portName string
	send     func(gomidi.Message) error
	mu       sync.Mutex
}

// NewOutput creates an output for portName. An empty name makes Send a
// no-op.
func NewOutput(portName string) *Output {
	return &Output{portName: portName}
}

// PortName returns the configured port
func (o *Output) PortName() string {
	return o.portName
}

// Send encodes and sends one event. Realtime events are ignored.
func (o *Output) Send(evt Event) error {
	msg, ok := Encode(evt)
	if !ok {
		return nil
	}
	send, err := o.sender()
	if err != nil || send == nil {
		return err
	}
	if err := send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", o.portName, err)
	}
	return nil
}

// sender returns the open sender, lazily opening the port
func (o *Output) sender() (func(gomidi.Message) error, error) {
	if o.portName == "" {
		return nil, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send != nil {
		return o.send, nil
	}

	// Find and open port
	for _, port := range gomidi.GetOutPorts() {
		if strings.EqualFold(port.String(), o.portName) {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fmt.Errorf("open output %s: %w", o.portName, err)
			}
			o.send = send
			return send, nil
		}
	}
	return nil, fmt.Errorf("output port %q not found", o.portName)
}
