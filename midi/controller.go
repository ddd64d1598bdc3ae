package midi

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string

	// Decoded input events. The channel is closed by Close.
	Events() <-chan Event

	// Lifecycle
	Close() error
}
