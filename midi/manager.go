package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-arpquant/debug"
)

// DeviceEvent is emitted when the input controller connects/disconnects
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// portTimeout bounds a port listing (CoreMIDI can hang)
const portTimeout = 3 * time.Second

// DeviceManager handles hot-plug detection of the MIDI input. It keeps at
// most one input connected: the configured port, or the first port that
// is not a software through port.
type DeviceManager struct {
	want       string
	controller Controller
	mu         sync.RWMutex
	events     chan DeviceEvent
	pollRate   time.Duration
}

// NewDeviceManager creates a device manager looking for the named input.
// An empty name takes the first usable port.
func NewDeviceManager(inputPort string) *DeviceManager {
	return &DeviceManager{
		want:     inputPort,
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controller returns the connected input (or nil)
func (dm *DeviceManager) Controller() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.controller
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// InPorts lists input ports, or reports false if the driver did not answer
// in time.
func InPorts() ([]drivers.In, bool) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ports := <-ch:
		return ports, true
	case <-time.After(portTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, false
	}
}

func (dm *DeviceManager) scan() {
	inPorts, ok := InPorts()
	if !ok {
		debug.Log("midi", "port scan timed out")
		return
	}

	names := make([]string, len(inPorts))
	for i, p := range inPorts {
		names[i] = p.String()
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Check for disconnects
	if dm.controller != nil && !contains(names, dm.controller.ID()) {
		id := dm.controller.ID()
		dm.controller.Close()
		dm.controller = nil
		debug.Log("midi", "input disconnected: %s", id)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
	if dm.controller != nil {
		return
	}

	idx := pickInput(names, dm.want)
	if idx < 0 {
		return
	}
	c, err := NewInputController(names[idx], inPorts[idx])
	if err != nil {
		debug.Log("midi", "connect %s: %v", names[idx], err)
		return
	}
	dm.controller = c
	debug.Log("midi", "input connected: %s", names[idx])
	dm.emit(DeviceEvent{Type: DeviceConnected, Controller: c, ID: names[idx]})
}

// emit must not block the scan; a UI that stopped listening loses events.
func (dm *DeviceManager) emit(evt DeviceEvent) {
	select {
	case dm.events <- evt:
	default:
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.controller != nil {
		dm.controller.Close()
		dm.controller = nil
	}
}

// pickInput returns the index of the port to connect: an exact (case
// insensitive) match of want, else a port containing want, else when want
// is empty the first non-through port. -1 when nothing fits.
func pickInput(names []string, want string) int {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		for i, n := range names {
			if !isThrough(n) {
				return i
			}
		}
		return -1
	}
	for i, n := range names {
		if strings.ToLower(n) == want {
			return i
		}
	}
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

func isThrough(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "through") || strings.Contains(name, "thru")
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
