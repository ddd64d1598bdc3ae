package arp

import (
	"encoding/json"
	"fmt"
)

// GateMode selects how the gate output follows the gate pulse.
type GateMode int

const (
	// GateTrigger is high only while the gate pulse is active.
	GateTrigger GateMode = iota
	// GateRetrigger is high while running, with a short low blip per step.
	GateRetrigger
	// GateContinuous is high while running.
	GateContinuous

	GateModeCount = 3
)

var gateModeNames = [GateModeCount]string{"Trigger", "Retrigger", "Continuous"}

func (g GateMode) String() string {
	if g < 0 || g >= GateModeCount {
		return gateModeNames[GateTrigger]
	}
	return gateModeNames[g]
}

// Next cycles through the gate modes.
func (g GateMode) Next() GateMode {
	return (g + 1) % GateModeCount
}

// RepeatName is the menu label for a repeat-end value.
func RepeatName(repeat bool) string {
	if repeat {
		return "Play last note"
	}
	return "Omit last note"
}

// Settings are the values that survive a restart.
type Settings struct {
	GateMode  GateMode `json:"gateMode"`
	RepeatEnd bool     `json:"repeatMode"`
}

// DefaultSettings returns Trigger gates without repeated ends.
func DefaultSettings() Settings {
	return Settings{GateMode: GateTrigger}
}

func (s Settings) normalized() Settings {
	if s.GateMode < 0 || s.GateMode >= GateModeCount {
		s.GateMode = GateTrigger
	}
	return s
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings { return e.settings }

// SetSettings replaces the settings. An unknown gate mode becomes Trigger.
// The repeat flag takes effect at the next cycle start.
func (e *Engine) SetSettings(s Settings) {
	e.settings = s.normalized()
}

// SerializeSettings encodes the settings as JSON.
func (e *Engine) SerializeSettings() ([]byte, error) {
	return json.Marshal(e.settings)
}

// RestoreSettings decodes a payload written by SerializeSettings. Keys
// missing from the payload keep their current value; a malformed payload
// leaves the settings untouched.
func (e *Engine) RestoreSettings(data []byte) error {
	var raw struct {
		GateMode  *int  `json:"gateMode"`
		RepeatEnd *bool `json:"repeatMode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("restore arp settings: %w", err)
	}
	s := e.settings
	if raw.GateMode != nil {
		s.GateMode = GateMode(*raw.GateMode)
	}
	if raw.RepeatEnd != nil {
		s.RepeatEnd = *raw.RepeatEnd
	}
	e.settings = s.normalized()
	return nil
}
