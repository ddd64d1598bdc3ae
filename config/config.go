package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go-arpquant/arp"
)

// ClockSource selects what drives the arpeggiator clock
type ClockSource string

const (
	ClockInternal ClockSource = "internal"
	ClockMIDI     ClockSource = "midi"
)

// MIDIConfig names the ports and output channels (1-16)
type MIDIConfig struct {
	InputPort        string `json:"inputPort,omitempty"`
	OutputPort       string `json:"outputPort,omitempty"`
	ArpChannel       int    `json:"arpChannel,omitempty"`
	QuantizerChannel int    `json:"quantizerChannel,omitempty"`
}

// AudioConfig controls the CV output stream
type AudioConfig struct {
	Enabled    bool `json:"enabled"`
	SampleRate int  `json:"sampleRate,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo int    `json:"lastTempo,omitempty"`
	Palette   string `json:"palette,omitempty"` // path to a GIMP .gpl file
}

// Config is the main configuration structure
type Config struct {
	MIDI  MIDIConfig   `json:"midi"`
	Clock ClockSource  `json:"clock,omitempty"`
	Audio AudioConfig  `json:"audio"`
	UI    UIConfig     `json:"ui,omitempty"`
	Debug bool         `json:"debug,omitempty"`
	Arp   arp.Settings `json:"arp"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MIDI: MIDIConfig{
			ArpChannel:       1,
			QuantizerChannel: 2,
		},
		Clock: ClockInternal,
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 48000,
		},
		UI: UIConfig{
			LastTempo: 120,
		},
		Arp: arp.DefaultSettings(),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-arpquant"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Keys missing from the file keep their default.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Normalize pulls out of range values back to their defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.MIDI.ArpChannel < 1 || c.MIDI.ArpChannel > 16 {
		c.MIDI.ArpChannel = def.MIDI.ArpChannel
	}
	if c.MIDI.QuantizerChannel < 1 || c.MIDI.QuantizerChannel > 16 {
		c.MIDI.QuantizerChannel = def.MIDI.QuantizerChannel
	}
	if c.Clock != ClockInternal && c.Clock != ClockMIDI {
		c.Clock = ClockInternal
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.UI.LastTempo < 20 || c.UI.LastTempo > 300 {
		c.UI.LastTempo = def.UI.LastTempo
	}
	if c.Arp.GateMode < 0 || c.Arp.GateMode >= arp.GateModeCount {
		c.Arp.GateMode = arp.GateTrigger
	}
}

// ParseClockSource accepts "internal" or "midi".
func ParseClockSource(s string) (ClockSource, error) {
	switch ClockSource(s) {
	case ClockInternal, ClockMIDI:
		return ClockSource(s), nil
	}
	return "", fmt.Errorf("unknown clock source %q (want internal or midi)", s)
}
