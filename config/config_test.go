package config

import (
	"os"
	"path/filepath"
	"testing"

	"go-arpquant/arp"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clock != ClockInternal || cfg.Audio.SampleRate != 48000 || cfg.UI.LastTempo != 120 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Arp != arp.DefaultSettings() {
		t.Errorf("arp settings = %+v", cfg.Arp)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.MIDI.InputPort = "Keystep"
	cfg.Clock = ClockMIDI
	cfg.Arp = arp.Settings{GateMode: arp.GateContinuous, RepeatEnd: true}
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.MIDI.InputPort != "Keystep" || got.Clock != ClockMIDI {
		t.Errorf("got %+v", got)
	}
	if got.Arp != cfg.Arp {
		t.Errorf("arp settings = %+v, want %+v", got.Arp, cfg.Arp)
	}
}

func TestLoadPartialKeepsDefaultsAndNormalizes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "go-arpquant")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := `{"clock": "sundial", "midi": {"arpChannel": 40}, "arp": {"repeatMode": true}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clock != ClockInternal {
		t.Errorf("clock = %q", cfg.Clock)
	}
	if cfg.MIDI.ArpChannel != 1 || cfg.MIDI.QuantizerChannel != 2 {
		t.Errorf("channels = %d/%d", cfg.MIDI.ArpChannel, cfg.MIDI.QuantizerChannel)
	}
	if !cfg.Arp.RepeatEnd || cfg.Arp.GateMode != arp.GateTrigger {
		t.Errorf("arp = %+v", cfg.Arp)
	}
	if !cfg.Audio.Enabled {
		t.Error("audio default should survive a file without the key")
	}
}

func TestLoadMalformed(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "go-arpquant")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0644)

	if _, err := Load(); err == nil {
		t.Error("expected a parse error")
	}
}

func TestParseClockSource(t *testing.T) {
	if s, err := ParseClockSource("midi"); err != nil || s != ClockMIDI {
		t.Errorf("got %q, %v", s, err)
	}
	if _, err := ParseClockSource("tape"); err == nil {
		t.Error("expected an error")
	}
}
