package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-arpquant/sequencer"
)

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return NewModel(sequencer.NewManager(nil, nil), nil, nil)
}

func TestTransportKeys(t *testing.T) {
	m := newTestModel(t)
	start := m.Manager.Tempo()

	m = press(t, m, "p", "+", "+", "-")
	st := m.Manager.Status()
	if !st.Playing {
		t.Error("p should start playback")
	}
	if st.Tempo != start+tempoStep {
		t.Errorf("tempo = %d, want %d", st.Tempo, start+tempoStep)
	}
	if !strings.Contains(m.View(), "PLAY") {
		t.Error("header should show PLAY")
	}

	m = press(t, m, "p")
	if m.Manager.Status().Playing {
		t.Error("second p should stop")
	}
}

func TestFocusRoutesKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "k")
	if m.Manager.Arp().PatternKnob() != 1 {
		t.Errorf("arp pattern = %d", m.Manager.Arp().PatternKnob())
	}

	m = press(t, m, "tab", "k")
	if m.Manager.Status().Focused != "Quantizer" {
		t.Fatalf("focused = %s", m.Manager.Status().Focused)
	}
	if m.Manager.Quantizer().KeyKnob() != 1 {
		t.Errorf("quantizer key = %d", m.Manager.Quantizer().KeyKnob())
	}
	if !strings.Contains(m.View(), "QUANTIZER") {
		t.Error("view should show the focused device")
	}

	m = press(t, m, "?")
	if !strings.Contains(m.View(), "transpose") {
		t.Error("help should list quantizer keys")
	}
}

func TestStatusLine(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "c")
	if !strings.Contains(m.View(), "clock: midi") {
		t.Errorf("status missing clock change:\n%s", m.View())
	}

	m = press(t, m, "R")
	if !m.Manager.Status().Recording || !strings.Contains(m.View(), "REC") {
		t.Error("R should start recording")
	}
	m = press(t, m, "R")
	if m.Manager.Status().Recording || !strings.Contains(m.View(), "nothing recorded") {
		t.Errorf("empty take:\n%s", m.View())
	}

	m.Project = "demo"
	m = press(t, m, "w")
	if !strings.Contains(m.View(), "saved ") {
		t.Errorf("save status missing:\n%s", m.View())
	}
	saves, err := sequencer.ListSaves("demo")
	if err != nil || len(saves) != 1 {
		t.Errorf("saves = %v, %v", saves, err)
	}
}

func TestQuitClearsView(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a quit command")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}
