package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-arpquant/midi"
	"go-arpquant/sequencer"
	"go-arpquant/theme"
	"go-arpquant/widgets"
)

// tempoStep is the +/- tempo increment
const tempoStep = 5

type Model struct {
	Manager    *sequencer.Manager
	DeviceMgr  *midi.DeviceManager
	Theme      *theme.Theme
	Project    string // project name used by the save key
	quitting   bool
	showHelp   bool
	status     string          // last action result
	controller midi.Controller // current input (may be nil)
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	if th == nil {
		th = theme.Default()
	}
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

// ListenForDevices waits for the next hot-plug event. It returns nil once
// the device manager has shut down.
func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Manager),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.controller = event.Controller
			m.status = "input " + event.ID

			// Feed the rack until the input is closed
			go func(c midi.Controller) {
				for evt := range c.Events() {
					m.Manager.HandleMIDI(evt)
				}
			}(event.Controller)
		case midi.DeviceDisconnected:
			if m.controller != nil && m.controller.ID() == event.ID {
				m.controller = nil
				m.status = "input gone: " + event.ID
			}
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Manager.Stop()
		m.Manager.Reset()
		return m, tea.Quit

	case "p", " ":
		m.Manager.TogglePlay()

	case "+", "=":
		m.Manager.SetTempo(m.Manager.Tempo() + tempoStep)

	case "-", "_":
		m.Manager.SetTempo(m.Manager.Tempo() - tempoStep)

	case "tab":
		m.Manager.FocusNext()

	case "c":
		src := m.Manager.ToggleClockSource()
		m.status = fmt.Sprintf("clock: %s", src)

	case "R":
		dir, err := sequencer.RecordingsDir()
		if err != nil {
			m.status = "record: " + err.Error()
			break
		}
		path, err := m.Manager.ToggleRecording(dir)
		switch {
		case err != nil:
			m.status = "record: " + err.Error()
		case path != "":
			m.status = "saved " + path
		case m.Manager.Status().Recording:
			m.status = "recording"
		default:
			m.status = "nothing recorded"
		}

	case "w":
		name, err := sequencer.SaveProject(m.Project, "", m.Manager.Snapshot())
		if err != nil {
			m.status = "save: " + err.Error()
		} else {
			m.status = "saved " + name
		}

	case "?":
		m.showHelp = !m.showHelp

	default:
		m.Manager.HandleKey(key)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.Status()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}
	input := "no input"
	if m.controller != nil {
		input = m.controller.ID()
	}
	header := headerStyle.Render(fmt.Sprintf("go-arpquant  %s  %3dbpm  clock:%s  held:%d  %s",
		playState, st.Tempo, st.Clock, st.Held, input))
	if st.Recording {
		header += "  " + warnStyle.Render("REC")
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.Manager.View())
	out.WriteString("\n")

	if m.showHelp {
		out.WriteString(widgets.RenderKeyHelp(keySections(st.Focused)))
		out.WriteString("\n")
	} else {
		out.WriteString(dimStyle.Render("tab:device  p:play  +/-:tempo  c:clock  R:rec  w:save  ?:help  q:quit"))
		out.WriteString("\n")
	}

	if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}

	return out.String()
}

// keySections lists the global keys and those of the focused device
func keySections(focused string) []widgets.KeySection {
	sections := []widgets.KeySection{{
		Title: "Global",
		Keys: []widgets.KeyBinding{
			{Key: "tab", Desc: "next device"},
			{Key: "p", Desc: "play/stop"},
			{Key: "+/-", Desc: "tempo"},
			{Key: "c", Desc: "clock source"},
			{Key: "R", Desc: "record"},
			{Key: "w", Desc: "save project"},
			{Key: "q", Desc: "quit"},
		},
	}}

	switch focused {
	case "Arp":
		sections = append(sections, widgets.KeySection{
			Title: "Arp",
			Keys: []widgets.KeyBinding{
				{Key: "j/k", Desc: "pattern"},
				{Key: "h/l", Desc: "offset"},
				{Key: "g", Desc: "gate mode"},
				{Key: "r", Desc: "repeat end"},
			},
		})
	case "Quantizer":
		sections = append(sections, widgets.KeySection{
			Title: "Quantizer",
			Keys: []widgets.KeyBinding{
				{Key: "j/k", Desc: "key"},
				{Key: "h/l", Desc: "scale"},
				{Key: "t/T", Desc: "transpose"},
				{Key: "[ ]", Desc: "lane"},
				{Key: "d/u", Desc: "shift"},
			},
		})
	}
	return sections
}
