package widgets

import (
	"fmt"
	"strings"

	"go-arpquant/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderLight renders a single panel light at brightness 0-1
func RenderLight(th *theme.Theme, brightness float64) string {
	style := lipgloss.NewStyle().Foreground(th.Light(brightness))
	return style.Render(string(th.LightRune(brightness)))
}

// RenderLightRow renders lights with a label under each one, e.g. the key
// lights with note names.
func RenderLightRow(th *theme.Theme, brightness []float64, labels []string) string {
	width := 1
	for _, l := range labels {
		width = max(width, lipgloss.Width(l))
	}
	cell := lipgloss.NewStyle().Width(width + 1)

	var lights, names strings.Builder
	for i, b := range brightness {
		lights.WriteString(cell.Render(RenderLight(th, b)))
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		names.WriteString(cell.Render(label))
	}
	return lights.String() + "\n" + names.String()
}

// RenderValue renders "label value" with the value in the accent color
func RenderValue(th *theme.Theme, label, value string) string {
	l := lipgloss.NewStyle().Foreground(th.Muted()).Render(label)
	v := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true).Render(value)
	return l + " " + v
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
