package widgets

import (
	"strings"
	"testing"

	"go-arpquant/theme"
)

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Arp", Keys: []KeyBinding{{Key: "j / k", Desc: "pattern"}}},
	})
	want := "Arp\n  j / k        pattern"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenderLightRow(t *testing.T) {
	th := theme.Default()
	out := RenderLightRow(th, []float64{0, 1}, []string{"C", "C#"})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "○") || !strings.Contains(lines[0], "●") {
		t.Errorf("lights row = %q", lines[0])
	}
	if !strings.Contains(lines[1], "C#") {
		t.Errorf("labels row = %q", lines[1])
	}
}
