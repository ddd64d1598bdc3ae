package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesCategoryLines(t *testing.T) {
	dir := t.TempDir()
	if err := Enable(dir); err != nil {
		t.Fatal(err)
	}
	defer Disable()

	if !Enabled() {
		t.Fatal("logging should be enabled")
	}
	if Path() != filepath.Join(dir, "debug.log") {
		t.Errorf("path = %q", Path())
	}

	Log("clock", "source=%s", "midi")
	for i := 0; i < 10; i++ {
		LogEvery(5, "render", "frames=%d", 256)
	}

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "Debug logging started") {
		t.Error("missing start banner")
	}
	if !strings.Contains(out, "clock      source=midi") {
		t.Errorf("missing padded category line:\n%s", out)
	}
	if n := strings.Count(out, "frames=256 (every 5"); n != 2 {
		t.Errorf("LogEvery wrote %d lines, want 2", n)
	}
}

func TestLogDisabledIsSilent(t *testing.T) {
	Disable()
	if Enabled() || Path() != "" {
		t.Fatal("logging should be off")
	}
	// must not panic or create anything
	Log("x", "y")
	LogEvery(1, "x", "y")
}
