package sequencer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go-arpquant/arp"
)

func TestSaveAndLoadProject(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	st := *NewState()
	st.Tempo = 96
	st.Arp = ArpState{Pattern: 2, Offset: 1, Settings: arp.Settings{GateMode: arp.GateRetrigger}}
	st.Quantizer.Key = 7
	st.Quantizer.Scale = 5
	st.Quantizer.Shift[3] = -1

	name, err := SaveProject("live set", "first take", st)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(name) != ".json" {
		t.Errorf("filename = %q", name)
	}

	projects, err := ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(projects, []string{"live-set"}) {
		t.Errorf("projects = %v", projects)
	}

	saves, err := ListSaves("live set")
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 1 || saves[0].Name != "first-take" {
		t.Fatalf("saves = %+v", saves)
	}

	got, err := LoadProject("live set", "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, st) {
		t.Errorf("loaded %+v\nwant %+v", got, st)
	}
}

func TestLoadProjectMissingFieldsKeepDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, err := ProjectDir("old")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := []byte(`{"arp":{"pattern":1}}`)
	if err := os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	st, err := LoadProject("old", "")
	if err != nil {
		t.Fatal(err)
	}
	if st.Tempo != DefaultTempo || st.Arp.Pattern != 1 || len(st.Quantizer.Shift) != 8 {
		t.Errorf("state = %+v", st)
	}
}

func TestLoadProjectErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadProject("nothing", ""); err == nil {
		t.Error("expected error for a project without saves")
	}

	dir, _ := ProjectDir("broken")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), []byte("{"), 0644)
	if _, err := LoadProject("broken", ""); err == nil {
		t.Error("expected error for malformed save")
	}
}

func TestListSavesOrderAndFilter(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, _ := ProjectDir("p")
	os.MkdirAll(dir, 0755)
	for _, f := range []string{
		"2024-01-15_14-30-00.json",
		"2024-03-01_09-00-00_verse.json",
		"2024-02-01_09-00-00.json",
		"notes.txt",
		"config.json",
		"2024-02-01_09-00-00oops.json",
	} {
		os.WriteFile(filepath.Join(dir, f), []byte("{}"), 0644)
	}

	saves, err := ListSaves("p")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range saves {
		names = append(names, s.Filename)
	}
	want := []string{
		"2024-03-01_09-00-00_verse.json",
		"2024-02-01_09-00-00.json",
		"2024-01-15_14-30-00.json",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("saves = %v, want %v", names, want)
	}
	if saves[0].Name != "verse" || !saves[0].Timestamp.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("parsed = %+v", saves[0])
	}

	if err := DeleteSave("p", want[0]); err != nil {
		t.Fatal(err)
	}
	saves, _ = ListSaves("p")
	if len(saves) != 2 {
		t.Errorf("%d saves after delete", len(saves))
	}
}

func TestListEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	projects, err := ListProjects()
	if err != nil || len(projects) != 0 {
		t.Errorf("projects = %v, %v", projects, err)
	}
	saves, err := ListSaves("none")
	if err != nil || len(saves) != 0 {
		t.Errorf("saves = %v, %v", saves, err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"my song":   "my-song",
		"a/b\\c:d":  "a-b-c-d",
		"what?*<>|": "what",
		" .. ":      "",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
