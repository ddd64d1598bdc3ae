package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-arpquant/config"
)

const timestampFormat = "2006-01-02_15-04-05"

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// ProjectsDir returns the projects directory path
func ProjectsDir() (string, error) {
	base, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "projects"), nil
}

// ProjectDir returns the path to a specific project
func ProjectDir(projectName string) (string, error) {
	base, err := ProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, sanitizeFilename(projectName)), nil
}

// ListProjects returns all project folder names
func ListProjects() ([]string, error) {
	dir, err := ProjectsDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func ListSaves(projectName string) ([]SaveInfo, error) {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, fmt.Errorf("list saves: %w", err)
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	// Newest first, labels break ties so the order is stable
	sort.Slice(saves, func(i, j int) bool {
		if !saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Timestamp.After(saves[j].Timestamp)
		}
		return saves[i].Filename > saves[j].Filename
	})

	return saves, nil
}

// parseSaveName splits 2024-01-15_14-30-00[_label].json
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".json") {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(timestampFormat) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(timestampFormat, base[:len(timestampFormat)])
	if err != nil {
		return SaveInfo{}, false
	}

	label := ""
	rest := base[len(timestampFormat):]
	if strings.HasPrefix(rest, "_") {
		label = rest[1:]
	} else if rest != "" {
		return SaveInfo{}, false
	}
	return SaveInfo{Filename: filename, Name: label, Timestamp: ts}, true
}

// SaveProject writes st as a new timestamped save and returns its filename.
// An empty project name saves to "untitled".
func SaveProject(projectName, label string, st State) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}

	dir, err := ProjectDir(projectName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode project: %w", err)
	}

	filename := time.Now().Format(timestampFormat)
	if label = sanitizeFilename(label); label != "" {
		filename += "_" + label
	}
	filename += ".json"

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("write project: %w", err)
	}
	return filename, nil
}

// LoadProject loads a specific save, or the most recent if filename is
// empty. Fields missing from the file keep their defaults.
func LoadProject(projectName, filename string) (State, error) {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return State{}, err
	}

	if filename == "" {
		saves, err := ListSaves(projectName)
		if err != nil {
			return State{}, err
		}
		if len(saves) == 0 {
			return State{}, fmt.Errorf("no saves found in project %s", projectName)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return State{}, fmt.Errorf("read project: %w", err)
	}

	st := NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return State{}, fmt.Errorf("decode %s: %w", filename, err)
	}
	return *st, nil
}

// DeleteSave deletes a specific save file
func DeleteSave(projectName, filename string) error {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, filepath.Base(filename)))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
