package midi

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// PPQ is the resolution of recorded files
const PPQ = 960

type recorded struct {
	tick uint32
	msg  gomidi.Message
}

// Recorder collects channel events with their time and writes them as a
// Standard MIDI File: a tempo track plus one note track.
type Recorder struct {
	bpm    float64
	events []recorded
	mu     sync.Mutex
}

// NewRecorder starts an empty recording at the given tempo. Event times
// are converted to ticks at this tempo.
func NewRecorder(bpm float64) *Recorder {
	if bpm <= 0 {
		bpm = 120
	}
	return &Recorder{bpm: bpm}
}

// Add records evt at seconds since the recording started. Realtime events
// and events before zero are ignored.
func (r *Recorder) Add(seconds float64, evt Event) {
	msg, ok := Encode(evt)
	if !ok || seconds < 0 {
		return
	}
	tick := uint32(seconds*r.bpm/60*PPQ + 0.5)

	r.mu.Lock()
	defer r.mu.Unlock()
	// out of order arrivals are clamped to the last tick
	if n := len(r.events); n > 0 && tick < r.events[n-1].tick {
		tick = r.events[n-1].tick
	}
	r.events = append(r.events, recorded{tick: tick, msg: msg})
}

// Len is the number of recorded events
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// SMF builds the file in memory
func (r *Recorder) SMF() (*smf.SMF, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(PPQ)

	// Track 0: Tempo track
	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(r.bpm))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return nil, fmt.Errorf("add tempo track: %w", err)
	}

	var notes smf.Track
	var last uint32
	for _, e := range r.events {
		notes.Add(e.tick-last, e.msg)
		last = e.tick
	}
	notes.Close(0)
	if err := sm.Add(notes); err != nil {
		return nil, fmt.Errorf("add note track: %w", err)
	}
	return sm, nil
}

// WriteFile writes the recording to path, creating parent directories.
func (r *Recorder) WriteFile(path string) error {
	sm, err := r.SMF()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create recording dir: %w", err)
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
