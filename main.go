package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-arpquant/audio"
	"go-arpquant/config"
	"go-arpquant/debug"
	"go-arpquant/midi"
	"go-arpquant/sequencer"
	"go-arpquant/theme"
	"go-arpquant/tui"
)

func main() {
	project := flag.String("project", "untitled", "project to load and save")
	debugLog := flag.Bool("debug", false, "write a debug log")
	noAudio := flag.Bool("no-audio", false, "disable the CV output stream")
	clock := flag.String("clock", "", "clock source: internal or midi")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *clock != "" {
		src, err := config.ParseClockSource(*clock)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		cfg.Clock = src
	}
	if *noAudio {
		cfg.Audio.Enabled = false
	}

	if *debugLog || cfg.Debug {
		if err := debug.Enable(debug.DefaultDir()); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	// Load theme
	th := theme.Default()
	if cfg.UI.Palette != "" {
		palette, err := theme.LoadGPL(cfg.UI.Palette)
		if err != nil {
			fmt.Fprintf(os.Stderr, "palette: %v (using default)\n", err)
		} else {
			th = theme.New(palette)
		}
	}

	// Create the rack
	manager := sequencer.NewManager(cfg, th)
	if saves, err := sequencer.ListSaves(*project); err == nil && len(saves) > 0 {
		st, err := sequencer.LoadProject(*project, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", *project, err)
		} else {
			manager.Apply(st)
		}
	}
	manager.SetOutput(midi.NewOutput(cfg.MIDI.OutputPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.MIDI.InputPort)
	go deviceMgr.Run(ctx)

	manager.StartRuntime(ctx)

	// The audio callback drives the rack when available, a ticker otherwise
	if cfg.Audio.Enabled {
		out, err := audio.NewCVOutput(cfg.Audio.SampleRate, manager)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio: %v (falling back to timer clock)\n", err)
			go manager.Run(ctx)
		} else {
			defer out.Close()
		}
	} else {
		go manager.Run(ctx)
	}

	m := tui.NewModel(manager, deviceMgr, th)
	m.Project = *project
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Arp = manager.ArpSettings()
	cfg.UI.LastTempo = manager.Tempo()
	cfg.Clock = manager.Status().Clock
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "save config: %v\n", err)
	}
}
