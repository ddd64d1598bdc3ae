package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-arpquant/arp"
	"go-arpquant/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(os.Args[2:])
	case "pattern":
		pattern(os.Args[2:])
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                            - List all MIDI ports")
	fmt.Println("  monitor [port]                  - Print decoded input events")
	fmt.Println("  pattern <kind> <n> <off> [rep]  - Print one arp pattern cycle")
	fmt.Println("  poll                            - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := gomidi.GetInPorts()
		outs := gomidi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

// monitor opens the named input (or the first one) and prints what the
// rack would receive. Clock ticks are counted instead of printed.
func monitor(args []string) {
	ins, ok := midi.InPorts()
	if !ok {
		fmt.Println("TIMEOUT listing ports")
		return
	}

	var port drivers.In
	for _, p := range ins {
		if len(args) == 0 || strings.EqualFold(p.String(), args[0]) {
			port = p
			break
		}
	}
	if port == nil {
		fmt.Println("No matching input port")
		return
	}

	c, err := midi.NewInputController(port.String(), port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer c.Close()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", port.String())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	ticks := 0
	for {
		select {
		case <-sig:
			fmt.Printf("\n%d clock ticks\n", ticks)
			return
		case evt, ok := <-c.Events():
			if !ok {
				return
			}
			if evt.Type == midi.Clock {
				ticks++
				if ticks%24 == 0 {
					fmt.Printf("[%s] beat (%d ticks)\n", time.Now().Format("15:04:05.000"), ticks)
				}
				continue
			}
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), evt)
		}
	}
}

// pattern prints the index sequence of one full pattern cycle
func pattern(args []string) {
	if len(args) < 3 {
		usage()
		return
	}
	kind, err1 := strconv.Atoi(args[0])
	n, err2 := strconv.Atoi(args[1])
	offset, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("kind, n and offset must be integers")
		return
	}
	repeat := len(args) > 3 && (args[3] == "1" || args[3] == "repeat")

	var p arp.Pattern
	p.Init(arp.KindFromInt(kind), n, offset, repeat)
	fmt.Printf("%s n=%d offset=%d repeat=%v\n", p.Kind(), n, offset, repeat)

	var steps []string
	for i := 0; i < 4*max(p.Len(), 1); i++ {
		steps = append(steps, strconv.Itoa(p.Index()))
		if p.Finished() {
			break
		}
		p.Advance()
	}
	fmt.Println(strings.Join(steps, " "))
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a device to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		var inNames, outNames []string
		for _, p := range gomidi.GetInPorts() {
			inNames = append(inNames, p.String())
		}
		for _, p := range gomidi.GetOutPorts() {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
