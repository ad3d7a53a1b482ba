package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/logrusorgru/aurora"
	automidireset "github.com/xela-labs/automidireset"
	"github.com/xela-labs/automidireset/host"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register rtmidi driver
)

var (
	fine     = flag.Bool("fine", false, "expose the per-port reinitialization hook to the plugin")
	nocolor  = flag.Bool("nocolor", false, "disable color")
	logLevel = flag.Int("loglevel", 2,
		"logging level (0-3)\n"+
			"0: errors\n"+
			"1: warnings\n"+
			"2: general info\n"+
			"3: debug",
	)
)

// consoleHost is a stand-in host backed by real midi enumeration, so the
// plugin can be watched doing its job without a DAW around it.
type consoleHost struct {
	au       aurora.Aurora
	logLevel int

	mu   sync.Mutex
	ins  []string
	outs []string
}

func newConsoleHost(au aurora.Aurora, logLevel int) *consoleHost {
	h := &consoleHost{au: au, logLevel: logLevel}
	h.reinit()
	return h
}

// reinit is what a real host would do on midi_reinit, here it just
// re-enumerates through the rtmidi driver.
func (h *consoleHost) reinit() {
	ins := midi.GetInPorts()
	outs := midi.GetOutPorts()

	h.mu.Lock()
	h.ins = h.ins[:0]
	for _, in := range ins {
		h.ins = append(h.ins, in.String())
	}
	h.outs = h.outs[:0]
	for _, out := range outs {
		h.outs = append(h.outs, out.String())
	}
	inCount, outCount := len(h.ins), len(h.outs)
	h.mu.Unlock()

	fmt.Printf("%s\n", h.au.Bold(fmt.Sprintf(
		"midi subsystem reinitialized, %d inputs, %d outputs", inCount, outCount,
	)))
}

func (h *consoleHost) getFunc(name string) interface{} {
	switch name {
	case "ShowConsoleMsg":
		return h.showConsoleMsg
	case "midi_reinit":
		return func() { h.reinit() }
	case "midi_init":
		if !*fine {
			return nil
		}
		return func(input, output int) {
			fmt.Printf("  port reinit: input=%d output=%d\n", input, output)
		}
	case "GetNumMIDIInputs":
		return func() int {
			h.mu.Lock()
			defer h.mu.Unlock()
			return len(h.ins)
		}
	case "GetNumMIDIOutputs":
		return func() int {
			h.mu.Lock()
			defer h.mu.Unlock()
			return len(h.outs)
		}
	case "GetMIDIInputName":
		return func(index int) string {
			h.mu.Lock()
			defer h.mu.Unlock()
			if index < 0 || index >= len(h.ins) {
				return ""
			}
			return h.ins[index]
		}
	case "GetMIDIOutputName":
		return func(index int) string {
			h.mu.Lock()
			defer h.mu.Unlock()
			if index < 0 || index >= len(h.outs) {
				return ""
			}
			return h.outs[index]
		}
	case "register_action":
		return func(name, desc string) int { return 1 }
	case "register_action_handler":
		return func(fn func(id int)) {}
	}
	return nil
}

func main() {
	flag.Parse()
	au := aurora.NewAurora(!*nocolor)

	h := newConsoleHost(au, *logLevel)
	rec := &host.Record{Version: host.CompatibleVersion, GetFunc: h.getFunc}

	if !automidireset.Entry(rec) {
		fmt.Println("plugin failed to load")
		os.Exit(1)
	}
	defer midi.CloseDriver()

	fmt.Printf("automidireset %s, watching for midi device changes, ctrl+c to exit\n", automidireset.Version)

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	automidireset.Entry(nil)
}
