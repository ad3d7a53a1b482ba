// Package host describes the capability surface a hosting application hands
// to the plugin. The host exposes its functions through a name-based
// resolver, the plugin binds the ones it knows about into a typed API struct.
package host

import (
	"fmt"
)

// CompatibleVersion is the host API version tag this plugin was built against.
const CompatibleVersion = 1

// Record is what the host passes to the plugin entry point.
// A nil Record is the unload signal.
type Record struct {
	Version int
	// GetFunc resolves a named host capability to a function value,
	// nil when the host does not provide it.
	GetFunc func(name string) interface{}
}

// API holds the resolved host capabilities. Optional capabilities stay nil
// when the host does not provide them.
type API struct {
	// ShowConsoleMsg writes one line to the host message surface.
	ShowConsoleMsg func(msg string)

	// MidiReinit reinitializes the whole midi subsystem of the host.
	MidiReinit func()

	// MidiReinitPort reinitializes a single input and/or output port,
	// -1 in a slot means "no port in this direction". Optional.
	MidiReinitPort func(input, output int)

	// Port enumeration, needed only when per-port diffing is active.
	// Name getters return an empty string for a detached index.
	GetNumMIDIInputs  func() int
	GetNumMIDIOutputs func() int
	GetMIDIInputName  func(index int) string
	GetMIDIOutputName func(index int) string

	// Periodic callback registration, optional. When present the host drives
	// the debounce state machine instead of an internal ticker.
	RegisterTimer   func(fn func())
	UnregisterTimer func(fn func())

	// Action registration, optional, used for the informational
	// version action only.
	RegisterAction        func(name, desc string) int
	RegisterActionHandler func(fn func(id int))
}

// HasFineReinit reports whether the host exposes the per-port hook.
func (a *API) HasFineReinit() bool {
	return a.MidiReinitPort != nil
}

// CanEnumerate reports whether all four port enumeration functions resolved.
func (a *API) CanEnumerate() bool {
	return a.GetNumMIDIInputs != nil && a.GetNumMIDIOutputs != nil &&
		a.GetMIDIInputName != nil && a.GetMIDIOutputName != nil
}

// HasTimer reports whether the host provides a periodic callback.
func (a *API) HasTimer() bool {
	return a.RegisterTimer != nil && a.UnregisterTimer != nil
}

// Resolve binds host functions into an API struct. A missing or mistyped
// required function aborts resolution with an error naming it, missing
// optional functions just leave their field nil.
func Resolve(rec *Record) (*API, error) {
	if rec == nil || rec.GetFunc == nil {
		return nil, fmt.Errorf("host record carries no function resolver")
	}

	var api API

	type apiFunc struct {
		name     string
		required bool
		bind     func(v interface{}) bool
	}

	funcs := []apiFunc{
		{"ShowConsoleMsg", true, func(v interface{}) bool {
			f, ok := v.(func(string))
			if ok {
				api.ShowConsoleMsg = f
			}
			return ok
		}},
		{"midi_reinit", true, func(v interface{}) bool {
			f, ok := v.(func())
			if ok {
				api.MidiReinit = f
			}
			return ok
		}},
		{"midi_init", false, func(v interface{}) bool {
			f, ok := v.(func(int, int))
			if ok {
				api.MidiReinitPort = f
			}
			return ok
		}},
		{"GetNumMIDIInputs", false, func(v interface{}) bool {
			f, ok := v.(func() int)
			if ok {
				api.GetNumMIDIInputs = f
			}
			return ok
		}},
		{"GetNumMIDIOutputs", false, func(v interface{}) bool {
			f, ok := v.(func() int)
			if ok {
				api.GetNumMIDIOutputs = f
			}
			return ok
		}},
		{"GetMIDIInputName", false, func(v interface{}) bool {
			f, ok := v.(func(int) string)
			if ok {
				api.GetMIDIInputName = f
			}
			return ok
		}},
		{"GetMIDIOutputName", false, func(v interface{}) bool {
			f, ok := v.(func(int) string)
			if ok {
				api.GetMIDIOutputName = f
			}
			return ok
		}},
		{"plugin_register_timer", false, func(v interface{}) bool {
			f, ok := v.(func(func()))
			if ok {
				api.RegisterTimer = f
			}
			return ok
		}},
		{"plugin_unregister_timer", false, func(v interface{}) bool {
			f, ok := v.(func(func()))
			if ok {
				api.UnregisterTimer = f
			}
			return ok
		}},
		{"register_action", false, func(v interface{}) bool {
			f, ok := v.(func(string, string) int)
			if ok {
				api.RegisterAction = f
			}
			return ok
		}},
		{"register_action_handler", false, func(v interface{}) bool {
			f, ok := v.(func(func(int)))
			if ok {
				api.RegisterActionHandler = f
			}
			return ok
		}},
	}

	for _, fn := range funcs {
		v := rec.GetFunc(fn.name)
		if v == nil {
			if fn.required {
				return nil, fmt.Errorf("unable to import the following API function: %s", fn.name)
			}
			continue
		}
		if !fn.bind(v) {
			if fn.required {
				return nil, fmt.Errorf("host function has unexpected signature: %s", fn.name)
			}
		}
	}

	return &api, nil
}
