// Package automidireset reinitializes the host midi subsystem whenever the
// set of attached midi devices changes. It watches the platform device
// notification mechanism, debounces the burst of raw events a single plug or
// unplug produces and then tells the host to reinitialize once, optionally
// naming the individual ports that flipped.
package automidireset

import (
	"github.com/xela-labs/automidireset/host"
	"github.com/xela-labs/automidireset/internal/pkg/reset"
)

// Version of the plugin, shown through the registered console action.
const Version = reset.Version

var current *reset.Plugin

// Entry is the host facing entry point. Called with a record it loads the
// plugin and reports success, called with nil it unloads. Both calls are
// safe to repeat and never panic into the host.
func Entry(rec *host.Record) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if rec == nil {
		if current != nil {
			current.Unload()
			current = nil
		}
		return false
	}

	if rec.Version != host.CompatibleVersion {
		return false
	}

	if current != nil {
		// host asked to load twice, treat as reload
		current.Unload()
		current = nil
	}

	p, ok := reset.Load(rec)
	if !ok {
		return false
	}
	current = p
	return true
}
