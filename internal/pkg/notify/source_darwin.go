//go:build darwin && cgo

package notify

/*
#cgo LDFLAGS: -framework CoreMIDI -framework CoreFoundation
#include <CoreMIDI/CoreMIDI.h>

OSStatus amrCreateClient(MIDIClientRef *out);
OSStatus amrDisposeClient(MIDIClientRef client);
*/
import "C"
import (
	"fmt"
	"sync"

	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

// kMIDIMsgSetupChanged, the only notification that means the device list
// itself changed.
const midiMsgSetupChanged = 1

// The notify proc is a single process-wide C callback, so the target
// function lives in package state guarded against the teardown race.
var (
	darwinMu     sync.Mutex
	darwinNotify func()
)

//export amrMIDINotify
func amrMIDINotify(messageID C.int) {
	if int(messageID) != midiMsgSetupChanged {
		return
	}
	darwinMu.Lock()
	fn := darwinNotify
	darwinMu.Unlock()
	if fn != nil {
		fn()
	}
}

// nativeMidiSource holds one CoreMIDI client whose notify proc fires on a
// serial system queue whenever the midi setup changes. Burst coalescing is
// not done here, the debouncer downstream owns that.
type nativeMidiSource struct {
	client C.MIDIClientRef
	active bool
}

func New(cfg Config) Source {
	return &nativeMidiSource{}
}

func (s *nativeMidiSource) Start(notify func()) error {
	darwinMu.Lock()
	darwinNotify = notify
	darwinMu.Unlock()

	status := C.amrCreateClient(&s.client)
	if status != 0 || s.client == 0 {
		darwinMu.Lock()
		darwinNotify = nil
		darwinMu.Unlock()
		return fmt.Errorf("MIDIClientCreate failed: OSStatus %d", int(status))
	}
	s.active = true
	log.Info("core midi client registered", logger.Debug)
	return nil
}

func (s *nativeMidiSource) Required() bool {
	return false
}

// Stop disposes the client first so the system can no longer invoke the
// notify proc, then clears the callback target.
func (s *nativeMidiSource) Stop() error {
	if s.active {
		status := C.amrDisposeClient(s.client)
		s.client = 0
		s.active = false
		if status != 0 {
			return fmt.Errorf("MIDIClientDispose failed: OSStatus %d", int(status))
		}
	}
	darwinMu.Lock()
	darwinNotify = nil
	darwinMu.Unlock()
	return nil
}
