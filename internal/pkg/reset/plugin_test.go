package reset

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xela-labs/automidireset/host"
)

type stubSource struct {
	notify   func()
	started  bool
	stopped  bool
	required bool
	startErr error
}

func (s *stubSource) Start(notify func()) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.notify = notify
	s.started = true
	return nil
}

func (s *stubSource) Stop() error {
	s.stopped = true
	return nil
}

func (s *stubSource) Required() bool {
	return s.required
}

type fakeHost struct {
	mu       sync.Mutex
	reinits  int
	timerFns []func()
	withFine bool
	ins      []string
	outs     []string
}

func (h *fakeHost) record() *host.Record {
	return &host.Record{Version: host.CompatibleVersion, GetFunc: h.getFunc}
}

func (h *fakeHost) reinitCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reinits
}

func (h *fakeHost) getFunc(name string) interface{} {
	switch name {
	case "ShowConsoleMsg":
		return func(msg string) {}
	case "midi_reinit":
		return func() {
			h.mu.Lock()
			h.reinits++
			h.mu.Unlock()
		}
	case "midi_init":
		if !h.withFine {
			return nil
		}
		return func(input, output int) {}
	case "GetNumMIDIInputs":
		return func() int { return len(h.ins) }
	case "GetNumMIDIOutputs":
		return func() int { return len(h.outs) }
	case "GetMIDIInputName":
		return func(index int) string { return h.ins[index] }
	case "GetMIDIOutputName":
		return func(index int) string { return h.outs[index] }
	case "plugin_register_timer":
		return func(fn func()) { h.timerFns = append(h.timerFns, fn) }
	case "plugin_unregister_timer":
		return func(fn func()) { h.timerFns = nil }
	}
	return nil
}

func TestLoadUnloadWithZeroEvents(t *testing.T) {
	h := &fakeHost{}
	src := &stubSource{}

	p, ok := load(h.record(), src)
	assert.True(t, ok)
	assert.True(t, src.started)
	assert.Equal(t, 1, len(h.timerFns))

	p.Unload()
	assert.True(t, src.stopped)
	assert.Equal(t, 0, len(h.timerFns))
	assert.Equal(t, 0, h.reinitCount())
}

func TestUnloadIdempotent(t *testing.T) {
	h := &fakeHost{}
	p, ok := load(h.record(), &stubSource{})
	assert.True(t, ok)

	p.Unload()
	p.Unload()
}

func TestMissingRequiredCapabilityFailsLoad(t *testing.T) {
	h := &fakeHost{}
	rec := &host.Record{
		Version: host.CompatibleVersion,
		GetFunc: func(name string) interface{} {
			if name == "midi_reinit" {
				return nil
			}
			return h.getFunc(name)
		},
	}

	p, ok := load(rec, &stubSource{})
	assert.False(t, ok)
	assert.True(t, p == nil)
}

func TestRequiredBackendFailureAbortsLoad(t *testing.T) {
	h := &fakeHost{}
	src := &stubSource{required: true, startErr: errors.New("hotplug capability absent")}

	p, ok := load(h.record(), src)
	assert.False(t, ok)
	assert.True(t, p == nil)
	assert.Equal(t, 0, len(h.timerFns))
}

func TestOptionalBackendFailureDegradesLoad(t *testing.T) {
	h := &fakeHost{}
	src := &stubSource{startErr: errors.New("no message window")}

	p, ok := load(h.record(), src)
	assert.True(t, ok)
	assert.False(t, src.started)

	p.Unload()
	assert.False(t, src.stopped)
}

func TestReloadAfterUnload(t *testing.T) {
	h := &fakeHost{}

	first := &stubSource{}
	p, ok := load(h.record(), first)
	assert.True(t, ok)
	p.Unload()
	assert.True(t, first.stopped)

	second := &stubSource{}
	p, ok = load(h.record(), second)
	assert.True(t, ok)
	assert.True(t, second.started)
	assert.Equal(t, 1, len(h.timerFns))
	p.Unload()
}

func TestQuietPeriodDependsOnFineHook(t *testing.T) {
	coarse := &fakeHost{}
	p, ok := load(coarse.record(), &stubSource{})
	assert.True(t, ok)
	short := p.deb.QuietPeriod()
	p.Unload()

	finer := &fakeHost{withFine: true}
	p, ok = load(finer.record(), &stubSource{})
	assert.True(t, ok)
	long := p.deb.QuietPeriod()
	p.Unload()

	assert.True(t, long > short)
}

func TestFineHookWithoutEnumerationDisablesDiffing(t *testing.T) {
	h := &fakeHost{withFine: true}
	rec := &host.Record{
		Version: host.CompatibleVersion,
		GetFunc: func(name string) interface{} {
			switch name {
			case "GetNumMIDIInputs", "GetNumMIDIOutputs", "GetMIDIInputName", "GetMIDIOutputName":
				return nil
			}
			return h.getFunc(name)
		},
	}

	p, ok := load(rec, &stubSource{})
	assert.True(t, ok)
	assert.True(t, p.differ == nil)
	p.Unload()
}

func TestDebouncedReinitEndToEnd(t *testing.T) {
	h := &fakeHost{}
	src := &stubSource{}

	p, ok := load(h.record(), src)
	assert.True(t, ok)
	defer p.Unload()

	// a burst of raw events, delivered as the OS would, from elsewhere
	src.notify()
	src.notify()
	src.notify()

	deadline := time.Now().Add(time.Second * 3)
	for time.Now().Before(deadline) {
		h.timerFns[0]()
		if h.reinitCount() > 0 {
			break
		}
		time.Sleep(time.Millisecond * 10)
	}
	assert.Equal(t, 1, h.reinitCount())

	// quiet tail, nothing else may fire
	for i := 0; i < 20; i++ {
		h.timerFns[0]()
		time.Sleep(time.Millisecond * 10)
	}
	assert.Equal(t, 1, h.reinitCount())
}
