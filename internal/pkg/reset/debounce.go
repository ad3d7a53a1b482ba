// Package reset carries the platform independent heart of the plugin, the
// debounce state machine that decides when to reinitialize, the port list
// differ that decides what changed and the driver that tells the host.
package reset

import (
	"sync/atomic"
	"time"

	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

var log = logger.GetLogger()

type debounceState int

const (
	stateIdle debounceState = iota
	statePendingQuietPeriod
)

// Debouncer coalesces an unbounded burst of device-changed signals into
// exactly one invocation of fire, a quiet period after the last signal of
// the burst. A physical plug or unplug produces many raw OS events within a
// second, firing on each of them would thrash the host.
//
// Signal may be called from any goroutine. The state machine itself is only
// ever advanced from one goroutine, the handoff in between is a single
// atomic pending flag plus a timestamp.
type Debouncer struct {
	pending   atomic.Bool
	lastEvent atomic.Int64 // unix nanoseconds of the most recent signal
	quiet     atomic.Int64 // quiet period in nanoseconds, retunable at runtime

	// owner goroutine state, never touched from anywhere else
	state    debounceState
	deadline time.Time

	now  func() time.Time
	fire func()
}

func NewDebouncer(quiet time.Duration, fire func()) *Debouncer {
	d := &Debouncer{
		now:  time.Now,
		fire: fire,
	}
	d.quiet.Store(int64(quiet))
	return d
}

// Signal records one raw device change. Cheap enough for an OS broadcast
// handler, never blocks.
func (d *Debouncer) Signal() {
	d.lastEvent.Store(d.now().UnixNano())
	d.pending.Store(true)
}

// SetQuietPeriod retunes the quiet period, taking effect from the next
// signal on. Safe to call from any goroutine.
func (d *Debouncer) SetQuietPeriod(quiet time.Duration) {
	d.quiet.Store(int64(quiet))
}

func (d *Debouncer) QuietPeriod() time.Duration {
	return time.Duration(d.quiet.Load())
}

// Advance moves the state machine forward and reports whether it fired.
// Must only ever be called from the single goroutine that owns the
// debouncer, the host timer callback or the internal ticker.
//
// The pending flag is consumed at the top of every call, before the
// deadline check. A signal arriving while fire is still executing therefore
// lands in the flag and re-arms the machine on the next call instead of
// being lost.
func (d *Debouncer) Advance() bool {
	now := d.now()

	if d.pending.Swap(false) {
		last := time.Unix(0, d.lastEvent.Load())
		// last event wins, the deadline is reset, not extended
		d.deadline = last.Add(d.QuietPeriod())
		d.state = statePendingQuietPeriod
	}

	if d.state == statePendingQuietPeriod && !now.Before(d.deadline) {
		d.state = stateIdle
		d.fire()
		return true
	}
	return false
}
