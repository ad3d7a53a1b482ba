// Package notify translates OS specific hardware notifications into a single
// abstract "device changed" signal. One backend exists per platform, selected
// at build time, all of them anonymous about which device changed because the
// underlying OS notifications rarely carry reliable identity anyway.
package notify

import (
	"time"

	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

var log = logger.GetLogger()

// Config carries the backend tunables, not every backend uses every field.
type Config struct {
	PollInterval time.Duration
}

// Source is one platform notification backend. Start registers with the OS
// and arranges for notify to be called on every relevant hardware change,
// possibly from a foreign goroutine or OS callback context. Stop reverses
// the registration and guarantees notify can no longer be invoked once it
// returns. Required tells the caller whether a Start failure leaves a
// deliberately broken plugin: backends with no fallback answer true and a
// failed Start then aborts the whole load instead of degrading it.
type Source interface {
	Start(notify func()) error
	Stop() error
	Required() bool
}
