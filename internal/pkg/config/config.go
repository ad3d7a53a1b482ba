// Package config loads plugin settings from an optional ini file next to the
// host binary. Everything has a compiled-in default so the file is never
// required for the plugin to work.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-ini/ini"
)

// DefaultPath is resolved relative to the host working directory.
const DefaultPath = "./automidireset.ini"

type Config struct {
	Debounce struct {
		// ShortQuiet applies when only the coarse reinit hook is available,
		// LongQuiet when the host also exposes the per-port hook and needs
		// more settle time. Both are empirically tuned, not hard invariants.
		ShortQuiet time.Duration
		LongQuiet  time.Duration
	}

	USB struct {
		// PollInterval is how often the usb backend rescans device
		// descriptors on its polling goroutine.
		PollInterval time.Duration
	}
}

func Default() Config {
	var c Config
	c.Debounce.ShortQuiet = time.Millisecond * 500
	c.Debounce.LongQuiet = time.Millisecond * 1500
	c.USB.PollInterval = time.Millisecond * 250
	return c
}

// Load reads the config file at path. A missing or broken file yields the
// defaults together with the error, callers treat that as non-fatal.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("cannot read config: %w", err)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return c, fmt.Errorf("cannot parse config: %w", err)
	}

	debounce := cfg.Section("debounce")
	c.Debounce.ShortQuiet = time.Millisecond * time.Duration(debounce.Key("short_quiet_ms").MustInt(500))
	c.Debounce.LongQuiet = time.Millisecond * time.Duration(debounce.Key("long_quiet_ms").MustInt(1500))

	usb := cfg.Section("usb")
	c.USB.PollInterval = time.Millisecond * time.Duration(usb.Key("poll_interval_ms").MustInt(250))

	return c, nil
}
