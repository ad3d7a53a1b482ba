package reset

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xela-labs/automidireset/host"
	"github.com/xela-labs/automidireset/internal/pkg/config"
	"github.com/xela-labs/automidireset/internal/pkg/logger"
	"github.com/xela-labs/automidireset/internal/pkg/notify"
)

const Version = "1.2.0"

// tickRate drives the internal advance loop on hosts that provide no
// periodic callback of their own.
const tickRate = time.Millisecond * 100

// Plugin owns every process-wide resource, the resolved host API, the
// debouncer, the port snapshots and the platform notification source. Its
// lifetime is bounded by the host load and unload calls.
type Plugin struct {
	api    *host.API
	cfg    config.Config
	deb    *Debouncer
	differ *PortDiffer
	source notify.Source

	fine bool

	usingHostTimer bool
	timerFn        func()

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	drainWg sync.WaitGroup
	loaded  bool
}

// Load resolves the host capabilities and brings the whole machinery up.
// Failure to resolve a required capability aborts the load, and so does a
// broken notification backend that declares itself required. A broken
// optional backend only degrades the load, the plugin then runs with
// automatic reinitialization disabled.
func Load(rec *host.Record) (*Plugin, bool) {
	return load(rec, nil)
}

func load(rec *host.Record, src notify.Source) (*Plugin, bool) {
	api, err := host.Resolve(rec)
	if err != nil {
		// the console capability may be the one that failed to resolve
		fmt.Fprintf(os.Stderr, "[automidireset] %v\n", err)
		return nil, false
	}

	p := &Plugin{api: api}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	// single consumer of the log channel, everything ends up on the host
	// message surface
	p.drainWg.Add(1)
	go func() {
		defer p.drainWg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-logger.Messages:
				api.ShowConsoleMsg(string(data) + "\n")
			}
		}
	}()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Info(fmt.Sprintf("using default config: %v", err), logger.Debug)
	}
	p.cfg = cfg

	fine := api.HasFineReinit()
	if fine && !api.CanEnumerate() {
		log.Info("host exposes midi_init but no port enumeration, per-port diffing disabled", logger.Warning)
		fine = false
	}
	p.fine = fine

	if fine {
		p.differ = NewPortDiffer(
			func(dir Direction) int {
				if dir == Input {
					return api.GetNumMIDIInputs()
				}
				return api.GetNumMIDIOutputs()
			},
			func(dir Direction, index int) string {
				if dir == Input {
					return api.GetMIDIInputName(index)
				}
				return api.GetMIDIOutputName(index)
			},
		)
	}

	// the host needs materially more settle time when individual ports get
	// reinitialized on top of the coarse pass
	quiet := cfg.Debounce.ShortQuiet
	if fine {
		quiet = cfg.Debounce.LongQuiet
	}
	p.deb = NewDebouncer(quiet, NewReinitDriver(api, p.differ).Fire)

	if src == nil {
		src = notify.New(notify.Config{PollInterval: cfg.USB.PollInterval})
	}
	err = startSource(src, p.deb.Signal)
	if err != nil {
		if src.Required() {
			// this backend has no fallback, loading anyway would leave the
			// plugin permanently inert
			api.ShowConsoleMsg(fmt.Sprintf("[automidireset] load aborted, device notifications unavailable: %v\n", err))
			cancel()
			p.drainWg.Wait()
			return nil, false
		}
		log.Info(fmt.Sprintf("device notifications unavailable, automatic reinit disabled: %v", err), logger.Error)
	} else {
		p.source = src
	}

	if api.HasTimer() {
		p.timerFn = p.tick
		api.RegisterTimer(p.timerFn)
		p.usingHostTimer = true
	} else {
		p.wg.Add(1)
		go p.run(ctx)
	}

	changes := config.DetectChanges(ctx, config.DefaultPath)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for c := range changes {
			quiet := c.Debounce.ShortQuiet
			if p.fine {
				quiet = c.Debounce.LongQuiet
			}
			p.deb.SetQuietPeriod(quiet)
			log.Info(fmt.Sprintf("quiet period now %s", quiet), logger.Info)
		}
	}()

	if api.RegisterAction != nil && api.RegisterActionHandler != nil {
		id := api.RegisterAction("AMR_SHOW_VERSION", "automidireset: Show version")
		api.RegisterActionHandler(func(cmd int) {
			if cmd == id {
				api.ShowConsoleMsg(fmt.Sprintf("automidireset %s\n", Version))
			}
		})
	}

	log.Info(fmt.Sprintf("loaded, quiet period %s, per-port diffing: %v", quiet, fine), logger.Info)
	p.loaded = true
	return p, true
}

// startSource keeps a misbehaving backend from taking the host process
// down, a backend panic degrades into a disabled backend.
func startSource(src notify.Source, signal func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return src.Start(signal)
}

func (p *Plugin) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick is the single place the debouncer state machine advances from,
// either on the host periodic callback or on the internal ticker, never
// both for one plugin instance.
func (p *Plugin) tick() {
	if p.differ != nil {
		p.differ.EnsureBaseline()
	}
	p.deb.Advance()
}

// Unload reverses everything Load acquired. Safe to call on a plugin that
// never fully loaded and safe to call twice.
func (p *Plugin) Unload() {
	if !p.loaded {
		return
	}
	p.loaded = false

	if p.source != nil {
		err := p.source.Stop()
		if err != nil {
			log.Info(fmt.Sprintf("notification source teardown failed: %v", err), logger.Warning)
		}
		p.source = nil
	}
	if p.usingHostTimer {
		p.api.UnregisterTimer(p.timerFn)
		p.usingHostTimer = false
	}
	p.cancel()
	p.wg.Wait()
	p.drainWg.Wait()
}
