//go:build linux

package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

// USB audio class with the midi streaming subclass, per the USB device class
// definition for midi devices.
const subclassMIDIStreaming = 0x03

// usbHotplugSource watches the usb bus for midi-streaming capable devices.
// libusb only delivers events through an explicit servicing call, so a
// dedicated goroutine rescans the descriptor set on a short interval and
// raises the signal whenever the set of midi devices gains or loses a member.
type usbHotplugSource struct {
	pollInterval time.Duration

	ctx  *gousb.Context
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func New(cfg Config) Source {
	return &usbHotplugSource{
		pollInterval: cfg.PollInterval,
		stop:         make(chan struct{}),
	}
}

func (s *usbHotplugSource) Start(notify func()) error {
	s.ctx = gousb.NewContext()
	if s.ctx == nil {
		return fmt.Errorf("usb context initialization failed")
	}

	// one scan up front so an unusable libusb fails the whole backend
	// instead of silently polling into errors forever
	tracked, err := s.scan()
	if err != nil {
		ctxErr := s.ctx.Close()
		if ctxErr != nil {
			log.Info(fmt.Sprintf("closing usb context failed: %v", ctxErr), logger.Warning)
		}
		s.ctx = nil
		return fmt.Errorf("usb enumeration unavailable: %w", err)
	}

	s.wg.Add(1)
	go s.poll(tracked, notify)
	return nil
}

// scan collects the positions of all attached devices that advertise the
// audio class midi streaming subclass in any interface alt setting.
func (s *usbHotplugSource) scan() (deviceSet, error) {
	var current = make(deviceSet)
	_, err := s.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if hasMIDIStreaming(desc) {
			current.add(fmt.Sprintf("%d:%d", desc.Bus, desc.Address))
		}
		return false // inspect only, never open
	})
	return current, err
}

func hasMIDIStreaming(desc *gousb.DeviceDesc) bool {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassAudio && alt.SubClass == subclassMIDIStreaming {
					return true
				}
			}
		}
	}
	return false
}

func (s *usbHotplugSource) poll(tracked deviceSet, notify func()) {
	defer s.wg.Done()
	log.Info("usb monitor engaged", logger.Debug)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
root:
	for {
		select {
		case <-s.stop:
			break root
		case <-ticker.C:
		}

		current, err := s.scan()
		if err != nil {
			log.Info(fmt.Sprintf("usb scan failed: %v", err), logger.Warning)
			continue
		}

		if tracked.equal(current) {
			continue
		}

		added, removed := tracked.diff(current)
		log.Info(fmt.Sprintf("midi-class usb devices changed, %d arrived, %d left", added, removed), logger.Info)
		tracked = current
		notify()
	}
	log.Info("usb monitor disengaged", logger.Debug)
}

// Required reports true, there is no fallback notification channel on this
// platform and loading without usb enumeration would leave the plugin
// permanently inert.
func (s *usbHotplugSource) Required() bool {
	return true
}

// Stop signals the polling goroutine, joins it and only then releases the
// usb context, the goroutine must never touch a freed context.
func (s *usbHotplugSource) Stop() error {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	if s.ctx != nil {
		err := s.ctx.Close()
		s.ctx = nil
		return err
	}
	return nil
}
