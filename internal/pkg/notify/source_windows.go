//go:build windows

package notify

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/xela-labs/automidireset/internal/pkg/logger"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterClassExW             = user32.NewProc("RegisterClassExW")
	procCreateWindowExW              = user32.NewProc("CreateWindowExW")
	procDefWindowProcW               = user32.NewProc("DefWindowProcW")
	procDestroyWindow                = user32.NewProc("DestroyWindow")
	procPostQuitMessage              = user32.NewProc("PostQuitMessage")
	procGetMessageW                  = user32.NewProc("GetMessageW")
	procTranslateMessage             = user32.NewProc("TranslateMessage")
	procDispatchMessageW             = user32.NewProc("DispatchMessageW")
	procPostMessageW                 = user32.NewProc("PostMessageW")
	procRegisterDeviceNotificationW  = user32.NewProc("RegisterDeviceNotificationW")
	procUnregisterDeviceNotification = user32.NewProc("UnregisterDeviceNotification")
	procUnregisterClassW             = user32.NewProc("UnregisterClassW")
)

const (
	wmDestroy      = 0x0002
	wmClose        = 0x0010
	wmDeviceChange = 0x0219

	dbtDeviceArrival        = 0x8000
	dbtDeviceRemoveComplete = 0x8004

	dbtDevTypDeviceInterface = 5

	deviceNotifyWindowHandle = 0
)

// HWND_MESSAGE, parent handle for message-only windows.
var hwndMessage = ^uintptr(2)

// KSCATEGORY_AUDIO {6994AD04-93EF-11D0-A3CC-00A0C9223196}, the
// device-interface class every audio and midi endpoint registers under.
var ksCategoryAudio = windows.GUID{
	Data1: 0x6994ad04,
	Data2: 0x93ef,
	Data3: 0x11d0,
	Data4: [8]byte{0xa3, 0xcc, 0x00, 0xa0, 0xc9, 0x22, 0x31, 0x96},
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type devBroadcastDeviceInterface struct {
	Size       uint32
	DeviceType uint32
	Reserved   uint32
	ClassGUID  windows.GUID
	Name       uint16
}

type message struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// windowMessageSource runs a hidden message-only window on its own OS locked
// goroutine and subscribes it to audio-class device interface broadcasts.
type windowMessageSource struct {
	notify func()

	hwnd        windows.Handle
	devNotify   windows.Handle
	startResult chan error
	wg          sync.WaitGroup
	stopped     bool
}

func New(cfg Config) Source {
	return &windowMessageSource{startResult: make(chan error, 1)}
}

func (s *windowMessageSource) Start(notify func()) error {
	s.notify = notify
	s.wg.Add(1)
	go s.pump()
	return <-s.startResult
}

// pump owns the window for its whole lifetime, windows are bound to the
// creating thread so everything from class registration to DestroyWindow
// happens here.
func (s *windowMessageSource) pump() {
	defer s.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	instance, err := windows.GetModuleHandle(nil)
	if err != nil {
		s.startResult <- fmt.Errorf("GetModuleHandle failed: %v", err)
		return
	}

	className, err := windows.UTF16PtrFromString("automidiresetNotifyWindow")
	if err != nil {
		s.startResult <- err
		return
	}

	wc := wndClassEx{
		WndProc:   windows.NewCallback(s.wndProc),
		Instance:  instance,
		ClassName: className,
	}
	wc.Size = uint32(unsafe.Sizeof(wc))

	// each instance registers its own class so its own callback is the one
	// wired, a stale registration left by an instance that never reached
	// teardown gets dropped and retried once
	atom, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	if atom == 0 && callErr == windows.ERROR_CLASS_ALREADY_EXISTS {
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), uintptr(instance))
		atom, _, callErr = procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	}
	if atom == 0 {
		s.startResult <- fmt.Errorf("RegisterClassEx failed: %v", callErr)
		return
	}

	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		0,
		0,
		0, 0, 0, 0,
		hwndMessage,
		0,
		uintptr(instance),
		0,
	)
	if hwnd == 0 {
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), uintptr(instance))
		s.startResult <- fmt.Errorf("CreateWindowEx failed: %v", callErr)
		return
	}
	s.hwnd = windows.Handle(hwnd)

	filter := devBroadcastDeviceInterface{
		DeviceType: dbtDevTypDeviceInterface,
		ClassGUID:  ksCategoryAudio,
	}
	filter.Size = uint32(unsafe.Sizeof(filter))

	devNotify, _, callErr := procRegisterDeviceNotificationW.Call(
		hwnd,
		uintptr(unsafe.Pointer(&filter)),
		deviceNotifyWindowHandle,
	)
	if devNotify == 0 {
		procDestroyWindow.Call(hwnd)
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), uintptr(instance))
		s.startResult <- fmt.Errorf("RegisterDeviceNotification failed: %v", callErr)
		return
	}
	s.devNotify = windows.Handle(devNotify)

	s.startResult <- nil
	log.Info("device notification window registered", logger.Debug)

	var msg message
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if ret == 0 || int32(ret) == -1 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}

	// the window is gone once the loop exits, so the class can go too and a
	// reloaded instance starts from a clean slate
	procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), uintptr(instance))
	log.Info("device notification window closed", logger.Debug)
}

// wndProc must return quickly, the broadcast dispatcher that delivers
// WM_DEVICECHANGE stalls every other window until it does. Raising the
// signal is a flag write, all real work happens elsewhere.
func (s *windowMessageSource) wndProc(hwnd, msg, wparam, lparam uintptr) uintptr {
	switch msg {
	case wmDeviceChange:
		if (wparam == dbtDeviceArrival || wparam == dbtDeviceRemoveComplete) && lparam != 0 {
			hdr := (*devBroadcastDeviceInterface)(unsafe.Pointer(lparam))
			if hdr.DeviceType == dbtDevTypDeviceInterface && hdr.ClassGUID == ksCategoryAudio {
				s.notify()
			}
		}
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wparam, lparam)
	return ret
}

func (s *windowMessageSource) Required() bool {
	return false
}

// Stop unregisters the device notification, closes the window and joins the
// pump goroutine, in that order.
func (s *windowMessageSource) Stop() error {
	if s.stopped {
		return nil
	}
	s.stopped = true

	if s.devNotify != 0 {
		procUnregisterDeviceNotification.Call(uintptr(s.devNotify))
		s.devNotify = 0
	}
	if s.hwnd != 0 {
		procPostMessageW.Call(uintptr(s.hwnd), wmClose, 0, 0)
		s.hwnd = 0
	}
	s.wg.Wait()
	return nil
}
