//go:build darwin

package rebinded

// #cgo darwin LDFLAGS: -framework ApplicationServices -framework Cocoa
//
// #include <ApplicationServices/ApplicationServices.h>
//
// CGEventRef rebindedEventTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);
//
// static CFMachPortRef rebinded_install_tap(void *go_driver) {
//     CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp);
//     return CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap, kCGEventTapOptionDefault,
//         mask, rebindedEventTapCallback, go_driver);
// }
import "C"

import (
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/hashicorp/go-hclog"
)

// darwinInjectedMarker tags synthetic events this driver posts itself, via
// a private per-event user-data field, so the tap callback can ignore its
// own re-injection the same way the Linux/Windows drivers do.
const darwinInjectedMarker int64 = 0xde1e

// darwinDriver captures key events through a CGEventTap (the macOS
// equivalent of a low-level keyboard hook) and re-injects through
// CGEventPost. It is intentionally narrower than the Linux and Windows
// drivers: no MPRIS-equivalent media routing exists on macOS, and the
// tap's event mask covers key down/up only, so scroll wheel events are
// not captured.
type darwinDriver struct {
	logger hclog.Logger

	tap  C.CFMachPortRef
	run  C.CFRunLoopSourceRef
	loop C.CFRunLoopRef

	handle   EventHandler
	stop     chan struct{}
	injectMu sync.Mutex
}

// NewPlatformDriver is the Darwin entry point cmd/rebinded uses to obtain
// the Driver implementation for the running OS.
func NewPlatformDriver(logger hclog.Logger) (Driver, error) {
	return NewDarwinDriver(logger)
}

// NewDarwinDriver constructs the driver; the event tap is installed once
// Run starts, since CGEventTapCreate must run on the thread that will
// also run the CFRunLoop consuming its events.
func NewDarwinDriver(logger hclog.Logger) (*darwinDriver, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &darwinDriver{logger: logger, stop: make(chan struct{})}, nil
}

var darwinGlobalDriver *darwinDriver

// Run installs the event tap and pumps the CFRunLoop on a dedicated
// thread until Stop signals it.
func (d *darwinDriver) Run(handle EventHandler) error {
	d.handle = handle
	done := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		darwinGlobalDriver = d

		tap := C.rebinded_install_tap(unsafe.Pointer(d))
		if tap == 0 {
			done <- ErrPermission
			return
		}
		d.tap = tap
		d.run = C.CFMachPortCreateRunLoopSource(0, tap, 0)
		d.loop = C.CFRunLoopGetCurrent()
		C.CFRunLoopAddSource(d.loop, d.run, C.kCFRunLoopCommonModes)
		C.CGEventTapEnable(tap, C.true)

		done <- nil
		C.CFRunLoopRun()
	}()

	if err := <-done; err != nil {
		return NewStartupError(PhasePlatformInit, err)
	}
	<-d.stop
	if d.loop != 0 {
		C.CFRunLoopStop(d.loop)
	}
	return nil
}

// Stop unblocks Run's CFRunLoop.
func (d *darwinDriver) Stop() {
	close(d.stop)
}

// ActiveWindow is a narrower query than the Linux/Windows drivers
// provide: determining the frontmost application's title/class/binary on
// macOS requires an Objective-C NSWorkspace call this cgo shim does not
// wire up, so it always returns an empty WindowInfo. Conditional bindings
// still parse and compile on this platform; they simply never match.
func (d *darwinDriver) ActiveWindow() WindowInfo {
	return WindowInfo{}
}

// SendKey re-injects a synthetic press+release via CGEventPost.
func (d *darwinDriver) SendKey(key KeyCode) {
	d.injectMu.Lock()
	defer d.injectMu.Unlock()

	down := C.CGEventCreateKeyboardEvent(0, C.CGKeyCode(key), C.true)
	C.CGEventSetIntegerValueField(down, C.kCGEventSourceUserData, C.int64_t(darwinInjectedMarker))
	C.CGEventPost(C.kCGHIDEventTap, down)
	C.CFRelease(C.CFTypeRef(down))

	up := C.CGEventCreateKeyboardEvent(0, C.CGKeyCode(key), C.false)
	C.CGEventSetIntegerValueField(up, C.kCGEventSourceUserData, C.int64_t(darwinInjectedMarker))
	C.CGEventPost(C.kCGHIDEventTap, up)
	C.CFRelease(C.CFTypeRef(up))
}

// SendMedia does nothing on macOS: media and volume commands are
// dropped.
func (d *darwinDriver) SendMedia(cmd MediaCommand) {
	// macOS media keys are NX_KEYTYPE special events rather than ordinary
	// CGKeyCodes; wiring that requires the private HIServices SPI and is
	// out of scope for this driver's depth.
	_ = cmd
}

// rebindedEventTapCallback is the CGEventTap callback: returning the
// original event passes it through, returning NULL consumes it. That
// contract makes this tap a direct analogue of the Linux/Windows
// suppress-on-Block mechanisms, just inverted (no explicit re-injection
// call is needed for Passthrough; simply returning event does it).
//
//export rebindedEventTapCallback
func rebindedEventTapCallback(proxy C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	marker := int64(C.CGEventGetIntegerValueField(event, C.kCGEventSourceUserData))
	if marker == darwinInjectedMarker {
		return event
	}
	d := darwinGlobalDriver
	if d == nil || d.handle == nil {
		return event
	}
	var dir Direction
	switch eventType {
	case C.kCGEventKeyDown:
		dir = Down
	case C.kCGEventKeyUp:
		dir = Up
	default:
		return event
	}
	code := KeyCode(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
	ev := InputEvent{Key: code, Dir: dir, Time: time.Now()}
	if d.handle(ev) == ResponseBlock {
		return nil
	}
	return event
}
