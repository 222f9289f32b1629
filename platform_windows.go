//go:build windows

package rebinded

import (
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/hashicorp/go-hclog"
)

// Windows API bindings follow the same syscall.NewLazyDLL +
// dll.NewProc(...) + proc.Call(...) pattern the teacher's console driver
// uses throughout console_win.go.
var (
	user32 = syscall.NewLazyDLL("user32.dll")
	kernel32Win = syscall.NewLazyDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procSendInput           = user32.NewProc("SendInput")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetClassNameW       = user32.NewProc("GetClassNameW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")

	procGetCurrentThreadId = kernel32Win.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	inputKeyboard  = 1
	keyEventFKeyUp = 0x0002

	// injectedExtraInfo tags SendInput-originated events so the hook
	// callback can recognize and ignore its own re-injection.
	injectedExtraInfo = 0xde1e
)

type kbdllhookstruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// input mirrors the Windows INPUT struct for the keyboard-only case;
// Type selects the union variant (1 = INPUT_KEYBOARD).
type input struct {
	Type uint32
	Ki   keybdInput
	// padding to match the union's size on 64-bit Windows (the union is
	// sized for the largest member, MOUSEINPUT, which is larger than
	// KEYBDINPUT).
	_ [8]byte
}

// windowsDriver captures input via a low-level keyboard hook running on
// its own message-pump thread (required by WH_KEYBOARD_LL) and
// re-injects through SendInput.
type windowsDriver struct {
	logger hclog.Logger

	hookThreadID uintptr
	hookHandle   uintptr

	handle   EventHandler
	stop     chan struct{}
	injectMu sync.Mutex
}

// NewPlatformDriver is the Windows entry point cmd/rebinded uses to
// obtain the Driver implementation for the running OS.
func NewPlatformDriver(logger hclog.Logger) (Driver, error) {
	return NewWindowsDriver(logger)
}

// NewPlatformRegistry returns the Key Registry for the running platform.
func NewPlatformRegistry() *Registry {
	return NewRegistry(mergeKeyTables(windowsKeyTable(), SupplementaryKeyTable()))
}

// NewWindowsDriver constructs the driver. The hook itself is installed
// once Run starts the dedicated hook thread, since SetWindowsHookExW's
// WH_KEYBOARD_LL hook is thread-affine.
func NewWindowsDriver(logger hclog.Logger) (*windowsDriver, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &windowsDriver{logger: logger, stop: make(chan struct{})}, nil
}

var globalHookDriver *windowsDriver

// Run installs the hook on a dedicated thread and pumps Windows messages
// until Stop posts WM_QUIT to that thread.
func (d *windowsDriver) Run(handle EventHandler) error {
	d.handle = handle
	done := make(chan error, 1)
	go func() {
		// SetWindowsHookExW(WH_KEYBOARD_LL, ...) and the message pump
		// that drives it must run on the same OS thread.
		runtime.LockOSThread()

		tid, _, _ := procGetCurrentThreadId.Call()
		d.hookThreadID = tid
		globalHookDriver = d

		hook, _, _ := procSetWindowsHookExW.Call(whKeyboardLL, syscall.NewCallback(lowLevelKeyboardProc), 0, 0)
		if hook == 0 {
			done <- ErrPermission
			return
		}
		d.hookHandle = hook
		done <- nil

		var msg [48]byte
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg[0])), 0, 0, 0)
			if ret == 0 {
				break
			}
		}
		procUnhookWindowsHookEx.Call(d.hookHandle)
	}()

	if err := <-done; err != nil {
		return NewStartupError(PhasePlatformInit, err)
	}
	<-d.stop
	procPostThreadMessageW.Call(d.hookThreadID, wmQuit, 0, 0)
	return nil
}

// lowLevelKeyboardProc is the WH_KEYBOARD_LL callback. A low-level
// keyboard hook only suppresses a key by returning a non-zero value
// *without* calling CallNextHookEx; calling it unconditionally (as an
// observer-only hook would) means every key always reaches the OS
// regardless of the dispatcher's verdict. So CallNextHookEx is only
// called, and its result returned, when the Response is Passthrough; a
// Block response returns non-zero directly, suppressing the key.
func lowLevelKeyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 && globalHookDriver != nil {
		kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
		if kb.DwExtraInfo != injectedExtraInfo && globalHookDriver.handle != nil {
			dir := Down
			if wParam == wmKeyUp || wParam == wmSysKeyUp {
				dir = Up
			}
			ev := InputEvent{Key: KeyCode(kb.VkCode), Dir: dir, Time: time.Now()}
			if globalHookDriver.handle(ev) == ResponseBlock {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

// Stop unblocks Run's message pump.
func (d *windowsDriver) Stop() {
	close(d.stop)
}

// ActiveWindow queries the foreground window's title and class. The
// owning binary is not looked up: Binary is always empty on Windows.
func (d *windowsDriver) ActiveWindow() WindowInfo {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return WindowInfo{}
	}

	var titleBuf [256]uint16
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&titleBuf[0])), uintptr(len(titleBuf)))

	var classBuf [256]uint16
	procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&classBuf[0])), uintptr(len(classBuf)))

	return WindowInfo{
		Title: syscall.UTF16ToString(titleBuf[:]),
		Class: syscall.UTF16ToString(classBuf[:]),
	}
}

// SendKey synthesizes a press+release through SendInput, tagged with
// injectedExtraInfo so the hook ignores it.
func (d *windowsDriver) SendKey(key KeyCode) {
	d.injectMu.Lock()
	defer d.injectMu.Unlock()

	down := input{Type: inputKeyboard, Ki: keybdInput{WVk: uint16(key), DwExtraInfo: injectedExtraInfo}}
	up := input{Type: inputKeyboard, Ki: keybdInput{WVk: uint16(key), DwFlags: keyEventFKeyUp, DwExtraInfo: injectedExtraInfo}}
	inputs := []input{down, up}
	procSendInput.Call(uintptr(len(inputs)), uintptr(unsafe.Pointer(&inputs[0])), unsafe.Sizeof(input{}))
}

// SendMedia synthesizes the matching VK_MEDIA_*/VK_VOLUME_* key, since
// Windows has no MPRIS-equivalent routable sink; the OS delivers these to
// whichever application currently owns the System Media Transport
// Controls.
func (d *windowsDriver) SendMedia(cmd MediaCommand) {
	table := windowsKeyTable()
	switch cmd {
	case MediaPlayPause:
		d.SendKey(table["playpause"])
	case MediaNext:
		d.SendKey(table["medianext"])
	case MediaPrevious:
		d.SendKey(table["mediaprev"])
	case MediaStop:
		d.SendKey(table["mediastop"])
	case VolumeUp:
		d.SendKey(table["volumeup"])
	case VolumeDown:
		d.SendKey(table["volumedown"])
	case VolumeMute:
		d.SendKey(table["volumemute"])
	case BrowserBack:
		d.SendKey(table["browserback"])
	case BrowserForward:
		d.SendKey(table["browserforward"])
	}
}
