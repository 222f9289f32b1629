//go:build linux

package rebinded

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinput ioctl numbers and the uinput_setup/input_id structs, again fixed
// by the kernel ABI (linux/uinput.h).
const (
	uiSetEvbit  = 0x40045564
	uiSetKeybit = 0x40045565
	uiDevSetup  = 0x405c5503
	uiDevCreate = 0x5501
	uiDevDestroy = 0x5502
)

// injectedVersion is written into the virtual device's input_id.version
// field to mark it as this daemon's own device. The evdev capture path
// does not read it: injected events never reach the handler because the
// virtual device is created after discoverKeyboardDevices has chosen the
// devices to read, so it is never among them.
const injectedVersion = 0xde1e

type uinputSetup struct {
	ID        inputID
	Name      [80]byte
	FFEffectsMax uint32
}

type inputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputDevice is the virtual keyboard this driver re-injects synthetic
// key events through.
type uinputDevice struct {
	file *os.File
	fd   int
}

// newUinputDevice creates and activates a virtual keyboard device
// advertising every key code in keys.
func newUinputDevice(keys []uint16) (*uinputDevice, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|os.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	fd := int(f.Fd())

	if err := unix.IoctlSetInt(fd, uiSetEvbit, evKey); err != nil {
		f.Close()
		return nil, err
	}
	for _, k := range keys {
		if err := unix.IoctlSetInt(fd, uiSetKeybit, int(k)); err != nil {
			f.Close()
			return nil, err
		}
	}

	setup := uinputSetup{ID: inputID{BusType: 0x03, Vendor: 0x1, Product: 0x1, Version: injectedVersion}}
	copy(setup.Name[:], "rebinded virtual keyboard")

	if err := ioctlSetup(fd, uiDevSetup, &setup); err != nil {
		f.Close()
		return nil, err
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevCreate, 0); errno != 0 {
		f.Close()
		return nil, errno
	}

	return &uinputDevice{file: f, fd: fd}, nil
}

func ioctlSetup(fd int, req uintptr, setup *uinputSetup) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(setup)))
	if errno != 0 {
		return errno
	}
	return nil
}

// Close destroys the virtual device.
func (d *uinputDevice) Close() error {
	unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uiDevDestroy, 0)
	return d.file.Close()
}

// EmitKey writes a press-then-release pair (with the mandatory SYN_REPORT
// between and after) for a single key, serialized by the caller's lock so
// concurrent SendKey calls never interleave their event pairs.
func (d *uinputDevice) EmitKey(code uint16) error {
	now := time.Now()
	events := []inputEvent{
		{Type: evKey, Code: code, Value: 1},
		{Type: evSyn, Code: 0, Value: 0},
		{Type: evKey, Code: code, Value: 0},
		{Type: evSyn, Code: 0, Value: 0},
	}
	for i := range events {
		events[i].Sec = now.Unix()
		events[i].Usec = int64(now.Nanosecond() / 1000)
		if err := d.write(events[i]); err != nil {
			return err
		}
	}
	return nil
}

// EmitEdge writes a single key transition (down or up) plus its
// mandatory trailing SYN_REPORT. It's the primitive passthrough needs:
// re-injecting the exact half-transition a grabbed device reported,
// rather than collapsing it into a synthetic full tap the way EmitKey
// does for bound actions.
func (d *uinputDevice) EmitEdge(code uint16, down bool) error {
	value := int32(0)
	if down {
		value = 1
	}
	now := time.Now()
	events := []inputEvent{
		{Type: evKey, Code: code, Value: value},
		{Type: evSyn, Code: 0, Value: 0},
	}
	for i := range events {
		events[i].Sec = now.Unix()
		events[i].Usec = int64(now.Nanosecond() / 1000)
		if err := d.write(events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *uinputDevice) write(ev inputEvent) error {
	buf := make([]byte, inputEventSize)
	putU64(buf[0:8], uint64(ev.Sec))
	putU64(buf[8:16], uint64(ev.Usec))
	putU16(buf[16:18], ev.Type)
	putU16(buf[18:20], ev.Code)
	putU32(buf[20:24], uint32(ev.Value))
	_, err := d.file.Write(buf)
	return err
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
func putU32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
func putU16(b []byte, v uint16) {
	for i := 0; i < 2; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
