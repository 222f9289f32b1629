//go:build linux

package rebinded

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// evdev event types and codes this driver cares about. These are the
// standard Linux input-event-codes.h constants; every pure-Go evdev
// library in the ecosystem hardcodes the same values since the kernel
// ABI is fixed.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	relWheel = 0x08

	keyMax = 0x2ff
)

// ioctl request numbers for the subset of evdev's ioctl surface this
// driver needs. EVIOCGRAB takes an int (1 to grab, 0 to release);
// EVIOCGBIT(ev, len) reads a bitmask of supported codes for event type
// ev into a buffer of len bytes.
const (
	eviocgrabMagic = 0x40044590
)

func eviocgbit(ev, length int) uintptr {
	return uintptr(0x80000000 | (uintptr(length) << 16) | (uintptr('E') << 8) | uintptr(0x20+ev))
}

// inputEvent mirrors struct input_event from linux/input.h. The padding
// here assumes a 64-bit kernel with 64-bit timeval members, which is the
// layout every current desktop Linux distribution uses.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = int(unsafe.Sizeof(inputEvent{}))

// evdevDevice wraps one open /dev/input/eventN node.
type evdevDevice struct {
	path string
	file *os.File
	fd   int
}

// openEvdevDevice opens path and leaves it ungrabbed; callers decide
// whether to grab it based on supportsKeys.
func openEvdevDevice(path string) (*evdevDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &evdevDevice{path: path, file: f, fd: int(f.Fd())}, nil
}

func (d *evdevDevice) Close() error {
	return d.file.Close()
}

// Grab acquires (or releases, when grab is false) exclusive access to the
// device, per EVIOCGRAB's documented contract.
func (d *evdevDevice) Grab(grab bool) error {
	val := 0
	if grab {
		val = 1
	}
	return unix.IoctlSetInt(d.fd, eviocgrabMagic, val)
}

// SupportsKeys reports whether the device advertises any EV_KEY codes in
// the typical letter/function-key range, and does NOT primarily look like
// a pointer (no EV_REL capability), matching the spec's keyboard
// candidate heuristic.
func (d *evdevDevice) SupportsKeys() bool {
	keyBits := make([]byte, (keyMax+7)/8)
	if err := ioctlBuf(d.fd, eviocgbit(evKey, len(keyBits)), keyBits); err != nil {
		return false
	}
	relBits := make([]byte, 4)
	hasRel := ioctlBuf(d.fd, eviocgbit(evRel, len(relBits)), relBits) == nil && anyBitSet(relBits)

	hasLetterKeys := bitSet(keyBits, 16) // KEY_Q, a representative letter-row code
	return hasLetterKeys && !hasRel
}

// SupportsScrollWheel reports whether the device reports EV_REL/REL_WHEEL.
// Nothing in the driver calls it: scroll interception goes through X11's
// passive button grab, and no evdev node is read as a scroll source.
func (d *evdevDevice) SupportsScrollWheel() bool {
	relBits := make([]byte, 4)
	if err := ioctlBuf(d.fd, eviocgbit(evRel, len(relBits)), relBits); err != nil {
		return false
	}
	return bitSet(relBits, relWheel)
}

// ioctlBuf issues a variable-length ioctl, writing the kernel's response
// into buf. golang.org/x/sys/unix only wraps the fixed-size ioctl forms,
// so EVIOCGBIT's caller-sized buffer goes through the raw syscall.
func ioctlBuf(fd int, req uintptr, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

func bitSet(buf []byte, bit int) bool {
	idx := bit / 8
	if idx >= len(buf) {
		return false
	}
	return buf[idx]&(1<<uint(bit%8)) != 0
}

func anyBitSet(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return true
		}
	}
	return false
}

// ReadEvent blocks until the next input_event arrives on this device.
func (d *evdevDevice) ReadEvent() (inputEvent, error) {
	buf := make([]byte, inputEventSize)
	n, err := d.file.Read(buf)
	if err != nil {
		return inputEvent{}, err
	}
	if n != inputEventSize {
		return inputEvent{}, fmt.Errorf("evdev: short read (%d of %d bytes)", n, inputEventSize)
	}
	ev := inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
	return ev, nil
}

func (ev inputEvent) Time() time.Time {
	return time.Unix(ev.Sec, ev.Usec*1000)
}

// discoverKeyboardDevices walks /dev/input/event* and opens every node
// that looks like a keyboard per SupportsKeys, per spec 4.1's per-device
// degradation rule: a device that can't be opened or doesn't qualify is
// skipped, not fatal.
func discoverKeyboardDevices() ([]*evdevDevice, error) {
	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}
	var devices []*evdevDevice
	for _, path := range matches {
		dev, err := openEvdevDevice(path)
		if err != nil {
			continue
		}
		if !dev.SupportsKeys() {
			dev.Close()
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
