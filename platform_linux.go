//go:build linux

package rebinded

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/lawl/pulseaudio"
)

// linuxDriver is the Linux Platform Driver: evdev capture + uinput
// re-injection for keys, an X11 passive grab for the scroll wheel, EWMH
// for window probing, PulseAudio for volume, and MPRIS over D-Bus for
// media routing.
type linuxDriver struct {
	logger hclog.Logger

	devices []*evdevDevice
	uinput  *uinputDevice

	probe  *x11WindowProbe
	scroll *scrollGrabber

	pulse *pulseaudio.Client

	mpris    *MPRISBackend
	selector *TargetSelector

	injectMu sync.Mutex
	stop     chan struct{}
}

// NewPlatformDriver is the Linux entry point cmd/rebinded uses to obtain
// the Driver implementation for the running OS.
func NewPlatformDriver(logger hclog.Logger) (Driver, error) {
	return NewLinuxDriver(logger)
}

// NewPlatformRegistry returns the Key Registry for the running platform.
func NewPlatformRegistry() *Registry {
	return NewRegistry(mergeKeyTables(linuxKeyTable(), SupplementaryKeyTable()))
}

// NewLinuxDriver probes and opens every resource the Linux driver needs.
// Per spec 4.1/7, a keyboard device that can't be opened or grabbed is
// skipped (logged), not fatal; the driver only fails startup if it ends
// up with zero usable keyboard devices or the virtual device can't be
// created.
func NewLinuxDriver(logger hclog.Logger) (*linuxDriver, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	d := &linuxDriver{logger: logger, stop: make(chan struct{})}

	devices, err := discoverKeyboardDevices()
	if err != nil {
		return nil, NewStartupError(PhasePlatformInit, err)
	}
	var grabbed []*evdevDevice
	for _, dev := range devices {
		if err := dev.Grab(true); err != nil {
			logger.Warn("failed to grab input device, skipping", "path", dev.path, "error", err)
			dev.Close()
			continue
		}
		grabbed = append(grabbed, dev)
	}
	if len(grabbed) == 0 {
		return nil, NewStartupError(PhasePlatformInit, fmt.Errorf("no usable keyboard device found under /dev/input"))
	}
	d.devices = grabbed

	keys := make([]uint16, 0, len(linuxKeyTable()))
	for _, code := range linuxKeyTable() {
		keys = append(keys, uint16(code))
	}
	uinput, err := newUinputDevice(keys)
	if err != nil {
		for _, dev := range d.devices {
			dev.Grab(false)
			dev.Close()
		}
		return nil, NewStartupError(PhasePlatformInit, err)
	}
	d.uinput = uinput

	if probe, err := newX11WindowProbe(); err == nil {
		d.probe = probe
	} else {
		logger.Warn("X11 window probe unavailable, focused-window queries will be empty", "error", err)
	}

	if pulse, err := pulseaudio.NewClient(); err == nil {
		d.pulse = pulse
	} else {
		logger.Warn("pulseaudio unavailable, volume actions will be no-ops", "error", err)
	}

	if mpris, err := NewMPRISBackend(); err == nil {
		d.mpris = mpris
		d.selector = NewTargetSelector()
	} else {
		logger.Warn("MPRIS/D-Bus unavailable, media actions will fall back to key synthesis", "error", err)
	}

	return d, nil
}

// Run reads every grabbed device concurrently, calling handle
// synchronously for each transition and enforcing its Response before
// the next ReadEvent call; it also starts the scroll grabber and the
// MPRIS poller. It blocks until Stop is called.
func (d *linuxDriver) Run(handle EventHandler) error {
	var wg sync.WaitGroup

	for _, dev := range d.devices {
		wg.Add(1)
		go func(dev *evdevDevice) {
			defer wg.Done()
			d.readLoop(dev, handle)
		}(dev)
	}

	if d.probe != nil {
		if grabber, err := newScrollGrabber(d.probe.xu, handle); err == nil {
			d.scroll = grabber
			go grabber.Run()
		} else {
			d.logger.Warn("scroll wheel passive grab unavailable", "error", err)
		}
	}

	if d.mpris != nil {
		go d.mpris.PollLoop(d.selector, d.ActiveWindow, d.stop)
	}

	<-d.stop
	wg.Wait()
	return nil
}

// readLoop reads raw evdev transitions off an exclusively-grabbed
// device. Because EVIOCGRAB suppresses every key on the device, a
// ResponsePassthrough verdict must be re-injected through the uinput
// device as the exact half-transition that was captured, before the
// next ReadEvent call: otherwise the grab would permanently swallow any
// key with no binding (or one that resolves to passthrough).
func (d *linuxDriver) readLoop(dev *evdevDevice, handle EventHandler) {
	for {
		select {
		case <-d.stop:
			return
		default:
		}
		raw, err := dev.ReadEvent()
		if err != nil {
			d.logger.Warn("input device read failed, dropping device", "path", dev.path, "error", err)
			return
		}
		if raw.Type != evKey {
			continue
		}
		// Value 2 is key-repeat; only transitions matter to the
		// dispatcher's state machines.
		if raw.Value != 0 && raw.Value != 1 {
			continue
		}
		dir := Down
		if raw.Value == 0 {
			dir = Up
		}
		ev := InputEvent{Key: KeyCode(raw.Code), Dir: dir, Time: raw.Time()}
		if handle(ev) == ResponsePassthrough {
			d.injectEdge(raw.Code, dir == Down)
		}
	}
}

// injectEdge re-emits a single captured half-transition through the
// virtual device, serialized against SendKey so the two never interleave
// an event pair.
func (d *linuxDriver) injectEdge(code uint16, down bool) {
	if d.uinput == nil {
		return
	}
	d.injectMu.Lock()
	defer d.injectMu.Unlock()
	if err := d.uinput.EmitEdge(code, down); err != nil {
		d.logger.Warn("passthrough re-injection failed", "code", code, "error", err)
	}
}

// Stop releases every grab, destroys the virtual device, and unblocks Run.
func (d *linuxDriver) Stop() {
	close(d.stop)
	if d.scroll != nil {
		d.scroll.Stop()
	}
	for _, dev := range d.devices {
		dev.Grab(false)
		dev.Close()
	}
	if d.uinput != nil {
		d.uinput.Close()
	}
	if d.mpris != nil {
		d.mpris.Close()
	}
}

// ActiveWindow delegates to the X11 probe, or returns an empty WindowInfo
// if it's unavailable.
func (d *linuxDriver) ActiveWindow() WindowInfo {
	if d.probe == nil {
		return WindowInfo{}
	}
	return d.probe.ActiveWindow()
}

// SendKey re-injects a synthetic press+release through the uinput device,
// serialized so concurrent callers never interleave event pairs.
func (d *linuxDriver) SendKey(key KeyCode) {
	if d.uinput == nil {
		return
	}
	d.injectMu.Lock()
	defer d.injectMu.Unlock()
	if err := d.uinput.EmitKey(uint16(key)); err != nil {
		d.logger.Warn("synthetic key emit failed", "key", key, "error", err)
	}
}

// SendMedia routes volume commands to PulseAudio and playback commands to
// the MPRIS Target Selector, falling back to synthesizing the matching
// media key for either concern when its backend isn't available.
// BrowserBack and BrowserForward have no MPRIS method and no key in
// linuxKeyTable, so on Linux they have no effect.
func (d *linuxDriver) SendMedia(cmd MediaCommand) {
	switch cmd {
	case VolumeUp, VolumeDown, VolumeMute:
		d.sendVolume(cmd)
	default:
		d.sendPlayback(cmd)
	}
}

func (d *linuxDriver) sendVolume(cmd MediaCommand) {
	if d.pulse == nil {
		name := "volumeup"
		switch cmd {
		case VolumeDown:
			name = "volumedown"
		case VolumeMute:
			name = "mute"
		}
		d.SendKey(linuxKeyTable()[name])
		return
	}
	var err error
	switch cmd {
	case VolumeUp:
		err = d.pulse.IncreaseVolume(0, 0.05)
	case VolumeDown:
		err = d.pulse.DecreaseVolume(0, 0.05)
	case VolumeMute:
		err = d.pulse.ToggleMute(0)
	}
	if err != nil {
		d.logger.Warn("pulseaudio command failed", "error", err)
	}
}

func (d *linuxDriver) sendPlayback(cmd MediaCommand) {
	if d.mpris == nil || d.selector == nil {
		var name string
		switch cmd {
		case MediaPlayPause:
			name = "playpause"
		case MediaNext:
			name = "nextsong"
		case MediaPrevious:
			name = "previoussong"
		case MediaStop:
			name = "stopcd"
		default:
			return
		}
		d.SendKey(linuxKeyTable()[name])
		return
	}
	candidates, err := d.mpris.ListCandidates()
	if err != nil || len(candidates) == 0 {
		d.logger.Warn("no MPRIS candidates available for media command", "error", err)
		return
	}
	target, ok := d.selector.Select(candidates, d.ActiveWindow(), time.Now())
	if !ok {
		return
	}
	if err := d.mpris.Send(target.ServiceName, cmd); err != nil {
		d.logger.Warn("MPRIS command failed", "target", target.ServiceName, "error", err)
	}
}
