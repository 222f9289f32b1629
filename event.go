package rebinded

import "time"

// Reserved synthetic key codes for the scroll wheel. No platform produces
// these from a physical device; the platform driver synthesizes a
// Down+Up pair on one of these codes whenever the scroll wheel moves a
// detent in the corresponding direction, so wheel bindings can reuse all
// of the ordinary key-binding and strategy machinery.
const (
	ScrollUpKey   KeyCode = 0xfffffff1
	ScrollDownKey KeyCode = 0xfffffff2
)

// EventID names a distinct input event kind a binding or a strategy's
// subscription list can refer to: a key going down or up, or the mouse
// wheel moving a detent in either direction.
type EventID struct {
	Key       KeyCode
	Direction Direction
}

// Direction distinguishes the two input transitions the dispatcher cares
// about. A scroll wheel detent is modeled as a Down transition immediately
// followed by an Up transition for a synthetic per-direction KeyCode,
// which lets scroll bindings reuse the same gated-hold machinery as real
// keys without a parallel code path.
type Direction int

const (
	Down Direction = iota
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// InputEvent is a single physical input transition captured by the
// platform driver, timestamped at capture time so strategies can reason
// about elapsed time without depending on wall-clock calls made later in
// the dispatch pipeline.
type InputEvent struct {
	Key  KeyCode
	Dir  Direction
	Time time.Time
}

// ID returns the EventID this InputEvent corresponds to.
func (e InputEvent) ID() EventID {
	return EventID{Key: e.Key, Direction: e.Dir}
}

// Response is the synchronous verdict a capture-time InputEvent must
// receive before the Platform Driver is free to read its next raw
// event: Block suppresses the physical transition (any real effect
// happens through re-injection or a media command issued separately),
// Passthrough lets the original physical event continue on to the
// system/focused application unmodified.
type Response int

const (
	ResponseBlock Response = iota
	ResponsePassthrough
)

// EventHandler is the synchronous callback a Platform Driver invokes for
// every captured InputEvent, consuming its Response before moving on to
// the next one. The Event Dispatcher's Dispatch method is the
// production EventHandler.
type EventHandler func(InputEvent) Response

// WindowInfo describes the application the platform driver currently
// considers focused. Fields are best-effort: a platform driver that
// cannot determine one of them leaves it empty rather than guessing.
type WindowInfo struct {
	Title  string
	Class  string
	Binary string
}

// Action is something a binding can cause to happen once its strategy
// decides the binding should fire.
type Action interface {
	isAction()
}

// KeyAction re-injects a synthetic key press (and matching release) for
// the named key, optionally diverted to a different physical key than the
// one that triggered the binding.
type KeyAction struct {
	Key KeyCode
}

func (KeyAction) isAction() {}

// MediaAction issues a media transport command, either by direct platform
// key synthesis or (on platforms with a Target Selector) by routing an
// MPRIS command to the selected player.
type MediaAction struct {
	Command MediaCommand
}

func (MediaAction) isAction() {}

// MediaCommand enumerates the transport controls a MediaAction can issue.
type MediaCommand int

const (
	MediaPlayPause MediaCommand = iota
	MediaNext
	MediaPrevious
	MediaStop
	VolumeUp
	VolumeDown
	VolumeMute
	BrowserBack
	BrowserForward
)

// PassthroughAction lets the triggering physical event continue to the
// focused application unmodified, as if no binding existed for it.
type PassthroughAction struct{}

func (PassthroughAction) isAction() {}

// BlockAction consumes the triggering event and performs no side effect.
type BlockAction struct{}

func (BlockAction) isAction() {}

// ExecAction launches an external program directly, without a shell.
// No configuration token produces it; ActionFromToken never returns one.
type ExecAction struct {
	Command string
	Args    []string
}

func (ExecAction) isAction() {}

// ActionFromToken resolves one of the fixed action tokens from the
// configuration grammar to an Action value. It returns false for tokens
// it doesn't recognize.
func ActionFromToken(token string) (Action, bool) {
	switch token {
	case "media_play_pause":
		return MediaAction{Command: MediaPlayPause}, true
	case "media_next":
		return MediaAction{Command: MediaNext}, true
	case "media_previous":
		return MediaAction{Command: MediaPrevious}, true
	case "media_stop":
		return MediaAction{Command: MediaStop}, true
	case "volume_up":
		return MediaAction{Command: VolumeUp}, true
	case "volume_down":
		return MediaAction{Command: VolumeDown}, true
	case "volume_mute":
		return MediaAction{Command: VolumeMute}, true
	case "browser_back":
		return MediaAction{Command: BrowserBack}, true
	case "browser_forward":
		return MediaAction{Command: BrowserForward}, true
	case "passthrough":
		return PassthroughAction{}, true
	case "block":
		return BlockAction{}, true
	default:
		return nil, false
	}
}
