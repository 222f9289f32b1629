package rebinded

import "time"

// PlatformHandle is a small, copyable, thread-safe reference a Strategy
// uses to act on the world without holding a circular reference back to
// the Platform Driver that owns it. It exposes exactly the four
// operations strategies need. A PlatformHandle must never be retained
// past the lifetime of the Driver that created it; callers that need to
// hold one across goroutines may copy it freely, since every field is
// either immutable or already safe for concurrent use.
type PlatformHandle struct {
	execute        func(Action, WindowInfo)
	sendMedia      func(MediaCommand)
	sendKey        func(KeyCode)
	activeWindow   func() WindowInfo
}

// NewPlatformHandle builds a PlatformHandle from the four primitive
// operations a Driver implementation provides.
func NewPlatformHandle(execute func(Action, WindowInfo), sendMedia func(MediaCommand), sendKey func(KeyCode), activeWindow func() WindowInfo) PlatformHandle {
	return PlatformHandle{execute: execute, sendMedia: sendMedia, sendKey: sendKey, activeWindow: activeWindow}
}

// Execute runs action as if it had been resolved for the given window.
func (h PlatformHandle) Execute(action Action, w WindowInfo) {
	if h.execute != nil {
		h.execute(action, w)
	}
}

// SendMedia issues a media transport command directly, bypassing action
// resolution. Used by strategies that synthesize their own media actions
// (e.g. a divert target).
func (h PlatformHandle) SendMedia(cmd MediaCommand) {
	if h.sendMedia != nil {
		h.sendMedia(cmd)
	}
}

// SendKey re-injects a synthetic key press and release for the given key.
func (h PlatformHandle) SendKey(key KeyCode) {
	if h.sendKey != nil {
		h.sendKey(key)
	}
}

// ActiveWindow returns the Driver's best current knowledge of the focused
// window.
func (h PlatformHandle) ActiveWindow() WindowInfo {
	if h.activeWindow != nil {
		return h.activeWindow()
	}
	return WindowInfo{}
}

// TimerHandle lets a Strategy schedule and cancel a delayed callback
// without owning a goroutine itself. The Dispatcher supplies an
// implementation backed by time.AfterFunc; tests supply a fake that fires
// synchronously or never, as the scenario requires.
type TimerHandle interface {
	// After schedules fn to run after d elapses, returning a cancel
	// function that is a no-op if the timer already fired.
	After(d time.Duration, fn func()) (cancel func())
}

// StrategyContext is the set of capabilities a Strategy's process method
// receives each time it's invoked: the ability to act on the platform, to
// schedule cancellable delayed work, and read-only access to the binding
// configuration it was built for.
type StrategyContext struct {
	Platform PlatformHandle
	Timers   TimerHandle
	Binding  *Binding
}

// Strategy decides, for a stream of InputEvents on the keys it
// subscribes to, when (and whether) the bound Action actually fires. A
// Strategy instance is shared by every Binding that names the same
// strategy, so state that belongs to one physical key must be keyed by
// KeyCode.
type Strategy interface {
	// Subscriptions lists additional EventIDs (beyond the owning
	// binding's own key) this strategy wants delivered to Process, such
	// as divert sources. Returning nil means "only my own key".
	Subscriptions() []EventID

	// Process handles one InputEvent and returns the Response its
	// physical transition must receive. It must complete without
	// blocking on anything but the strategy's own lock; all scheduling
	// goes through ctx.Timers.
	Process(ctx *StrategyContext, ev InputEvent) Response
}
