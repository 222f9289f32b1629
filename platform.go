package rebinded

import (
	"os/exec"
)

// Driver is what a Platform Driver implementation must provide: capture
// of physical input, consulting handle synchronously for each one and
// enforcing its Response before the next raw event is read, re-injection
// primitives, and best-effort focused-window metadata. Exactly one
// Driver implementation is compiled in per target OS, selected by build
// tags on platform_<os>.go.
type Driver interface {
	// Run captures input until the driver is stopped or encounters a
	// fatal error, calling handle synchronously for every InputEvent and
	// enforcing the Response it returns (suppressing the physical event
	// on Block, letting it through on Passthrough) before reading the
	// next one. It blocks until either Stop is called or it returns a
	// fatal error.
	Run(handle EventHandler) error

	// Stop releases all grabs and virtual devices and unblocks Run.
	Stop()

	// ActiveWindow returns the best currently-known information about
	// the focused window. A driver that cannot determine a field leaves
	// it as the empty string rather than guessing.
	ActiveWindow() WindowInfo

	// SendKey re-injects a synthetic press+release of key.
	SendKey(key KeyCode)

	// SendMedia issues a media/volume transport command.
	SendMedia(cmd MediaCommand)
}

// Execute performs the side effect an Action describes, using d's
// primitive operations. It is shared by every platform driver so the
// resolution of an Action to a concrete effect lives in one place.
func Execute(d Driver, action Action, w WindowInfo) {
	switch a := action.(type) {
	case MediaAction:
		d.SendMedia(a.Command)
	case KeyAction:
		d.SendKey(a.Key)
	case ExecAction:
		runExec(a)
	case PassthroughAction, BlockAction:
		// Both are no-ops here. An unmanaged binding resolving to
		// PassthroughAction never reaches Execute at all: Dispatch
		// returns ResponsePassthrough for it directly. A strategy-managed
		// binding's physical key is already Blocked regardless of what
		// its action resolves to, so PassthroughAction/BlockAction here
		// just mean "no synthetic side effect", not "let it through".
	}
}

// runExec launches an external command directly, without a shell, so a
// configuration file cannot smuggle shell metacharacters into another
// program's argument list.
func runExec(a ExecAction) {
	if a.Command == "" {
		return
	}
	cmd := exec.Command(a.Command, a.Args...)
	_ = cmd.Start()
}

// Handle builds the PlatformHandle strategies use from a concrete Driver.
func Handle(d Driver) PlatformHandle {
	return NewPlatformHandle(
		func(action Action, w WindowInfo) { Execute(d, action, w) },
		d.SendMedia,
		d.SendKey,
		d.ActiveWindow,
	)
}
