package rebinded

import (
	"sync"
	"time"
)

// ManualTimers is a TimerHandle fake that never schedules anything on a
// real clock. Tests drive hold-timer promotion explicitly by calling
// FireAll, which lets scenarios like "early release cancels the hold" and
// "hold activates once the window elapses" be expressed without a real
// sleep.
type ManualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	fn        func()
	cancelled bool
	fired     bool
}

// After records fn without scheduling it; it only ever runs if a test
// calls FireAll.
func (t *ManualTimers) After(d time.Duration, fn func()) (cancel func()) {
	mt := &manualTimer{fn: fn}
	t.mu.Lock()
	t.pending = append(t.pending, mt)
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		mt.cancelled = true
		t.mu.Unlock()
	}
}

// FireAll runs every pending, non-cancelled, not-yet-fired timer, in the
// order After was called.
func (t *ManualTimers) FireAll() {
	t.mu.Lock()
	pending := make([]*manualTimer, len(t.pending))
	copy(pending, t.pending)
	t.mu.Unlock()
	for _, mt := range pending {
		t.mu.Lock()
		skip := mt.cancelled || mt.fired
		if !skip {
			mt.fired = true
		}
		t.mu.Unlock()
		if !skip {
			mt.fn()
		}
	}
}

// MockCall records one call made to a PlatformMock, for assertions in
// tests that exercise a Strategy or Dispatcher without any real OS
// capture/injection underneath.
type MockCall struct {
	Kind   string // "execute", "send_key", "send_media"
	Action Action
	Key    KeyCode
	Media  MediaCommand
	Window WindowInfo
}

// PlatformMock is a hand-written Driver fake: it records every call
// instead of touching any real input device, which is what lets the
// gated-hold and dispatcher tests assert on exact call sequences.
type PlatformMock struct {
	mu       sync.Mutex
	calls    []MockCall
	window   WindowInfo
}

// NewPlatformMock builds a PlatformMock reporting the given window as
// always focused.
func NewPlatformMock(window WindowInfo) *PlatformMock {
	return &PlatformMock{window: window}
}

func (m *PlatformMock) Run(handle EventHandler) error { <-make(chan struct{}); return nil }
func (m *PlatformMock) Stop()                         {}

func (m *PlatformMock) ActiveWindow() WindowInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window
}

// SetActiveWindow lets a test change the focused window mid-scenario.
func (m *PlatformMock) SetActiveWindow(w WindowInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = w
}

func (m *PlatformMock) SendKey(key KeyCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Kind: "send_key", Key: key})
}

func (m *PlatformMock) SendMedia(cmd MediaCommand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Kind: "send_media", Media: cmd})
}

// Calls returns a snapshot of every call recorded so far.
func (m *PlatformMock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Handle returns a PlatformHandle backed by this mock, recording
// "execute" calls directly (rather than decomposing them into the
// underlying send_key/send_media calls Execute would produce), so tests
// can assert on the Action a strategy resolved without also encoding how
// Execute happens to implement it.
func (m *PlatformMock) Handle() PlatformHandle {
	return NewPlatformHandle(
		func(action Action, w WindowInfo) {
			m.mu.Lock()
			m.calls = append(m.calls, MockCall{Kind: "execute", Action: action, Window: w})
			m.mu.Unlock()
		},
		m.SendMedia,
		m.SendKey,
		m.ActiveWindow,
	)
}
