package rebinded

import (
	"testing"
	"time"
)

func newTestGatedHold(t *testing.T, initial, repeat time.Duration) (*GatedHoldStrategy, *PlatformMock, *ManualTimers, *StrategyContext) {
	t.Helper()
	cfg := &GatedHoldConfig{InitialHold: initial, RepeatWindow: repeat}
	reg := NewRegistry(nil)
	strat, err := NewGatedHoldStrategy(cfg, reg)
	if err != nil {
		t.Fatalf("NewGatedHoldStrategy: %v", err)
	}
	mock := NewPlatformMock(WindowInfo{Title: "test"})
	timers := &ManualTimers{}
	binding := &Binding{Key: 1, Action: ActionSpec{Simple: MediaAction{Command: MediaPlayPause}}}
	ctx := &StrategyContext{Platform: mock.Handle(), Timers: timers, Binding: binding}
	return strat, mock, timers, ctx
}

func TestGatedHold_GateClosedInitially(t *testing.T) {
	strat, _, _, _ := newTestGatedHold(t, 200*time.Millisecond, 500*time.Millisecond)
	if strat.isGateOpenLocked(time.Now()) {
		t.Fatal("gate should start closed")
	}
}

func TestGatedHold_EarlyReleaseCancelsActivation(t *testing.T) {
	strat, mock, timers, ctx := newTestGatedHold(t, 200*time.Millisecond, 500*time.Millisecond)
	now := time.Now()

	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})
	strat.Process(ctx, InputEvent{Key: 1, Dir: Up, Time: now.Add(50 * time.Millisecond)})

	// The timer was cancelled before it could fire; firing it anyway
	// (simulating a race) must not produce an action, since promote()
	// checks the key is still in statusHolding.
	timers.FireAll()

	if len(mock.Calls()) != 0 {
		t.Fatalf("expected no calls after early release, got %v", mock.Calls())
	}
}

func TestGatedHold_HoldActivatesOnce(t *testing.T) {
	strat, mock, timers, ctx := newTestGatedHold(t, 200*time.Millisecond, 500*time.Millisecond)
	now := time.Now()

	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})
	timers.FireAll()

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one execute call, got %d: %v", len(calls), calls)
	}
	if calls[0].Kind != "execute" {
		t.Fatalf("expected an execute call, got %q", calls[0].Kind)
	}

	// A second timer fire (e.g. a duplicate schedule) must not double-fire.
	timers.FireAll()
	if len(mock.Calls()) != 1 {
		t.Fatalf("expected no duplicate activation, got %v", mock.Calls())
	}
}

func TestGatedHold_SharedGateAcrossKeys(t *testing.T) {
	strat, mock, timers, ctx := newTestGatedHold(t, 200*time.Millisecond, 500*time.Millisecond)
	now := time.Now()

	// Key 1 activates via hold.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})
	timers.FireAll()
	if len(mock.Calls()) != 1 {
		t.Fatalf("expected key 1 to activate")
	}

	// While key 1 is Active, key 2 going down should activate immediately
	// (gate open), with no timer needed.
	binding2 := &Binding{Key: 2, Action: ActionSpec{Simple: MediaAction{Command: MediaNext}}}
	ctx2 := &StrategyContext{Platform: ctx.Platform, Timers: ctx.Timers, Binding: binding2}
	strat.Process(ctx2, InputEvent{Key: 2, Dir: Down, Time: now.Add(10 * time.Millisecond)})

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected key 2 to activate immediately via shared gate, got %v", calls)
	}
}

func TestGatedHold_RepeatWindowAfterRelease(t *testing.T) {
	strat, mock, timers, ctx := newTestGatedHold(t, 200*time.Millisecond, 500*time.Millisecond)
	now := time.Now()

	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})
	timers.FireAll()
	strat.Process(ctx, InputEvent{Key: 1, Dir: Up, Time: now.Add(10 * time.Millisecond)})

	// Re-press within the repeat window: should activate immediately.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now.Add(100 * time.Millisecond)})

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected immediate re-activation within repeat window, got %v", calls)
	}
}

func TestGatedHold_GateClosesAfterRepeatWindow(t *testing.T) {
	strat, mock, timers, ctx := newTestGatedHold(t, 200*time.Millisecond, 100*time.Millisecond)
	now := time.Now()

	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})
	timers.FireAll()
	strat.Process(ctx, InputEvent{Key: 1, Dir: Up, Time: now.Add(10 * time.Millisecond)})

	// Re-press after the repeat window has elapsed: should go back to holding.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now.Add(500 * time.Millisecond)})
	if len(mock.Calls()) != 1 {
		t.Fatalf("expected no immediate activation after repeat window closed, got %v", mock.Calls())
	}
}

func TestGatedHold_KeyUpDoesNotGrowMapUnbounded(t *testing.T) {
	strat, _, _, ctx := newTestGatedHold(t, 200*time.Millisecond, 500*time.Millisecond)
	now := time.Now()

	for i := 0; i < 50; i++ {
		key := KeyCode(100 + i)
		b := &Binding{Key: key, Action: ActionSpec{Simple: BlockAction{}}}
		c := &StrategyContext{Platform: ctx.Platform, Timers: ctx.Timers, Binding: b}
		strat.Process(c, InputEvent{Key: key, Dir: Down, Time: now})
		strat.Process(c, InputEvent{Key: key, Dir: Up, Time: now.Add(time.Millisecond)})
	}

	strat.mu.Lock()
	n := len(strat.keys)
	strat.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected key map to drain back to empty for idle keys, got %d entries", n)
	}
}

func TestGatedHold_DivertWithNothingHeldIsInertPassthrough(t *testing.T) {
	cfg := &GatedHoldConfig{
		InitialHold:  200 * time.Millisecond,
		RepeatWindow: 500 * time.Millisecond,
		Diverts:      map[string]string{"scroll_up": "volume_up"},
	}
	reg := NewRegistry(SupplementaryKeyTable())
	strat, err := NewGatedHoldStrategy(cfg, reg)
	if err != nil {
		t.Fatalf("NewGatedHoldStrategy: %v", err)
	}
	mock := NewPlatformMock(WindowInfo{})
	timers := &ManualTimers{}
	binding := &Binding{Key: 1, Action: ActionSpec{Simple: MediaAction{Command: MediaPlayPause}}}
	ctx := &StrategyContext{Platform: mock.Handle(), Timers: timers, Binding: binding}

	// No key is Holding, Active, or Diverted: the divert must be inert
	// and pass through, regardless of the shared repeat-window gate.
	resp := strat.Process(ctx, InputEvent{Key: ScrollUpKey, Dir: Down, Time: time.Now()})
	if resp != ResponsePassthrough {
		t.Fatalf("expected a divert with nothing held to pass through, got %v", resp)
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("expected no calls, got %v", mock.Calls())
	}
}

func TestGatedHold_DivertFromActivePreservesRepeatWindow(t *testing.T) {
	cfg := &GatedHoldConfig{
		InitialHold:  200 * time.Millisecond,
		RepeatWindow: 500 * time.Millisecond,
		Diverts:      map[string]string{"scroll_up": "volume_up"},
	}
	reg := NewRegistry(SupplementaryKeyTable())
	strat, err := NewGatedHoldStrategy(cfg, reg)
	if err != nil {
		t.Fatalf("NewGatedHoldStrategy: %v", err)
	}
	mock := NewPlatformMock(WindowInfo{})
	timers := &ManualTimers{}
	binding := &Binding{Key: 1, Action: ActionSpec{Simple: MediaAction{Command: MediaPlayPause}}}
	ctx := &StrategyContext{Platform: mock.Handle(), Timers: timers, Binding: binding}

	now := time.Now()
	// Activate key 1 normally and leave it physically held (Active).
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})
	timers.FireAll()

	// A scroll_up event arriving via divert subscription while key 1 is
	// still Active diverts it: volume_up fires once, key 1 moves to
	// Diverted, and lastRelease is stamped so the repeat window survives
	// even though key 1 was never actually released.
	resp := strat.Process(ctx, InputEvent{Key: ScrollUpKey, Dir: Down, Time: now.Add(50 * time.Millisecond)})
	if resp != ResponseBlock {
		t.Fatalf("expected divert to block, got %v", resp)
	}

	calls := mock.Calls()
	last := calls[len(calls)-1]
	if last.Kind != "send_media" || last.Media != VolumeUp {
		t.Fatalf("expected diverted volume_up call, got %+v", last)
	}

	// Key 1's physical release now arrives (it was held this whole time).
	// It must not fire anything a second time, and must not re-stamp
	// lastRelease to a later time than the divert already recorded.
	beforeCalls := len(mock.Calls())
	strat.Process(ctx, InputEvent{Key: 1, Dir: Up, Time: now.Add(60 * time.Millisecond)})
	if len(mock.Calls()) != beforeCalls {
		t.Fatalf("expected the physical release from Diverted to produce no calls, got %v", mock.Calls())
	}

	// Pressing key 1 again shortly after still finds the gate open (from
	// the divert's lastRelease stamp) and activates immediately.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now.Add(100 * time.Millisecond)})
	if len(mock.Calls()) != beforeCalls+1 {
		t.Fatalf("expected immediate re-activation within the repeat window the divert preserved, got %v", mock.Calls())
	}
}

func TestGatedHold_DivertFromHoldingCancelsTimer(t *testing.T) {
	cfg := &GatedHoldConfig{
		InitialHold:  200 * time.Millisecond,
		RepeatWindow: 500 * time.Millisecond,
		Diverts:      map[string]string{"scroll_down": "volume_down"},
	}
	reg := NewRegistry(SupplementaryKeyTable())
	strat, err := NewGatedHoldStrategy(cfg, reg)
	if err != nil {
		t.Fatalf("NewGatedHoldStrategy: %v", err)
	}
	mock := NewPlatformMock(WindowInfo{})
	timers := &ManualTimers{}
	binding := &Binding{Key: 1, Action: ActionSpec{Simple: MediaAction{Command: MediaPlayPause}}}
	ctx := &StrategyContext{Platform: mock.Handle(), Timers: timers, Binding: binding}

	now := time.Now()
	// Key 1 goes down and is still waiting out InitialHold (Holding) when
	// the divert arrives.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now})

	resp := strat.Process(ctx, InputEvent{Key: ScrollDownKey, Dir: Down, Time: now.Add(50 * time.Millisecond)})
	if resp != ResponseBlock {
		t.Fatalf("expected divert to block, got %v", resp)
	}

	calls := mock.Calls()
	if len(calls) != 1 || calls[0].Kind != "send_media" || calls[0].Media != VolumeDown {
		t.Fatalf("expected exactly one diverted volume_down call, got %v", calls)
	}

	// Key 1's own hold timer must have been cancelled: firing it must not
	// produce key 1's action on top of the divert's.
	timers.FireAll()
	if len(mock.Calls()) != 1 {
		t.Fatalf("expected key 1's cancelled hold timer to produce no additional calls, got %v", mock.Calls())
	}

	// Key 1's physical release, from Diverted, produces no call either.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Up, Time: now.Add(60 * time.Millisecond)})
	if len(mock.Calls()) != 1 {
		t.Fatalf("expected release from Diverted to produce no call, got %v", mock.Calls())
	}

	// A divert from Holding never stamps lastRelease, so the repeat
	// window was never armed: re-pressing key 1 must go back to waiting
	// out the full hold, not activate immediately.
	strat.Process(ctx, InputEvent{Key: 1, Dir: Down, Time: now.Add(100 * time.Millisecond)})
	if len(mock.Calls()) != 1 {
		t.Fatalf("expected no immediate activation, since diverting from Holding doesn't arm the repeat window, got %v", mock.Calls())
	}
}
