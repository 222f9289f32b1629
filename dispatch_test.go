package rebinded

import "testing"

func TestDispatcher_ImmediateBindingFiresOnDown(t *testing.T) {
	rc := &RuntimeConfig{
		Bindings: map[KeyCode]*Binding{
			30: {Key: 30, Action: ActionSpec{Simple: MediaAction{Command: MediaNext}}},
		},
		Strategies: map[string]*StrategyConfig{},
	}
	mock := NewPlatformMock(WindowInfo{})
	d, err := NewDispatcher(rc, NewRegistry(nil), mock.Handle(), nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	if resp := d.Dispatch(InputEvent{Key: 30, Dir: Down}); resp != ResponseBlock {
		t.Fatalf("expected Block on Down, got %v", resp)
	}
	if resp := d.Dispatch(InputEvent{Key: 30, Dir: Up}); resp != ResponseBlock {
		t.Fatalf("expected Block on Up, got %v", resp)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one call (on Down only), got %v", calls)
	}
}

func TestDispatcher_UnboundKeyIsPassthrough(t *testing.T) {
	rc := &RuntimeConfig{Bindings: map[KeyCode]*Binding{}, Strategies: map[string]*StrategyConfig{}}
	mock := NewPlatformMock(WindowInfo{})
	d, err := NewDispatcher(rc, NewRegistry(nil), mock.Handle(), nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	resp := d.Dispatch(InputEvent{Key: 999, Dir: Down})
	if resp != ResponsePassthrough {
		t.Fatalf("expected an unbound key to pass through, got %v", resp)
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("expected no calls for an unbound key, got %v", mock.Calls())
	}
}

func TestDispatcher_ConditionalFallthroughIsPassthrough(t *testing.T) {
	rc := &RuntimeConfig{
		Bindings: map[KeyCode]*Binding{
			30: {Key: 30, Action: ActionSpec{Conditionals: []ConditionalAction{
				{Condition: Condition{Window: WindowCondition{Class: "nonexistent"}}, Action: MediaAction{Command: MediaNext}},
			}}},
		},
		Strategies: map[string]*StrategyConfig{},
	}
	for i := range rc.Bindings[30].Action.Conditionals {
		if err := rc.Bindings[30].Action.Conditionals[i].Condition.Compile(); err != nil {
			t.Fatalf("Compile: %v", err)
		}
	}
	mock := NewPlatformMock(WindowInfo{Class: "something_else"})
	d, err := NewDispatcher(rc, NewRegistry(nil), mock.Handle(), nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	resp := d.Dispatch(InputEvent{Key: 30, Dir: Down})
	if resp != ResponsePassthrough {
		t.Fatalf("expected a non-matching conditional spec to pass through, got %v", resp)
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("expected no calls, got %v", mock.Calls())
	}
}

func TestDispatcher_RoutesDivertSubscriptionToOwningStrategy(t *testing.T) {
	rc := &RuntimeConfig{
		Bindings: map[KeyCode]*Binding{
			30: {
				Key:    30,
				Action: ActionSpec{Simple: MediaAction{Command: MediaPlayPause}},
				Strategy: func() *Spanned[string] {
					s := NewSpanned("tap_hold", Span{})
					return &s
				}(),
			},
		},
		Strategies: map[string]*StrategyConfig{
			"tap_hold": {
				Name: "tap_hold",
				GatedHold: &GatedHoldConfig{
					Diverts: map[string]string{"scroll_up": "volume_up"},
				},
			},
		},
	}
	mock := NewPlatformMock(WindowInfo{})
	timers := &ManualTimers{}
	d, err := NewDispatcherWithTimers(rc, NewRegistry(SupplementaryKeyTable()), mock.Handle(), nil, timers)
	if err != nil {
		t.Fatalf("NewDispatcherWithTimers: %v", err)
	}

	// A divert with no key held is inert: passthrough, no side effect.
	resp := d.Dispatch(InputEvent{Key: ScrollUpKey, Dir: Down})
	if resp != ResponsePassthrough {
		t.Fatalf("expected a divert with nothing held to pass through, got %v", resp)
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("expected no calls for an inert divert, got %v", mock.Calls())
	}

	// Once key 30 is actually held (it goes to Holding since the gate is
	// closed; firing the timer promotes it to Active), the divert routes
	// through its owning strategy.
	if resp := d.Dispatch(InputEvent{Key: 30, Dir: Down}); resp != ResponseBlock {
		t.Fatalf("expected Block while key 30 is holding, got %v", resp)
	}
	timers.FireAll()

	resp = d.Dispatch(InputEvent{Key: ScrollUpKey, Dir: Down})
	if resp != ResponseBlock {
		t.Fatalf("expected a divert while key 30 is active to block, got %v", resp)
	}

	calls := mock.Calls()
	if len(calls) != 2 || calls[1].Kind != "send_media" || calls[1].Media != VolumeUp {
		t.Fatalf("expected scroll_up to route through key 30's tap_hold strategy as volume_up, got %v", calls)
	}
}
