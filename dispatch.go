package rebinded

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// realTimers schedules callbacks with the standard library's timer
// runtime. It is the TimerHandle used outside of tests; tests substitute
// ManualTimers (in platform_mock.go), which fires only on request, so
// scenarios don't need real wall-clock sleeps.
type realTimers struct{}

// After implements TimerHandle using time.AfterFunc.
func (realTimers) After(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// boundBinding pairs a Binding with the Strategy instance (if any)
// governing it, so the dispatcher can route an event straight to the
// right state machine without a second map lookup per event.
type boundBinding struct {
	binding  *Binding
	strategy Strategy
}

// Dispatcher is the Event Dispatcher: it owns the merged stream of
// InputEvents coming from the Platform Driver and, for each one, finds
// the owning binding (directly, or through a strategy's divert
// subscription) and either fires its action immediately or hands the
// event to that binding's Strategy.
type Dispatcher struct {
	config   *RuntimeConfig
	platform PlatformHandle
	timers   TimerHandle
	logger   hclog.Logger

	bound        map[KeyCode]*boundBinding
	subscription map[EventID]KeyCode
}

// NewDispatcher builds a Dispatcher for the given RuntimeConfig, wiring
// one Strategy instance per named strategy, shared by every binding that
// names it.
func NewDispatcher(config *RuntimeConfig, registry *Registry, platform PlatformHandle, logger hclog.Logger) (*Dispatcher, error) {
	return NewDispatcherWithTimers(config, registry, platform, logger, realTimers{})
}

// NewDispatcherWithTimers is NewDispatcher with an explicit TimerHandle,
// used by tests to substitute a ManualTimers fake for the real clock.
func NewDispatcherWithTimers(config *RuntimeConfig, registry *Registry, platform PlatformHandle, logger hclog.Logger, timers TimerHandle) (*Dispatcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	d := &Dispatcher{
		config:       config,
		platform:     platform,
		timers:       timers,
		logger:       logger,
		bound:        make(map[KeyCode]*boundBinding),
		subscription: make(map[EventID]KeyCode),
	}

	instances := make(map[string]*GatedHoldStrategy)
	for key, binding := range config.Bindings {
		bb := &boundBinding{binding: binding}
		if sc := config.StrategyFor(binding); sc != nil && sc.GatedHold != nil {
			strat, ok := instances[binding.Strategy.Value]
			if !ok {
				var err error
				strat, err = NewGatedHoldStrategy(sc.GatedHold, registry)
				if err != nil {
					return nil, fmt.Errorf("binding %q: %w", binding.KeyName.Value, err)
				}
				instances[binding.Strategy.Value] = strat
			}
			bb.strategy = strat
			for _, id := range strat.Subscriptions() {
				d.subscription[id] = key
			}
		}
		d.bound[key] = bb
	}
	return d, nil
}

// Dispatch routes a single InputEvent to its owning binding and returns
// the Response its physical transition must receive, per the ordering
// guarantee that one event's handling completes fully before the next
// is taken from the capture path. It never blocks on anything but a
// strategy's own internal lock. Dispatch is a Driver's EventHandler.
func (d *Dispatcher) Dispatch(ev InputEvent) Response {
	key := ev.Key
	if owner, ok := d.subscription[ev.ID()]; ok {
		key = owner
	}

	bb, ok := d.bound[key]
	if !ok {
		return ResponsePassthrough
	}

	if bb.strategy == nil {
		w := d.platform.ActiveWindow()
		action := bb.binding.Action.Resolve(w)
		if _, passthrough := action.(PassthroughAction); passthrough {
			return ResponsePassthrough
		}
		if ev.Dir == Down {
			d.platform.Execute(action, w)
		}
		return ResponseBlock
	}

	ctx := &StrategyContext{Platform: d.platform, Timers: d.timers, Binding: bb.binding}
	return bb.strategy.Process(ctx, ev)
}
