package rebinded

import (
	"fmt"
	"sync"
	"time"
)

func unknownDivertTarget(source, token string) error {
	return fmt.Errorf("divert %q names unknown action %q", source, token)
}

func unknownDivertSource(name string) error {
	return fmt.Errorf("divert source %q is not a recognized key or scroll event", name)
}

// keyStatus is the per-key state in a GatedHoldStrategy's state machine.
type keyStatus int

const (
	statusIdle keyStatus = iota
	statusHolding
	statusActive
	statusDiverted
)

type keyEntry struct {
	status      keyStatus
	cancelTimer func()
}

// GatedHoldStrategy implements the hold/tap debounce behavior: a key must
// be held for at least InitialHold before its action activates, unless
// the gate is already open (another key is Active, or a key was released
// within the last RepeatWindow), in which case it activates immediately.
// A single instance is shared by every binding that names the same
// strategy, which is why its state is keyed by KeyCode rather than being
// a single scalar.
type GatedHoldStrategy struct {
	config *GatedHoldConfig

	// diverts maps an additional EventID this strategy subscribes to
	// (e.g. the scroll wheel) onto the Action that should fire for it,
	// instead of the owning binding's own action.
	diverts map[EventID]Action

	mu          sync.Mutex
	keys        map[KeyCode]*keyEntry
	lastRelease time.Time
	haveRelease bool
}

// NewGatedHoldStrategy builds a GatedHoldStrategy from its configuration.
// registry resolves the key names in cfg.Diverts' target side is already
// an action token, so only the source side (an EventID token: a key
// specifier or "scroll_up"/"scroll_down") needs registry resolution.
func NewGatedHoldStrategy(cfg *GatedHoldConfig, registry *Registry) (*GatedHoldStrategy, error) {
	g := &GatedHoldStrategy{
		config:  cfg,
		diverts: make(map[EventID]Action),
		keys:    make(map[KeyCode]*keyEntry),
	}
	for source, targetToken := range cfg.Diverts {
		action, ok := ActionFromToken(targetToken)
		if !ok {
			return nil, &StartupError{Phase: PhaseConfigValidation, Err: unknownDivertTarget(source, targetToken)}
		}
		code, err := registry.ParseKeySpecifier(source)
		if err != nil {
			code, err = scrollEventCode(source)
			if err != nil {
				return nil, &StartupError{Phase: PhaseConfigValidation, Err: err}
			}
		}
		g.diverts[EventID{Key: code, Direction: Down}] = action
	}
	return g, nil
}

func scrollEventCode(name string) (KeyCode, error) {
	switch name {
	case "scroll_up":
		return ScrollUpKey, nil
	case "scroll_down":
		return ScrollDownKey, nil
	default:
		return 0, unknownDivertSource(name)
	}
}

// Subscriptions advertises the divert sources this strategy also wants to
// receive events for, beyond its owning binding's own key.
func (g *GatedHoldStrategy) Subscriptions() []EventID {
	ids := make([]EventID, 0, len(g.diverts))
	for id := range g.diverts {
		ids = append(ids, id)
	}
	return ids
}

// isGateOpenLocked reports whether an Idle key should activate immediately
// rather than waiting out InitialHold. Must be called with g.mu held.
func (g *GatedHoldStrategy) isGateOpenLocked(now time.Time) bool {
	for _, e := range g.keys {
		if e.status == statusActive {
			return true
		}
	}
	if g.haveRelease && now.Sub(g.lastRelease) < g.config.RepeatWindow {
		return true
	}
	return false
}

func (g *GatedHoldStrategy) entryLocked(key KeyCode) *keyEntry {
	e, ok := g.keys[key]
	if !ok {
		e = &keyEntry{status: statusIdle}
		g.keys[key] = e
	}
	return e
}

// Process handles one InputEvent for either the owning binding's key or
// one of this strategy's divert sources, and returns the Response its
// physical transition must receive.
func (g *GatedHoldStrategy) Process(ctx *StrategyContext, ev InputEvent) Response {
	if action, isDivert := g.diverts[EventID{Key: ev.Key, Direction: Down}]; isDivert {
		if ev.Dir != Down {
			return ResponseBlock
		}
		return g.processDivert(ctx, action, ev.Time)
	}

	var resp Response
	switch ev.Dir {
	case Down:
		resp = g.processDown(ctx, ev)
	case Up:
		resp = g.processUp(ctx, ev)
	}

	// A fully-idle key carries no information and must not linger in the
	// map, or a long-running daemon would slowly accumulate one entry per
	// distinct key ever pressed.
	g.mu.Lock()
	if e, ok := g.keys[ev.Key]; ok && e.status == statusIdle && e.cancelTimer == nil {
		delete(g.keys, ev.Key)
	}
	g.mu.Unlock()

	return resp
}

// processDivert implements the divert transition: every key currently
// Holding or Active moves to Diverted (cancelling a pending hold timer
// for one coming from Holding, stamping lastRelease so the repeat
// window survives the divert for one coming from Active), and the
// diverted action fires once. A divert that finds no key Holding,
// Active, or already Diverted is inert and passes through untouched,
// regardless of the shared repeat-window gate.
func (g *GatedHoldStrategy) processDivert(ctx *StrategyContext, action Action, now time.Time) Response {
	g.mu.Lock()
	found := false
	for _, e := range g.keys {
		switch e.status {
		case statusHolding:
			if e.cancelTimer != nil {
				e.cancelTimer()
				e.cancelTimer = nil
			}
			e.status = statusDiverted
			found = true
		case statusActive:
			e.status = statusDiverted
			g.lastRelease = now
			g.haveRelease = true
			found = true
		case statusDiverted:
			found = true
		}
	}
	g.mu.Unlock()

	if !found {
		return ResponsePassthrough
	}

	if ma, ok := action.(MediaAction); ok {
		ctx.Platform.SendMedia(ma.Command)
		return ResponseBlock
	}
	w := ctx.Platform.ActiveWindow()
	ctx.Platform.Execute(action, w)
	return ResponseBlock
}

func (g *GatedHoldStrategy) processDown(ctx *StrategyContext, ev InputEvent) Response {
	g.mu.Lock()
	e := g.entryLocked(ev.Key)

	switch e.status {
	case statusIdle:
		if g.isGateOpenLocked(ev.Time) {
			e.status = statusActive
			g.mu.Unlock()
			g.fire(ctx)
			return ResponseBlock
		}
		e.status = statusHolding
		key := ev.Key
		cancel := ctx.Timers.After(g.config.InitialHold, func() {
			g.promote(ctx, key)
		})
		e.cancelTimer = cancel
		g.mu.Unlock()
	case statusHolding, statusActive, statusDiverted:
		// Key repeat while already holding/active: no new state change.
		g.mu.Unlock()
	}
	return ResponseBlock
}

func (g *GatedHoldStrategy) promote(ctx *StrategyContext, key KeyCode) {
	g.mu.Lock()
	e, ok := g.keys[key]
	if !ok || e.status != statusHolding {
		g.mu.Unlock()
		return
	}
	e.cancelTimer = nil
	e.status = statusActive
	g.mu.Unlock()
	g.fire(ctx)
}

func (g *GatedHoldStrategy) fire(ctx *StrategyContext) {
	w := ctx.Platform.ActiveWindow()
	action := ctx.Binding.Action.Resolve(w)
	ctx.Platform.Execute(action, w)
}

func (g *GatedHoldStrategy) processUp(ctx *StrategyContext, ev InputEvent) Response {
	g.mu.Lock()
	e, ok := g.keys[ev.Key]
	if !ok {
		g.mu.Unlock()
		return ResponseBlock
	}
	switch e.status {
	case statusHolding:
		if e.cancelTimer != nil {
			e.cancelTimer()
			e.cancelTimer = nil
		}
		e.status = statusIdle
	case statusActive:
		e.status = statusIdle
		g.lastRelease = ev.Time
		g.haveRelease = true
	case statusDiverted:
		// lastRelease was already stamped (if at all) at divert time;
		// the physical release that follows doesn't re-arm it.
		e.status = statusIdle
	}
	g.mu.Unlock()
	return ResponseBlock
}
