package rebinded

import "time"

// StrategyConfig describes a named debounce strategy defined in a
// [strategies.<name>] table. GatedHold is the only strategy kind the
// loader currently understands; the field is a pointer so future strategy
// kinds can be added as siblings without breaking this one's zero value.
type StrategyConfig struct {
	Name      string
	GatedHold *GatedHoldConfig
}

// GatedHoldConfig holds the tunables for a GatedHoldStrategy instance, as
// parsed from a [strategies.<name>] table whose kind is "gated_hold".
type GatedHoldConfig struct {
	InitialHold  time.Duration
	RepeatWindow time.Duration
	// Diverts maps an event id string this strategy should also subscribe
	// to (a key specifier, "scroll_up" or "scroll_down") to the action
	// token that fires instead of the held key's own action when that
	// event arrives while a key is held.
	Diverts map[string]string
}

// Binding associates one triggering key with the action it performs and,
// optionally, the named strategy governing when that action fires.
type Binding struct {
	Key      KeyCode
	KeyName  Spanned[string]
	Action   ActionSpec
	Strategy *Spanned[string]
}

// RuntimeConfig is the fully validated, ready-to-run result of loading a
// configuration file: every key name has been resolved to a KeyCode,
// every strategy reference checked, every glob pattern compiled.
type RuntimeConfig struct {
	Bindings   map[KeyCode]*Binding
	Strategies map[string]*StrategyConfig
	RepeatWindowDefault time.Duration
}

// StrategyFor returns the strategy configuration a binding should run
// under, or nil (no strategy, immediate fire) when the binding doesn't
// name one.
func (rc *RuntimeConfig) StrategyFor(b *Binding) *StrategyConfig {
	if b.Strategy == nil {
		return nil
	}
	return rc.Strategies[b.Strategy.Value]
}
