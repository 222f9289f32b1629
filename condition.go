package rebinded

import (
	"fmt"

	"github.com/gobwas/glob"
)

// WindowCondition restricts a conditional binding action to windows whose
// focused-window metadata matches (or doesn't match) a set of glob
// patterns. An empty field imposes no constraint on that axis.
type WindowCondition struct {
	Title    string
	NotTitle string
	Class    string
	NotClass string
	Binary   string
	NotBinary string

	title, notTitle   glob.Glob
	class, notClass   glob.Glob
	binary, notBinary glob.Glob
}

// compileGlob returns nil, nil for an empty pattern so Matches can treat a
// nil compiled glob as "no constraint" uniformly.
func compileGlob(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return g, nil
}

// Compile precompiles every non-empty glob pattern on the condition. It
// must be called once after the condition is parsed and before Matches is
// used; it is separated from parsing so a Diagnostic with a precise byte
// span can be raised for a bad pattern at load time instead of failing
// silently at match time.
func (c *WindowCondition) Compile() error {
	var err error
	if c.title, err = compileGlob(c.Title); err != nil {
		return err
	}
	if c.notTitle, err = compileGlob(c.NotTitle); err != nil {
		return err
	}
	if c.class, err = compileGlob(c.Class); err != nil {
		return err
	}
	if c.notClass, err = compileGlob(c.NotClass); err != nil {
		return err
	}
	if c.binary, err = compileGlob(c.Binary); err != nil {
		return err
	}
	if c.notBinary, err = compileGlob(c.NotBinary); err != nil {
		return err
	}
	return nil
}

// Matches reports whether the given window satisfies every constraint the
// condition imposes. All set fields must agree; an unset field never
// disqualifies a match.
func (c *WindowCondition) Matches(w WindowInfo) bool {
	if c.title != nil && !c.title.Match(w.Title) {
		return false
	}
	if c.notTitle != nil && c.notTitle.Match(w.Title) {
		return false
	}
	if c.class != nil && !c.class.Match(w.Class) {
		return false
	}
	if c.notClass != nil && c.notClass.Match(w.Class) {
		return false
	}
	if c.binary != nil && !c.binary.Match(w.Binary) {
		return false
	}
	if c.notBinary != nil && c.notBinary.Match(w.Binary) {
		return false
	}
	return true
}

// Condition wraps the set of constraints a conditional binding action
// checks against. Today it only carries a WindowCondition, but it is a
// distinct type from WindowCondition so future condition axes (e.g. time
// of day) can be added without changing ConditionalAction's shape.
type Condition struct {
	Window WindowCondition
}

// Compile precompiles the condition's glob patterns.
func (c *Condition) Compile() error {
	return c.Window.Compile()
}

// Matches reports whether the condition is satisfied for the given window.
func (c *Condition) Matches(w WindowInfo) bool {
	return c.Window.Matches(w)
}

// ConditionalAction pairs an Action with the Condition that must match the
// currently focused window for it to be eligible. ActionSpec evaluates a
// list of these in order and fires the first whose condition matches.
type ConditionalAction struct {
	Condition Condition
	Action    Action
}

// ActionSpec is either a single unconditional Action, or an ordered list
// of ConditionalActions evaluated against the currently focused window,
// the first match winning. A conditional spec with no matching entry and
// no trailing unconditional fallback resolves to PassthroughAction.
type ActionSpec struct {
	Simple       Action
	Conditionals []ConditionalAction
}

// Resolve picks the Action that applies for the given window. A
// conditional spec with no matching entry resolves to PassthroughAction,
// not nil: a key with no rule for the current window must let its
// physical event through rather than being silently swallowed.
func (s *ActionSpec) Resolve(w WindowInfo) Action {
	if s.Simple != nil {
		return s.Simple
	}
	for _, ca := range s.Conditionals {
		if ca.Condition.Matches(w) {
			return ca.Action
		}
	}
	return PassthroughAction{}
}
