package rebinded

import (
	"strings"
	"testing"
)

func testRegistry() *Registry {
	return NewRegistry(mergeKeyTables(map[string]KeyCode{
		"a":         30,
		"b":         48,
		"leftctrl":  29,
		"capslock":  58,
	}, SupplementaryKeyTable()))
}

func TestLoader_SimpleActionParsing(t *testing.T) {
	src := `
[bindings.a]
action = "media_play_pause"
`
	rc, diags, err := NewLoader(testRegistry()).Load(src)
	if err != nil {
		t.Fatalf("Load: %v, diags=%v", err, diags)
	}
	b, ok := rc.Bindings[30]
	if !ok {
		t.Fatal("expected binding for key a")
	}
	action := b.Action.Resolve(WindowInfo{})
	if ma, ok := action.(MediaAction); !ok || ma.Command != MediaPlayPause {
		t.Fatalf("expected media_play_pause action, got %#v", action)
	}
}

func TestLoader_ConditionalActionParsing(t *testing.T) {
	src := `
[bindings.a]
action = [
    { condition = { window = { class = "firefox*" } }, action = "browser_back" },
    { action = "media_play_pause" },
]
`
	rc, diags, err := NewLoader(testRegistry()).Load(src)
	if err != nil {
		t.Fatalf("Load: %v, diags=%v", err, diags)
	}
	b := rc.Bindings[30]

	ff := b.Action.Resolve(WindowInfo{Class: "firefox-esr"})
	if ma, ok := ff.(MediaAction); !ok || ma.Command != BrowserBack {
		t.Fatalf("expected browser_back for firefox window, got %#v", ff)
	}

	other := b.Action.Resolve(WindowInfo{Class: "xterm"})
	if ma, ok := other.(MediaAction); !ok || ma.Command != MediaPlayPause {
		t.Fatalf("expected fallback media_play_pause for other window, got %#v", other)
	}
}

func TestLoader_StrategyConfig(t *testing.T) {
	src := `
[strategies.tap_hold]
type = "gated_hold"
initial_hold_ms = 200
repeat_window_ms = 500

[bindings.a]
action = "media_play_pause"
strategy = "tap_hold"
`
	rc, diags, err := NewLoader(testRegistry()).Load(src)
	if err != nil {
		t.Fatalf("Load: %v, diags=%v", err, diags)
	}
	sc, ok := rc.Strategies["tap_hold"]
	if !ok || sc.GatedHold == nil {
		t.Fatal("expected tap_hold gated_hold strategy")
	}
	if sc.GatedHold.InitialHold.Milliseconds() != 200 {
		t.Fatalf("expected 200ms initial hold, got %v", sc.GatedHold.InitialHold)
	}
	b := rc.Bindings[30]
	if b.Strategy == nil || b.Strategy.Value != "tap_hold" {
		t.Fatalf("expected binding to reference tap_hold, got %#v", b.Strategy)
	}
}

func TestLoader_InvalidActionName(t *testing.T) {
	src := `
[bindings.a]
action = "not_a_real_action"
`
	_, diags, err := NewLoader(testRegistry()).Load(src)
	if err == nil {
		t.Fatal("expected a validation error for unknown action")
	}
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "unknown action") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown action diagnostic, got %v", diags)
	}
}

func TestLoader_UndefinedStrategyError(t *testing.T) {
	src := `
[bindings.a]
action = "media_play_pause"
strategy = "does_not_exist"
`
	_, diags, err := NewLoader(testRegistry()).Load(src)
	if err == nil {
		t.Fatal("expected a validation error for undefined strategy")
	}
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "undefined strategy") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected undefined strategy diagnostic, got %v", diags)
	}
}

func TestLoader_DuplicateBindingError(t *testing.T) {
	// Two different key specifiers that the registry resolves to the
	// same KeyCode (a raw numeric alias for "a", code 30).
	src := `
[bindings.a]
action = "media_play_pause"

[bindings.30]
action = "media_next"
`
	_, diags, err := NewLoader(testRegistry()).Load(src)
	if err == nil {
		t.Fatal("expected a validation error for duplicate binding")
	}
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "duplicate binding") {
			found = true
			if !strings.Contains(d.Help, "line") {
				t.Fatalf("expected duplicate diagnostic to reference the first definition's line, got %q", d.Help)
			}
		}
	}
	if !found {
		t.Fatalf("expected duplicate binding diagnostic, got %v", diags)
	}
}

func TestLoader_UnknownKeyName(t *testing.T) {
	src := `
[bindings.totally_bogus_key]
action = "media_play_pause"
`
	_, diags, err := NewLoader(testRegistry()).Load(src)
	if err == nil {
		t.Fatal("expected a validation error for unknown key name")
	}
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "unknown configuration key") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown key diagnostic, got %v", diags)
	}
}

func TestLoader_NoCatchAllWarning(t *testing.T) {
	src := `
[bindings.a]
action = [
    { condition = { window = { class = "firefox*" } }, action = "browser_back" },
]
`
	rc, diags, err := NewLoader(testRegistry()).Load(src)
	if err != nil {
		t.Fatalf("expected only a warning, got error: %v", err)
	}
	if rc == nil {
		t.Fatal("expected a RuntimeConfig despite the warning")
	}
	found := false
	for _, d := range diags {
		if d.Severity == SeverityWarning && strings.Contains(d.Message, "no unconditional fallback") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected no-catch-all warning, got %v", diags)
	}
}

func TestLoader_MultipleErrorsCollected(t *testing.T) {
	src := `
[bindings.totally_bogus]
action = "media_play_pause"

[bindings.a]
action = "another_bogus_action"
`
	_, diags, err := NewLoader(testRegistry()).Load(src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if countErrors(diags) < 2 {
		t.Fatalf("expected both errors collected without short-circuiting, got %v", diags)
	}
}

func TestLoader_WindowConditionMatching(t *testing.T) {
	wc := WindowCondition{Class: "firefox*", NotTitle: "*Private*"}
	if err := wc.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !wc.Matches(WindowInfo{Class: "firefox-esr", Title: "Example"}) {
		t.Fatal("expected match")
	}
	if wc.Matches(WindowInfo{Class: "firefox-esr", Title: "Private Browsing"}) {
		t.Fatal("expected not_title negation to exclude this window")
	}
	if wc.Matches(WindowInfo{Class: "chromium", Title: "Example"}) {
		t.Fatal("expected class mismatch to exclude this window")
	}
}
