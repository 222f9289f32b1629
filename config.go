package rebinded

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Loader turns configuration file text into a validated RuntimeConfig. It
// holds the Key Registry for the running platform, since key specifier
// resolution is platform-dependent.
type Loader struct {
	Registry *Registry
}

// NewLoader constructs a Loader bound to the given Key Registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{Registry: registry}
}

// LoadFile reads and parses the configuration file at path.
func (l *Loader) LoadFile(path string) (*RuntimeConfig, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, NewStartupError(PhaseConfigIO, err)
	}
	return l.Load(string(data))
}

// rawDocument mirrors the top-level shape of the configuration grammar;
// the polymorphic "action" field (string or list-of-tables) is decoded
// generically below rather than through struct tags, since a single
// static Go type cannot represent both shapes with BurntSushi/toml.
type rawDocument struct {
	Strategies map[string]map[string]interface{} `toml:"strategies"`
	Bindings   map[string]map[string]interface{} `toml:"bindings"`
}

// Load parses configuration source text already in memory.
func (l *Loader) Load(src string) (*RuntimeConfig, []Diagnostic, error) {
	var raw rawDocument
	if _, err := toml.Decode(src, &raw); err != nil {
		return nil, nil, NewStartupError(PhaseConfigParse, err)
	}

	spans := buildSpanIndex(src)
	var diags []Diagnostic

	rc := &RuntimeConfig{
		Bindings:   make(map[KeyCode]*Binding),
		Strategies: make(map[string]*StrategyConfig),
	}

	strategyNames := make([]string, 0, len(raw.Strategies))
	for name := range raw.Strategies {
		strategyNames = append(strategyNames, name)
	}
	sort.Strings(strategyNames)

	for _, name := range strategyNames {
		table := raw.Strategies[name]
		sc, sdiags := l.parseStrategy(name, table, spans)
		diags = append(diags, sdiags...)
		if sc != nil {
			rc.Strategies[name] = sc
		}
	}

	seenKeys := make(map[KeyCode]Span)

	bindingKeys := make([]string, 0, len(raw.Bindings))
	for k := range raw.Bindings {
		bindingKeys = append(bindingKeys, k)
	}
	// Source order, so the "first defined" binding of a duplicate pair is
	// the one that appears earlier in the file.
	sort.Slice(bindingKeys, func(i, j int) bool {
		si, sj := spans.spanFor(bindingKeys[i]).Start, spans.spanFor(bindingKeys[j]).Start
		if si != sj {
			return si < sj
		}
		return bindingKeys[i] < bindingKeys[j]
	})

	for _, keySpec := range bindingKeys {
		table := raw.Bindings[keySpec]
		headerSpan := spans.spanFor(keySpec)

		code, err := l.Registry.ParseKeySpecifier(keySpec)
		if err != nil {
			diags = append(diags, DiagnosticUnknownKey(headerSpan, keySpec))
			continue
		}

		if firstSpan, dup := seenKeys[code]; dup {
			diags = append(diags, DiagnosticDuplicateBinding(headerSpan, keySpec, firstSpan, src))
			continue
		}
		seenKeys[code] = headerSpan

		spec, bdiags := l.parseActionSpec(keySpec, table, headerSpan)
		diags = append(diags, bdiags...)

		b := &Binding{
			Key:     code,
			KeyName: NewSpanned(keySpec, headerSpan),
			Action:  spec,
		}

		if strategyName, ok := table["strategy"].(string); ok {
			fieldSpan := spans.strategyFieldSpanFor(keySpec)
			spanned := NewSpanned(strategyName, fieldSpan)
			b.Strategy = &spanned
			if _, defined := rc.Strategies[strategyName]; !defined {
				diags = append(diags, DiagnosticUndefinedStrategy(fieldSpan, strategyName, strategyNames))
			}
		}

		rc.Bindings[code] = b
	}

	sort.Slice(diags, func(i, j int) bool {
		return diags[i].Span.Start < diags[j].Span.Start
	})

	for _, d := range diags {
		if d.Severity == SeverityError {
			return nil, diags, NewStartupError(PhaseConfigValidation, fmt.Errorf("%d validation error(s), first: %s", countErrors(diags), d.Message))
		}
	}

	return rc, diags, nil
}

func countErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

func (l *Loader) parseStrategy(name string, table map[string]interface{}, spans *spanIndex) (*StrategyConfig, []Diagnostic) {
	headerSpan := spans.strategySpanFor(name)
	kind, _ := table["type"].(string)
	switch kind {
	case "gated_hold":
		cfg := &GatedHoldConfig{
			InitialHold:  durationFromMs(table["initial_hold_ms"]),
			RepeatWindow: durationFromMs(table["repeat_window_ms"]),
		}
		if divertsRaw, ok := table["diverts"].(map[string]interface{}); ok {
			cfg.Diverts = make(map[string]string, len(divertsRaw))
			for k, v := range divertsRaw {
				if s, ok := v.(string); ok {
					cfg.Diverts[k] = s
				}
			}
		}
		return &StrategyConfig{Name: name, GatedHold: cfg}, nil
	default:
		return nil, []Diagnostic{{
			Severity: SeverityError,
			Message:  fmt.Sprintf("strategy %q has unknown type %q", name, kind),
			Span:     headerSpan,
			Help:     "supported strategy types: gated_hold",
		}}
	}
}

func durationFromMs(v interface{}) time.Duration {
	switch n := v.(type) {
	case int64:
		return time.Duration(n) * time.Millisecond
	case float64:
		return time.Duration(n) * time.Millisecond
	default:
		return 0
	}
}

// parseActionSpec handles both the simple string form ("action = \"...\"")
// and the conditional list-of-tables form.
func (l *Loader) parseActionSpec(keySpec string, table map[string]interface{}, headerSpan Span) (ActionSpec, []Diagnostic) {
	var diags []Diagnostic
	actionRaw, ok := table["action"]
	if !ok {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("binding for %q has no action", keySpec),
			Span:     headerSpan,
		})
		return ActionSpec{}, diags
	}

	switch v := actionRaw.(type) {
	case string:
		action, ok := ActionFromToken(v)
		if !ok {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Message:  fmt.Sprintf("binding for %q names unknown action %q", keySpec, v),
				Span:     headerSpan,
			})
			return ActionSpec{}, diags
		}
		return ActionSpec{Simple: action}, diags

	case []map[string]interface{}:
		spec := ActionSpec{}
		hasCatchAll := false
		for _, entry := range v {
			ca, cdiags := l.parseConditionalEntry(keySpec, entry, headerSpan)
			diags = append(diags, cdiags...)
			if isEmptyCondition(ca.Condition) {
				hasCatchAll = true
			}
			spec.Conditionals = append(spec.Conditionals, ca)
		}
		if !hasCatchAll {
			diags = append(diags, DiagnosticNoCatchAll(headerSpan, keySpec))
		}
		return spec, diags

	case []interface{}:
		entries := make([]map[string]interface{}, 0, len(v))
		for _, raw := range v {
			if m, ok := raw.(map[string]interface{}); ok {
				entries = append(entries, m)
			}
		}
		spec := ActionSpec{}
		hasCatchAll := false
		for _, entry := range entries {
			ca, cdiags := l.parseConditionalEntry(keySpec, entry, headerSpan)
			diags = append(diags, cdiags...)
			if isEmptyCondition(ca.Condition) {
				hasCatchAll = true
			}
			spec.Conditionals = append(spec.Conditionals, ca)
		}
		if !hasCatchAll {
			diags = append(diags, DiagnosticNoCatchAll(headerSpan, keySpec))
		}
		return spec, diags

	default:
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("binding for %q has an action value of an unsupported type", keySpec),
			Span:     headerSpan,
		})
		return ActionSpec{}, diags
	}
}

func isEmptyCondition(c Condition) bool {
	w := c.Window
	return w.Title == "" && w.NotTitle == "" && w.Class == "" && w.NotClass == "" && w.Binary == "" && w.NotBinary == ""
}

func (l *Loader) parseConditionalEntry(keySpec string, entry map[string]interface{}, headerSpan Span) (ConditionalAction, []Diagnostic) {
	var diags []Diagnostic
	var ca ConditionalAction

	if condRaw, ok := entry["condition"].(map[string]interface{}); ok {
		if winRaw, ok := condRaw["window"].(map[string]interface{}); ok {
			ca.Condition.Window = parseWindowCondition(winRaw)
		}
	}
	if err := ca.Condition.Compile(); err != nil {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("binding for %q: %v", keySpec, err),
			Span:     headerSpan,
		})
	}

	actionToken, _ := entry["action"].(string)
	action, ok := ActionFromToken(actionToken)
	if !ok {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("binding for %q names unknown conditional action %q", keySpec, actionToken),
			Span:     headerSpan,
		})
	}
	ca.Action = action
	return ca, diags
}

func parseWindowCondition(m map[string]interface{}) WindowCondition {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return WindowCondition{
		Title:     str("title"),
		NotTitle:  str("not_title"),
		Class:     str("class"),
		NotClass:  str("not_class"),
		Binary:    str("binary"),
		NotBinary: str("not_binary"),
	}
}
