package rebinded

import (
	"regexp"
	"strings"
)

// spanIndex supplements BurntSushi/toml's decode (which discards byte
// positions for values it successfully parses) with just enough source
// location tracking to give diagnostics a useful Span: the header line of
// each [bindings.<key>] / [strategies.<name>] table, and the line of a
// "strategy = " field inside a binding table. This is a pragmatic
// substitute for the original loader's full span-preserving parse; it
// covers every place this loader currently raises a Diagnostic.
type spanIndex struct {
	bindingHeader  map[string]Span
	strategyHeader map[string]Span
	bindingStrategyField map[string]Span
}

var reBindingHeader = regexp.MustCompile(`^\s*\[bindings\.([^\]\.]+)\]\s*$`)
var reStrategyHeader = regexp.MustCompile(`^\s*\[strategies\.([^\]\.]+)\]\s*$`)
var reStrategyField = regexp.MustCompile(`^\s*strategy\s*=`)

// buildSpanIndex scans the raw source text line by line. It is a textual
// scan, not a TOML parse, so a line inside a multi-line string that looks
// like a table header is taken for one; configuration files for this
// daemon are not expected to contain such strings.
func buildSpanIndex(src string) *spanIndex {
	idx := &spanIndex{
		bindingHeader:        make(map[string]Span),
		strategyHeader:       make(map[string]Span),
		bindingStrategyField: make(map[string]Span),
	}
	offset := 0
	currentBindingKey := ""
	lines := strings.SplitAfter(src, "\n")
	for _, line := range lines {
		lineStart := offset
		lineEnd := offset + len(line)
		offset = lineEnd

		if m := reBindingHeader.FindStringSubmatch(line); m != nil {
			currentBindingKey = unquoteTOMLKey(m[1])
			idx.bindingHeader[currentBindingKey] = Span{Start: lineStart, End: lineEnd}
			continue
		}
		if m := reStrategyHeader.FindStringSubmatch(line); m != nil {
			name := unquoteTOMLKey(m[1])
			idx.strategyHeader[name] = Span{Start: lineStart, End: lineEnd}
			currentBindingKey = ""
			continue
		}
		if currentBindingKey != "" && reStrategyField.MatchString(line) {
			idx.bindingStrategyField[currentBindingKey] = Span{Start: lineStart, End: lineEnd}
		}
	}
	return idx
}

func unquoteTOMLKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"'`)
	return key
}

// spanFor returns the best span known for a binding key, falling back to
// a zero span (offset 0) if the textual scan didn't find a header for it
// (which should not happen for a binding the TOML decode itself produced,
// but a zero span degrades gracefully instead of panicking).
func (idx *spanIndex) spanFor(bindingKey string) Span {
	if s, ok := idx.bindingHeader[bindingKey]; ok {
		return s
	}
	return Span{}
}

func (idx *spanIndex) strategySpanFor(name string) Span {
	if s, ok := idx.strategyHeader[name]; ok {
		return s
	}
	return Span{}
}

func (idx *spanIndex) strategyFieldSpanFor(bindingKey string) Span {
	if s, ok := idx.bindingStrategyField[bindingKey]; ok {
		return s
	}
	return idx.spanFor(bindingKey)
}
