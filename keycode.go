package rebinded

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyCode identifies a physical key using the platform driver's native
// numbering (Linux evdev KEY_* codes, Windows virtual-key codes). It is
// intentionally not portable across platforms on its own; the Key Registry
// maps names to and from the *running platform's* codes, so a config file
// written on Linux and run on Windows will simply fail symbol lookups for
// names the other platform's registry doesn't recognize, rather than
// silently remapping to the wrong physical key.
type KeyCode uint32

// String renders the raw code, used when no symbolic name is known for it.
func (k KeyCode) String() string {
	return fmt.Sprintf("0x%x", uint32(k))
}

// Registry maps between key names (as used in configuration files) and
// the KeyCode values the current platform driver produces. A Registry is
// built once per platform at startup and is read-only thereafter, so it
// requires no locking.
type Registry struct {
	byName map[string]KeyCode
	byCode map[KeyCode]string
}

// NewRegistry builds a Registry from a platform-specific name table. Names
// are case-insensitive; the first spelling registered for a given code is
// used as its canonical display name.
func NewRegistry(table map[string]KeyCode) *Registry {
	r := &Registry{
		byName: make(map[string]KeyCode, len(table)),
		byCode: make(map[KeyCode]string, len(table)),
	}
	for name, code := range table {
		lower := strings.ToLower(name)
		r.byName[lower] = code
		if _, ok := r.byCode[code]; !ok {
			r.byCode[code] = name
		}
	}
	return r
}

// Lookup resolves a symbolic key name (e.g. "A", "F5", "LeftCtrl") to its
// platform KeyCode. Lookup is case-insensitive.
func (r *Registry) Lookup(name string) (KeyCode, bool) {
	code, ok := r.byName[strings.ToLower(name)]
	return code, ok
}

// Name returns the canonical display name for a code, or its raw hex form
// if the registry has no symbolic name for it.
func (r *Registry) Name(code KeyCode) string {
	if name, ok := r.byCode[code]; ok {
		return name
	}
	return code.String()
}

// ParseKeySpecifier resolves a key specifier from a configuration file: a
// bare decimal or 0x-prefixed hexadecimal number is taken as a raw KeyCode,
// otherwise the string is looked up by name in the registry. This mirrors
// the specifier grammar of the original implementation (numeric override
// escape hatch, name lookup otherwise).
func (r *Registry) ParseKeySpecifier(spec string) (KeyCode, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("empty key specifier")
	}
	if strings.HasPrefix(spec, "0x") || strings.HasPrefix(spec, "0X") {
		n, err := strconv.ParseUint(spec[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid hex key specifier %q: %w", spec, err)
		}
		return KeyCode(n), nil
	}
	if isAllDigits(spec) {
		n, err := strconv.ParseUint(spec, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric key specifier %q: %w", spec, err)
		}
		return KeyCode(n), nil
	}
	if code, ok := r.Lookup(spec); ok {
		return code, nil
	}
	return 0, fmt.Errorf("unrecognized key name %q", spec)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
