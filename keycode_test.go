package rebinded

import "testing"

func TestRegistry_LookupCaseInsensitive(t *testing.T) {
	r := NewRegistry(map[string]KeyCode{"LeftCtrl": 29})
	code, ok := r.Lookup("leftctrl")
	if !ok || code != 29 {
		t.Fatalf("expected case-insensitive lookup to find code 29, got %v, %v", code, ok)
	}
	if r.Name(29) != "LeftCtrl" {
		t.Fatalf("expected canonical name LeftCtrl, got %q", r.Name(29))
	}
}

func TestRegistry_ParseKeySpecifier(t *testing.T) {
	r := NewRegistry(map[string]KeyCode{"a": 30})

	cases := []struct {
		spec string
		want KeyCode
		ok   bool
	}{
		{"a", 30, true},
		{"A", 30, true},
		{"0x1e", 30, true},
		{"30", 30, true},
		{"nonexistent", 0, false},
	}
	for _, c := range cases {
		got, err := r.ParseKeySpecifier(c.spec)
		if c.ok && err != nil {
			t.Errorf("%q: unexpected error: %v", c.spec, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%q: expected error, got none", c.spec)
		}
		if c.ok && got != c.want {
			t.Errorf("%q: got %v, want %v", c.spec, got, c.want)
		}
	}
}

func TestRegistry_UnknownCodeFallsBackToHex(t *testing.T) {
	r := NewRegistry(nil)
	if got := r.Name(0x2a); got != "0x2a" {
		t.Fatalf("expected hex fallback for unknown code, got %q", got)
	}
}
