//go:build darwin

package rebinded

// darwinKeyTable maps common key names to the macOS virtual keycodes
// defined in Carbon's HIToolbox/Events.h (kVK_ANSI_* etc.), which is what
// CGEventGetIntegerValueField(kCGKeyboardEventKeycode) reports.
func darwinKeyTable() map[string]KeyCode {
	return map[string]KeyCode{
		"a": 0x00, "s": 0x01, "d": 0x02, "f": 0x03, "h": 0x04, "g": 0x05,
		"z": 0x06, "x": 0x07, "c": 0x08, "v": 0x09, "b": 0x0B,
		"q": 0x0C, "w": 0x0D, "e": 0x0E, "r": 0x0F, "y": 0x10, "t": 0x11,
		"1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15, "6": 0x16, "5": 0x17,
		"equal": 0x18, "9": 0x19, "7": 0x1A, "minus": 0x1B, "8": 0x1C, "0": 0x1D,
		"o": 0x1F, "u": 0x20, "i": 0x22, "p": 0x23,
		"enter": 0x24, "l": 0x25, "j": 0x26, "k": 0x28,
		"n": 0x2D, "m": 0x2E, "tab": 0x30, "space": 0x31,
		"backspace": 0x33, "esc": 0x35,
		"leftmeta": 0x37, "rightmeta": 0x36,
		"leftshift": 0x38, "capslock": 0x39, "leftalt": 0x3A, "leftctrl": 0x3B,
		"rightshift": 0x3C, "rightalt": 0x3D, "rightctrl": 0x3E,
		"left": 0x7B, "right": 0x7C, "down": 0x7D, "up": 0x7E,
		"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60,
		"f6": 0x61, "f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D,
		"f11": 0x67, "f12": 0x6F,
	}
}

// NewPlatformRegistry returns the Key Registry for the running platform.
func NewPlatformRegistry() *Registry {
	return NewRegistry(mergeKeyTables(darwinKeyTable(), SupplementaryKeyTable()))
}
