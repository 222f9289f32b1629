//go:build windows

package rebinded

import "fmt"

// windowsKeyTable is the Windows Key Registry's native name table, keyed
// by the standard virtual-key (VK_*) constants from winuser.h. As with
// linuxKeyTable it covers the common letter/digit/function-key range
// rather than the full VK space; SupplementaryKeyTable adds the scroll
// wheel names.
func windowsKeyTable() map[string]KeyCode {
	table := map[string]KeyCode{
		"backspace": 0x08, "tab": 0x09, "enter": 0x0D, "shift": 0x10,
		"ctrl": 0x11, "alt": 0x12, "pause": 0x13, "capslock": 0x14,
		"esc": 0x1B, "space": 0x20, "pageup": 0x21, "pagedown": 0x22,
		"end": 0x23, "home": 0x24, "left": 0x25, "up": 0x26, "right": 0x27,
		"down": 0x28, "insert": 0x2D, "delete": 0x2E,
		"leftctrl": 0xA2, "rightctrl": 0xA3, "leftalt": 0xA4, "rightalt": 0xA5,
		"leftshift": 0xA0, "rightshift": 0xA1, "leftmeta": 0x5B, "rightmeta": 0x5C,

		"volumemute": 0xAD, "volumedown": 0xAE, "volumeup": 0xAF,
		"medianext": 0xB0, "mediaprev": 0xB1, "mediastop": 0xB2, "playpause": 0xB3,
		"browserback": 0xA6, "browserforward": 0xA7,
	}
	for i := 0; i < 26; i++ {
		table[string(rune('a'+i))] = KeyCode(0x41 + i)
	}
	for i := 0; i < 10; i++ {
		table[string(rune('0'+i))] = KeyCode(0x30 + i)
	}
	for i := 1; i <= 24; i++ {
		table[fmt.Sprintf("f%d", i)] = KeyCode(0x70 + i - 1)
	}
	return table
}
