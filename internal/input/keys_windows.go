//go:build windows

package input

import "fmt"

const (
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkCapital = 0x14
)

// vkNames maps virtual-key codes to the symbolic names stored in recordings.
var vkNames = map[uint32]string{
	0x08: "backspace",
	0x09: "tab",
	0x0C: "clear",
	0x0D: "enter",
	0x10: "shift",
	0x11: "ctrl",
	0x12: "alt",
	0x13: "pause",
	0x14: "caps_lock",
	0x1B: "esc",
	0x20: "space",
	0x21: "page_up",
	0x22: "page_down",
	0x23: "end",
	0x24: "home",
	0x25: "left",
	0x26: "up",
	0x27: "right",
	0x28: "down",
	0x2C: "print_screen",
	0x2D: "insert",
	0x2E: "delete",
	0x5B: "cmd",
	0x5C: "cmd_r",
	0x5D: "menu",
	0x90: "num_lock",
	0x91: "scroll_lock",
	0xA0: "shift_l",
	0xA1: "shift_r",
	0xA2: "ctrl_l",
	0xA3: "ctrl_r",
	0xA4: "alt_l",
	0xA5: "alt_gr",
	0xAD: "media_volume_mute",
	0xAE: "media_volume_down",
	0xAF: "media_volume_up",
	0xB0: "media_next",
	0xB1: "media_previous",
	0xB3: "media_play_pause",
}

// extendedKeys need KEYEVENTF_EXTENDEDKEY when injected, otherwise Windows
// treats them as their numpad twins.
var extendedKeys = map[uint16]bool{
	0x21: true, 0x22: true, 0x23: true, 0x24: true,
	0x25: true, 0x26: true, 0x27: true, 0x28: true,
	0x2C: true, 0x2D: true, 0x2E: true,
	0x5B: true, 0x5C: true, 0x5D: true,
	0x90: true, 0xA3: true, 0xA5: true,
}

var vkByName map[string]uint16

func init() {
	for i := 1; i <= 24; i++ {
		vkNames[uint32(0x70+i-1)] = fmt.Sprintf("f%d", i)
	}
	vkByName = make(map[string]uint16, len(vkNames)+2)
	for code, name := range vkNames {
		vkByName[name] = uint16(code)
	}
	vkByName["cmd_l"] = 0x5B
	vkByName["alt_r"] = 0xA5
}
