// Package keymap maps host keyboard keys to the 16 key hex pad.
//
// The layout uses the left block of a QWERTY keyboard:
//
//	1 2 3 4     1 2 3 C
//	Q W E R  -> 4 5 6 D
//	A S D F     7 8 9 E
//	Z X C V     A 0 B F
package keymap

import "strings"

var layout = map[string]int{
	"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
	"q": 0x4, "w": 0x5, "e": 0x6, "r": 0xD,
	"a": 0x7, "s": 0x8, "d": 0x9, "f": 0xE,
	"z": 0xA, "x": 0x0, "c": 0xB, "v": 0xF,
}

// Lookup returns the pad key for a host key name, the name is not case
// sensitive.
func Lookup(name string) (int, bool) {
	key, ok := layout[strings.ToLower(name)]
	return key, ok
}

// HostKey returns the host key name that is mapped to a pad key.
func HostKey(pad int) (string, bool) {
	for name, key := range layout {
		if key == pad {
			return name, true
		}
	}
	return "", false
}
