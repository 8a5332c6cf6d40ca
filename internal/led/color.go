// Package led resolves and applies mute LED colors on a Scarlett 4th Gen
// device: parsing user-facing color strings, picking which LEDs represent
// which inputs, and writing the device descriptor fields that drive them.
package led

import (
	"fmt"
	"strconv"
	"strings"
)

var namedColors = map[string]uint32{
	"red":    0xFF000000,
	"green":  0x00FF0000,
	"blue":   0x0000FF00,
	"white":  0xFFFFFF00,
	"orange": 0xFF800000,
	"yellow": 0xFFFF0000,
	"purple": 0x8000FF00,
	"cyan":   0x00FFFF00,
	"off":    0x00000000,
	"black":  0x00000000,
}

// ParseColor parses a color string into the device format 0xRRGGBB00.
//
// Accepts hex ("#FF0000", "FF0000", "#ff0000") and the named colors red,
// green, blue, white, orange, yellow, purple, cyan, off, black.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)

	if v, ok := namedColors[strings.ToLower(s)]; ok {
		return v, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color: %s (use #RRGGBB or a color name)", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color: %s", s)
	}
	return uint32(val) << 8, nil
}

// FormatColor formats a device color value as "#RRGGBB".
func FormatColor(val uint32) string {
	r := (val >> 24) & 0xFF
	g := (val >> 16) & 0xFF
	b := (val >> 8) & 0xFF
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
