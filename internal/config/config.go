// Package config defines the validated configuration shape that external
// callers (the CLI, a future tray app) must produce to drive the core.
// Loading and persisting that shape from an on-disk format (TOML, in the
// original application) is out of this module's scope; this package only
// defines the struct and validates it against an active model profile.
package config

import (
	"fmt"
	"sort"
	"strings"

	"focusmute/internal/led"
	"focusmute/internal/models"
)

// MuteInputsMode selects which inputs the mute indicator targets.
type MuteInputsMode struct {
	// All, when true, targets every input; Indices is ignored.
	All bool
	// Indices holds explicit, 0-indexed input numbers, used only when
	// All is false.
	Indices []int
}

func (m MuteInputsMode) String() string {
	if m.All {
		return "all"
	}
	names := make([]string, len(m.Indices))
	for i, idx := range m.Indices {
		names[i] = fmt.Sprintf("%d", idx+1)
	}
	return fmt.Sprintf("%s (per-input)", strings.Join(names, ", "))
}

// ToSelection converts this mode into the led package's input-selection
// type, which ResolveMuteStrategy consumes.
func (m MuteInputsMode) ToSelection() led.MuteSelection {
	return led.MuteSelection{All: m.All, Indices: m.Indices}
}

// Config is the validated option set the core consumes. It mirrors the
// External Interfaces option list field-for-field; values here are
// already parsed (colors as device words, not strings), since parsing
// user-facing config formats is a concern of the out-of-scope loader.
type Config struct {
	// MuteColor is the global mute indicator color, device format 0xRRGGBB00.
	MuteColor uint32
	// InputColors overrides MuteColor for specific 0-indexed inputs.
	InputColors map[uint16]uint32
	// MuteInputs selects which inputs the indicator targets.
	MuteInputs MuteInputsMode
	// DeviceSerial prefers a specific device when more than one is
	// attached. Empty selects the first match.
	DeviceSerial string
	// Hotkey is the global hotkey string (e.g. "Ctrl+Shift+M"), owned and
	// registered outside the core; only carried here as passthrough.
	Hotkey string

	// Passthrough fields: not checked by Validate and never read by
	// anything in this module. A future loader has somewhere to
	// put them.
	NotificationsEnabled bool
	SoundEnabled         bool
	MuteSoundPath        string
	UnmuteSoundPath      string
	OnMuteCommand        string
	OnUnmuteCommand      string
	Autostart            bool
}

// Validate checks InputColors keys and any explicit MuteInputs set
// against profile's input range, returning every problem found.
func Validate(c Config, profile models.Profile) error {
	var problems []string

	inputCount := uint16(profile.InputCount)
	keys := make([]uint16, 0, len(c.InputColors))
	for k := range c.InputColors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if k >= inputCount {
			problems = append(problems, fmt.Sprintf("input_colors: input %d is out of range (device has %d inputs)", k+1, inputCount))
		}
	}

	if !c.MuteInputs.All {
		for _, idx := range c.MuteInputs.Indices {
			if idx < 0 || idx >= profile.InputCount {
				problems = append(problems, fmt.Sprintf("mute_inputs: input %d is out of range (device has %d inputs)", idx+1, profile.InputCount))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}
