package led

import (
	"fmt"

	"focusmute/internal/models"
	"focusmute/internal/schema"
)

// MuteSelection names which inputs the user wants mute indication on.
// It mirrors config.MuteInputsMode without importing internal/config, so
// that internal/config can import this package in one direction only.
type MuteSelection struct {
	// All, when true, selects every input; Indices is ignored.
	All bool
	// Indices are 0-indexed input numbers, used only when All is false.
	Indices []int
}

// MuteStrategy is the resolved mute visualization plan for one device.
//
// It targets specific input number LEDs via single-LED update
// (DATA_NOTIFY(8)). Only the number indicator LEDs ("1", "2", ...) change
// color; the metering halo rings and every other LED are left untouched.
type MuteStrategy struct {
	// InputIndices are the 0-indexed inputs this strategy indicates as muted.
	InputIndices []int
	// NumberLEDs holds the LED index of each muted input's number LED,
	// same length and order as InputIndices.
	NumberLEDs []uint8
	// MuteColors holds each muted input's color, same length as NumberLEDs.
	// Falls back to the global mute color when no per-input override exists.
	MuteColors []uint32
	// SelectedColor is the firmware color for the active input's number LED,
	// used when restoring LEDs on clear/exit.
	SelectedColor uint32
	// UnselectedColor is the firmware color for inactive input number LEDs.
	UnselectedColor uint32
}

func numberLEDsFromPredicted(predicted *schema.PredictedLayout) ([]int, []uint8, error) {
	var indices []int
	var leds []uint8
	inputIdx := 0
	for _, l := range predicted.LEDs {
		if l.Zone != schema.ZoneInputNumber {
			continue
		}
		if l.Index > 0xFF {
			return nil, nil, fmt.Errorf("LED index %d exceeds u8 range for input %d", l.Index, inputIdx+1)
		}
		indices = append(indices, inputIdx)
		leds = append(leds, uint8(l.Index))
		inputIdx++
	}
	return indices, leds, nil
}

// ResolveMuteStrategy resolves a MuteStrategy from the selected inputs, an
// optional hardcoded model profile, and an optional schema-predicted
// layout. It returns the strategy plus an optional human-readable warning
// (e.g. when falling back to a predicted, unconfirmed layout).
//
// Fallback chain: profile, then predicted layout, then error.
func ResolveMuteStrategy(
	selection MuteSelection,
	profile *models.Profile,
	predicted *schema.PredictedLayout,
	muteColor uint32,
	inputColors map[string]string,
) (MuteStrategy, string, error) {
	if selection.All {
		return resolveAll(profile, predicted, muteColor, inputColors)
	}
	return resolveSpecific(selection.Indices, profile, predicted, muteColor, inputColors)
}

func resolveAll(profile *models.Profile, predicted *schema.PredictedLayout, muteColor uint32, inputColors map[string]string) (MuteStrategy, string, error) {
	if profile != nil {
		inputIndices := make([]int, len(profile.InputHalos))
		numberLEDs := make([]uint8, len(profile.InputHalos))
		for i, h := range profile.InputHalos {
			if h.NumberLED > 0xFF {
				return MuteStrategy{}, "", fmt.Errorf("number_led %d exceeds u8 range for input %d", h.NumberLED, i+1)
			}
			inputIndices[i] = i
			numberLEDs[i] = uint8(h.NumberLED)
		}
		return MuteStrategy{
			InputIndices:    inputIndices,
			NumberLEDs:      numberLEDs,
			MuteColors:      buildMuteColors(inputIndices, muteColor, inputColors),
			SelectedColor:   profile.NumberLEDSelected,
			UnselectedColor: profile.NumberLEDUnselected,
		}, "", nil
	}

	if predicted != nil {
		inputIndices, numberLEDs, err := numberLEDsFromPredicted(predicted)
		if err != nil {
			return MuteStrategy{}, "", err
		}
		if len(inputIndices) == 0 {
			return MuteStrategy{}, "", fmt.Errorf("predicted layout has no input number LEDs; device not supported")
		}
		return MuteStrategy{
			InputIndices:    inputIndices,
			NumberLEDs:      numberLEDs,
			MuteColors:      buildMuteColors(inputIndices, muteColor, inputColors),
			SelectedColor:   models.DefaultNumberLEDSelected,
			UnselectedColor: models.DefaultNumberLEDUnselected,
		}, "using predicted LED layout (no hardcoded profile)", nil
	}

	return MuteStrategy{}, "", fmt.Errorf("unknown device with no schema; cannot determine number LED indices")
}

func resolveSpecific(indices []int, profile *models.Profile, predicted *schema.PredictedLayout, muteColor uint32, inputColors map[string]string) (MuteStrategy, string, error) {
	if profile != nil {
		var validIndices []int
		var numberLEDs []uint8
		for _, idx := range indices {
			if idx < 0 || idx >= len(profile.InputHalos) {
				continue
			}
			h := profile.InputHalos[idx]
			if h.NumberLED > 0xFF {
				return MuteStrategy{}, "", fmt.Errorf("number_led %d exceeds u8 range for input %d", h.NumberLED, idx+1)
			}
			validIndices = append(validIndices, idx)
			numberLEDs = append(numberLEDs, uint8(h.NumberLED))
		}
		if len(validIndices) == 0 {
			return MuteStrategy{}, "", fmt.Errorf("all specified input indices are out of range for this device")
		}
		return MuteStrategy{
			InputIndices:    validIndices,
			NumberLEDs:      numberLEDs,
			MuteColors:      buildMuteColors(validIndices, muteColor, inputColors),
			SelectedColor:   profile.NumberLEDSelected,
			UnselectedColor: profile.NumberLEDUnselected,
		}, "", nil
	}

	if predicted != nil {
		allIndices, allLEDs, err := numberLEDsFromPredicted(predicted)
		if err != nil {
			return MuteStrategy{}, "", err
		}
		var validIndices []int
		var numberLEDs []uint8
		for _, idx := range indices {
			for pos, i := range allIndices {
				if i == idx {
					validIndices = append(validIndices, idx)
					numberLEDs = append(numberLEDs, allLEDs[pos])
					break
				}
			}
		}
		if len(validIndices) == 0 {
			return MuteStrategy{}, "", fmt.Errorf("all specified input indices are out of range for predicted layout")
		}
		return MuteStrategy{
			InputIndices:    validIndices,
			NumberLEDs:      numberLEDs,
			MuteColors:      buildMuteColors(validIndices, muteColor, inputColors),
			SelectedColor:   models.DefaultNumberLEDSelected,
			UnselectedColor: models.DefaultNumberLEDUnselected,
		}, "using predicted LED layout (no hardcoded profile)", nil
	}

	return MuteStrategy{}, "", fmt.Errorf("per-input mute requires a known model profile or schema; device not supported")
}

// buildMuteColors derives each muted input's color from a 1-based
// input_colors override map, falling back to the global mute color when
// the key is absent or doesn't parse.
func buildMuteColors(inputIndices []int, globalMuteColor uint32, inputColors map[string]string) []uint32 {
	colors := make([]uint32, len(inputIndices))
	for i, idx := range inputIndices {
		colors[i] = globalMuteColor
		key := fmt.Sprintf("%d", idx+1)
		if raw, ok := inputColors[key]; ok {
			if c, err := ParseColor(raw); err == nil {
				colors[i] = c
			}
		}
	}
	return colors
}

// MuteColorOrDefault parses s as a color, falling back to red on failure.
func MuteColorOrDefault(s string) uint32 {
	if c, err := ParseColor(s); err == nil {
		return c
	}
	return 0xFF000000
}
