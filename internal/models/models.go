// Package models holds hardcoded LED layout profiles for Scarlett 4th Gen
// devices confirmed by hardware testing, alongside the generic fallback
// colors used when no profile (or no schema-derived layout) is available.
package models

import (
	"fmt"
	"strings"
)

// DefaultNumberLEDSelected is the firmware color for the currently-selected
// input's number LED, common across the whole 4th-gen family. The firmware
// drives number LEDs directly to hardware without updating directLEDValues,
// so the true value isn't readable from any descriptor; the raw firmware
// value appears to be 0x40FF0000 by observation, but that renders too
// light/washed-out when written back via DATA_NOTIFY(8) — 0x20FF0000 was
// chosen to match the visual appearance of the firmware's native green.
// Used as the fallback when no ModelProfile is available (predicted-layout
// path); the scarlett2i2 profile below uses the same selected value and
// differs only in its unselected color.
const DefaultNumberLEDSelected uint32 = 0x20FF0000

// DefaultNumberLEDUnselected is the firmware color for unselected input
// number LEDs, common across the family, used as the same predicted-layout
// fallback.
const DefaultNumberLEDUnselected uint32 = 0x88FFFF00

// HaloRange is the LED index range for one input or output halo.
type HaloRange struct {
	// NumberLED is the index of the number indicator LED ("1", "2", etc.).
	NumberLED int
	// SegStart and SegEnd bound the halo ring segment indices, end exclusive.
	SegStart, SegEnd int
}

func (h HaloRange) segLen() int { return h.SegEnd - h.SegStart }

// CacheDependentButton is a (LEDIndex, DefaultColor) pair for a button LED
// that reads its color from directLEDValues in mode 0: after direct LED
// mode, stale data may remain there, and writing the default plus
// DATA_NOTIFY(5) restores it.
type CacheDependentButton struct {
	LEDIndex     int
	DefaultColor uint32
}

// Profile is the LED layout for one confirmed Scarlett 4th Gen model.
type Profile struct {
	Name                string
	InputCount          int
	LEDCount            int
	InputHalos          []HaloRange
	OutputHaloStart     int
	OutputHaloEnd       int
	ButtonLabels        []string
	CacheDependentButtons []CacheDependentButton

	// NumberLEDSelected is this model's tuned color for the active input's
	// number LED, visually calibrated rather than the generic default.
	NumberLEDSelected uint32
	// NumberLEDUnselected is this model's tuned color for inactive inputs.
	NumberLEDUnselected uint32
}

var scarlett2i2InputHalos = []HaloRange{
	{NumberLED: 0, SegStart: 1, SegEnd: 8},  // Input 1
	{NumberLED: 8, SegStart: 9, SegEnd: 16}, // Input 2
}

// scarlett2i2CacheButtons lists default colors for the 2i2's cache-
// dependent button LEDs. Self-coloring buttons (Inst=28, 48V=29, Air=30,
// Safe=32, Direct=33-34,36) are driven by firmware directly and need no
// default here.
var scarlett2i2CacheButtons = []CacheDependentButton{
	{LEDIndex: 27, DefaultColor: 0x70808800}, // Select 1 — white (firmware value)
	{LEDIndex: 31, DefaultColor: 0x70808800}, // Auto — white (firmware value)
	{LEDIndex: 35, DefaultColor: 0x70808800}, // Select 2 — white (firmware value)
	{LEDIndex: 37, DefaultColor: 0x70808800}, // Output 1 — white (firmware value)
	{LEDIndex: 38, DefaultColor: 0x70808800}, // Output 2 — white (firmware value)
	{LEDIndex: 39, DefaultColor: 0x00380000}, // USB — green (firmware value)
}

var scarlett2i2 = Profile{
	Name:            "Scarlett 2i2 4th Gen",
	InputCount:      2,
	LEDCount:        40,
	InputHalos:      scarlett2i2InputHalos,
	OutputHaloStart: 16,
	OutputHaloEnd:   27,
	// Green (firmware is 0x40FF, adjusted to match visually).
	NumberLEDSelected: 0x20FF0000,
	// White (tuned to match firmware appearance) — distinct from the
	// family-wide DefaultNumberLEDUnselected, which is a more generic,
	// uncalibrated value used when no hardcoded profile exists at all.
	NumberLEDUnselected: 0xAAFFDD00,
	ButtonLabels: []string{
		"Select button LED 1",         // 27
		"Inst button",                 // 28
		"48V button",                  // 29
		"Air button",                  // 30
		"Auto button",                 // 31
		"Safe button",                 // 32
		"Direct button LED 1",         // 33
		"Direct button LED 2",         // 34
		"Select button LED 2",         // 35
		"Direct button crossed rings", // 36
		"Output indicator LED 1",      // 37
		"Output indicator LED 2",      // 38
		"USB symbol",                  // 39
	},
	CacheDependentButtons: scarlett2i2CacheButtons,
}

// Detect returns the hardcoded profile for modelName (the cleaned name,
// e.g. transport.DeviceInfo.Model(), with the serial suffix already
// stripped), case-insensitively, or false for any model the core has not
// been hardware-verified against — callers should fall back to the
// schema-predicted "all halos" layout.
func Detect(modelName string) (Profile, bool) {
	if strings.EqualFold(modelName, "Scarlett 2i2 4th Gen") {
		return scarlett2i2, true
	}
	return Profile{}, false
}

// Labels derives one label per LED index from a profile's halo ranges and
// a button name list, filling any leftover indices with a generic "LED N"
// fallback. buttonNames is usually profile.ButtonLabels, but callers may
// substitute a shorter or schema-derived list.
func Labels(p Profile, buttonNames []string) []string {
	labels := make([]string, p.LEDCount)

	for inputIdx, halo := range p.InputHalos {
		inputNum := inputIdx + 1
		if halo.NumberLED < p.LEDCount {
			labels[halo.NumberLED] = fmt.Sprintf(`Input %d — "%d" number`, inputNum, inputNum)
		}
		for segIdx := 0; segIdx < halo.segLen(); segIdx++ {
			ledIdx := halo.SegStart + segIdx
			if ledIdx < p.LEDCount {
				labels[ledIdx] = fmt.Sprintf("Input %d — Halo segment %d", inputNum, segIdx+1)
			}
		}
	}

	for segIdx := 0; segIdx < p.OutputHaloEnd-p.OutputHaloStart; segIdx++ {
		ledIdx := p.OutputHaloStart + segIdx
		if ledIdx < p.LEDCount {
			labels[ledIdx] = fmt.Sprintf("Output — Halo segment %d", segIdx+1)
		}
	}

	firstButton := p.OutputHaloEnd
	for btnIdx, name := range buttonNames {
		ledIdx := firstButton + btnIdx
		if ledIdx < p.LEDCount {
			labels[ledIdx] = name
		}
	}

	for i, label := range labels {
		if label == "" {
			labels[i] = fmt.Sprintf("LED %d", i)
		}
	}
	return labels
}
