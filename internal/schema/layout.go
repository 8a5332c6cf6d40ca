package schema

import (
	"fmt"

	"focusmute/internal/protocol"
)

// HaloSegmentsPerInput is a hardware constant across the 4th-gen family.
const HaloSegmentsPerInput = 7

// LEDsPerInput is 1 number indicator LED plus its halo segments.
const LEDsPerInput = 1 + HaloSegmentsPerInput

// Confidence grades how certain a predicted LED label is.
type Confidence int

const (
	// ConfidenceHigh means confirmed by a hardcoded profile or deterministic layout math.
	ConfidenceHigh Confidence = iota
	// ConfidenceMedium means inferred from schema hints with reasonable certainty.
	ConfidenceMedium
	// ConfidenceLow means the position is known but the label is a best guess.
	ConfidenceLow
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "confirmed"
	case ConfidenceMedium:
		return "predicted"
	default:
		return "unknown"
	}
}

// Zone names which region of the device an LED belongs to.
type Zone int

const (
	ZoneInputNumber Zone = iota
	ZoneInputHalo
	ZoneOutputHalo
	ZoneButton
)

// PredictedLED is one entry in a PredictedLayout.
type PredictedLED struct {
	Index      int
	Label      string
	Confidence Confidence
	Zone       Zone
}

// PredictedLayout is the full inferred LED map for a device.
type PredictedLayout struct {
	ProductName        string
	TotalLEDs          int
	InputCount         int
	OutputHaloSegments int
	FirstButtonIndex   int
	ButtonCount        int
	LEDs               []PredictedLED
}

// mediumConfidenceCount is how many of the known Scarlett 2i2 button labels
// are schema-verifiable (Medium) versus purely hardware-specific (Low),
// used only as the no-schema-hints fallback sequence.
const mediumConfidenceCount = 9

// knownButtonLabels is the confirmed Scarlett 2i2 4th Gen button sequence,
// used as the fallback when a schema carries no control or APP_SPACE hints
// at all. Grounded on layout.rs's known_button_labels(), which itself reads
// the hardcoded 2i2 ModelProfile rather than duplicating the list; this
// package keeps its own copy instead of importing internal/models.
var knownButtonLabels = []string{
	"Select button LED 1",
	"Inst button",
	"48V button",
	"Air button",
	"Auto button",
	"Safe button",
	"Direct button LED 1",
	"Direct button LED 2",
	"Select button LED 2",
	"Direct button crossed rings",
	"Output indicator LED 1",
	"Output indicator LED 2",
	"USB symbol",
}

// Predict infers the halo LED layout and best-effort button labels from
// extracted schema constants. Grounded on layout.rs's predict_layout.
func Predict(c Constants) (PredictedLayout, error) {
	totalLEDs := c.MaxLEDs
	inputCount := c.MaxInputs
	totalInputLEDs := inputCount * LEDsPerInput

	var outputHaloSegments int
	if c.MeteringSegments > 0 {
		inputHaloTotal := inputCount * HaloSegmentsPerInput
		if c.MeteringSegments < inputHaloTotal {
			return PredictedLayout{}, protocol.Protocol(fmt.Sprintf(
				"metering_segments (%d) < input halo total (%d×%d = %d)",
				c.MeteringSegments, inputCount, HaloSegmentsPerInput, inputHaloTotal))
		}
		outputHaloSegments = c.MeteringSegments - inputHaloTotal
	} else {
		outputHaloSegments = c.GradientCount
	}

	firstButtonIndex := totalInputLEDs + outputHaloSegments
	if firstButtonIndex > totalLEDs {
		return PredictedLayout{}, protocol.Protocol(fmt.Sprintf(
			"computed halo LEDs (%d) exceed total LEDs (%d): %d inputs × %d + %d output segments",
			firstButtonIndex, totalLEDs, inputCount, LEDsPerInput, outputHaloSegments))
	}
	buttonCount := totalLEDs - firstButtonIndex

	leds := make([]PredictedLED, 0, totalLEDs)

	for inputIdx := 0; inputIdx < inputCount; inputIdx++ {
		base := inputIdx * LEDsPerInput
		leds = append(leds, PredictedLED{
			Index:      base,
			Label:      fmt.Sprintf(`Input %d — "%d" number`, inputIdx+1, inputIdx+1),
			Confidence: ConfidenceHigh,
			Zone:       ZoneInputNumber,
		})
		for seg := 1; seg <= HaloSegmentsPerInput; seg++ {
			leds = append(leds, PredictedLED{
				Index:      base + seg,
				Label:      fmt.Sprintf("Input %d — Halo segment %d", inputIdx+1, seg),
				Confidence: ConfidenceHigh,
				Zone:       ZoneInputHalo,
			})
		}
	}

	for seg := 1; seg <= outputHaloSegments; seg++ {
		leds = append(leds, PredictedLED{
			Index:      totalInputLEDs + seg - 1,
			Label:      fmt.Sprintf("Output — Halo segment %d", seg),
			Confidence: ConfidenceHigh,
			Zone:       ZoneOutputHalo,
		})
	}

	buttonLabels := inferButtonLabels(buttonCount, c.InputControls, c.AppSpaceFeatures)
	for i, bl := range buttonLabels {
		leds = append(leds, PredictedLED{
			Index:      firstButtonIndex + i,
			Label:      bl.label,
			Confidence: bl.confidence,
			Zone:       ZoneButton,
		})
	}

	return PredictedLayout{
		ProductName:        c.ProductName,
		TotalLEDs:          totalLEDs,
		InputCount:         inputCount,
		OutputHaloSegments: outputHaloSegments,
		FirstButtonIndex:   firstButtonIndex,
		ButtonCount:        buttonCount,
		LEDs:               leds,
	}, nil
}

type labeledConfidence struct {
	label      string
	confidence Confidence
}

func inferButtonLabels(buttonCount int, inputControls, appSpaceFeatures []string) []labeledConfidence {
	has := func(list []string, want string) bool {
		for _, v := range list {
			if v == want {
				return true
			}
		}
		return false
	}

	var expected []labeledConfidence
	if has(appSpaceFeatures, "selectedInput") {
		expected = append(expected, labeledConfidence{"Select button LED 1", ConfidenceMedium})
	}
	if has(inputControls, "instrument") {
		expected = append(expected, labeledConfidence{"Inst button", ConfidenceMedium})
	}
	if has(inputControls, "phantom-power") {
		expected = append(expected, labeledConfidence{"48V button", ConfidenceMedium})
	}
	if has(inputControls, "air") {
		expected = append(expected, labeledConfidence{"Air button", ConfidenceMedium})
	}
	if has(inputControls, "auto-gain") {
		expected = append(expected, labeledConfidence{"Auto button", ConfidenceMedium})
	}
	if has(inputControls, "clip-safe") {
		expected = append(expected, labeledConfidence{"Safe button", ConfidenceMedium})
	}
	if has(appSpaceFeatures, "directMonitoring") {
		expected = append(expected, labeledConfidence{"Direct button LED 1", ConfidenceMedium})
		expected = append(expected, labeledConfidence{"Direct button LED 2", ConfidenceMedium})
	}
	if has(appSpaceFeatures, "selectedInput") {
		expected = append(expected, labeledConfidence{"Select button LED 2", ConfidenceMedium})
	}
	if has(appSpaceFeatures, "directMonitoring") {
		expected = append(expected, labeledConfidence{"Direct button crossed rings", ConfidenceLow})
	}
	expected = append(expected,
		labeledConfidence{"Output indicator LED 1", ConfidenceLow},
		labeledConfidence{"Output indicator LED 2", ConfidenceLow},
		labeledConfidence{"USB symbol", ConfidenceLow},
	)

	if len(inputControls) == 0 && len(appSpaceFeatures) == 0 {
		result := make([]labeledConfidence, 0, buttonCount)
		for i := 0; i < buttonCount; i++ {
			if i < len(knownButtonLabels) {
				conf := ConfidenceMedium
				if i >= mediumConfidenceCount {
					conf = ConfidenceLow
				}
				result = append(result, labeledConfidence{knownButtonLabels[i], conf})
			} else {
				result = append(result, labeledConfidence{fmt.Sprintf("Button/indicator LED %d", i+1), ConfidenceLow})
			}
		}
		return result
	}

	result := make([]labeledConfidence, 0, buttonCount)
	for i := 0; i < buttonCount; i++ {
		if i < len(expected) {
			result = append(result, expected[i])
		} else {
			result = append(result, labeledConfidence{fmt.Sprintf("Button/indicator LED %d", i+1), ConfidenceLow})
		}
	}
	return result
}

// ResolveLabels combines hardcoded labels, a predicted layout, and generic
// "LED N" fallbacks into one label per index in [0, totalLEDs). Priority:
// hardcoded (High) over predicted over a label-only fallback with no
// confidence. hardcoded may be shorter than totalLEDs or nil.
func ResolveLabels(hardcoded []string, predicted *PredictedLayout, totalLEDs int) []ResolvedLabel {
	predictedByIndex := make([]*PredictedLED, totalLEDs)
	if predicted != nil {
		for i := range predicted.LEDs {
			led := &predicted.LEDs[i]
			if led.Index < totalLEDs {
				predictedByIndex[led.Index] = led
			}
		}
	}

	out := make([]ResolvedLabel, totalLEDs)
	for i := 0; i < totalLEDs; i++ {
		if i < len(hardcoded) {
			out[i] = ResolvedLabel{Label: hardcoded[i], Confidence: ConfidenceHigh, HasConfidence: true}
			continue
		}
		if led := predictedByIndex[i]; led != nil {
			out[i] = ResolvedLabel{Label: led.Label, Confidence: led.Confidence, HasConfidence: true}
			continue
		}
		out[i] = ResolvedLabel{Label: fmt.Sprintf("LED %d", i)}
	}
	return out
}

// ResolvedLabel is one entry from ResolveLabels. HasConfidence is false
// only for the generic "LED N" fallback, mirroring the Rust Option<Confidence>.
type ResolvedLabel struct {
	Label         string
	Confidence    Confidence
	HasConfidence bool
}
