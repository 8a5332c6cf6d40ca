// Package schema extracts a device's firmware self-description: the
// INFO_DEVMAP/GET_DEVMAP page sequence, the base64+zlib JSON blob it
// carries, and the model constants a caller needs for safe multi-model LED
// and layout support.
package schema

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"focusmute/internal/protocol"
	"focusmute/internal/transport"
)

// Constants extracted from the firmware schema for a specific model.
type Constants struct {
	ProductName string `json:"product_name"`

	// MaxLEDs is kMAX_NUMBER_LEDS from enums.maximum_array_sizes.
	MaxLEDs int `json:"max_leds"`
	// MaxInputs is kMAX_NUMBER_INPUTS.
	MaxInputs int `json:"max_inputs"`
	// MaxOutputs is kMAX_NUMBER_OUTPUTS.
	MaxOutputs int `json:"max_outputs"`

	// GradientCount is LEDcolors array-shape[0].
	GradientCount int `json:"gradient_count"`
	// GradientOffset is the LEDcolors descriptor offset.
	GradientOffset uint32 `json:"gradient_offset"`
	// GradientNotify is the LEDcolors notify-device event id.
	GradientNotify uint32 `json:"gradient_notify"`

	// DirectLEDCount is directLEDValues array-shape[0].
	DirectLEDCount int `json:"direct_led_count"`
	// DirectLEDOffset is the directLEDValues descriptor offset.
	DirectLEDOffset uint32 `json:"direct_led_offset"`

	// MeteringSegments is kNUMBER_METERING_SEGMENTS, 0 if absent.
	MeteringSegments int `json:"metering_segments"`

	// InputControls lists physical-inputs[0].controls keys, best effort.
	InputControls []string `json:"input_controls"`
	// AppSpaceFeatures lists APP_SPACE member names implying front-panel
	// buttons; only "directMonitoring" and "selectedInput" are collected.
	AppSpaceFeatures []string `json:"app_space_features"`

	// FirmwareVersion is stamped by the caller after extraction, for cache
	// invalidation keying.
	FirmwareVersion string `json:"firmware_version"`
}

// MaxSchemaBase64 bounds the trimmed base64 content read off the device;
// real schemas are around 34KB. A larger value indicates a corrupt or
// hostile INFO_DEVMAP response.
const MaxSchemaBase64 = 100_000

// MaxSchemaDecompressed bounds the zlib output, protecting against a
// firmware response that claims to decompress to an unbounded size.
const MaxSchemaDecompressed = 1_048_576

// ReadRaw pulls the devmap page sequence and concatenates their payloads,
// trimmed to the declared content length. Grounded on schema.rs's
// read_schema_raw: INFO_DEVMAP reports config_len at payload offset 2 (10
// counting the 8-byte transact header already stripped by Transport), then
// GET_DEVMAP is issued once per 1024-byte page.
func ReadRaw(t transport.Transport) ([]byte, error) {
	infoResp, err := t.Transact(protocol.CmdInfoDevmap, nil, 12)
	if err != nil {
		return nil, err
	}
	if len(infoResp) < 4 {
		return nil, protocol.Protocol(fmt.Sprintf("INFO_DEVMAP response too short: %d bytes", len(infoResp)))
	}
	totalSize := int(binary.LittleEndian.Uint16(infoResp[2:4]))
	if totalSize == 0 {
		return nil, protocol.Protocol("INFO_DEVMAP returned config_len 0")
	}

	pageCount := (totalSize + protocol.DevmapPageSize - 1) / protocol.DevmapPageSize
	raw := make([]byte, 0, totalSize)
	for page := 0; page < pageCount; page++ {
		resp, err := t.Transact(protocol.CmdGetDevmap, protocol.DevmapPagePayload(uint32(page)), protocol.DevmapResponseSize)
		if err != nil {
			return nil, err
		}
		raw = append(raw, resp...)
	}
	if len(raw) > totalSize {
		raw = raw[:totalSize]
	}
	return raw, nil
}

// Decode turns raw devmap bytes into the schema JSON text. It tries
// base64-then-zlib first (some firmware versions), falling back to raw
// zlib with no base64 layer (observed on Scarlett 2i2 4th Gen fw 2.x),
// matching schema.rs's decode_schema dual-attempt behavior exactly.
func Decode(raw []byte) (string, error) {
	trimmed := trimTrailingZeros(raw)
	if len(trimmed) > MaxSchemaBase64 {
		return "", protocol.Protocol(fmt.Sprintf("schema data too large: %d bytes (max %d)", len(trimmed), MaxSchemaBase64))
	}

	if decoded, err := base64.StdEncoding.DecodeString(string(trimmed)); err == nil {
		if json, err := zlibDecompressUTF8(decoded); err == nil {
			return json, nil
		}
	}

	if json, err := zlibDecompressUTF8(trimmed); err == nil {
		return json, nil
	}

	head := trimmed
	if len(head) > 8 {
		head = head[:8]
	}
	return "", protocol.Protocol(fmt.Sprintf(
		"decode failed: not valid base64+zlib or raw zlib (%d content bytes, first 8: % X)",
		len(trimmed), head))
}

func trimTrailingZeros(raw []byte) []byte {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return raw[:end]
}

func zlibDecompressUTF8(data []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer r.Close()
	limited := io.LimitReader(r, MaxSchemaDecompressed)
	out, err := io.ReadAll(limited)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("decompressed schema is not valid UTF-8")
	}
	return string(out), nil
}

// Parse decodes the schema JSON text into Constants. Grounded on
// schema.rs's parse_schema: every required field is addressed by JSON
// pointer, and a missing pointer is a Protocol error since a schema this
// malformed cannot be trusted for LED safety decisions.
func Parse(jsonText string) (Constants, error) {
	var root map[string]any
	if err := json.Unmarshal([]byte(jsonText), &root); err != nil {
		return Constants{}, protocol.Protocol(fmt.Sprintf("schema JSON parse failed: %v", err))
	}

	productName, err := pointerString(root, "/device-specification/product-name")
	if err != nil {
		return Constants{}, err
	}

	enumerators, err := pointerMap(root, "/enums/maximum_array_sizes/enumerators")
	if err != nil {
		return Constants{}, err
	}

	maxLEDs, err := enumInt(enumerators, "kMAX_NUMBER_LEDS")
	if err != nil {
		return Constants{}, err
	}
	maxInputs, err := enumInt(enumerators, "kMAX_NUMBER_INPUTS")
	if err != nil {
		return Constants{}, err
	}
	maxOutputs, err := enumInt(enumerators, "kMAX_NUMBER_OUTPUTS")
	if err != nil {
		return Constants{}, err
	}
	meteringSegments, _ := enumInt(enumerators, "kNUMBER_METERING_SEGMENTS")

	ledColors, err := pointerMap(root, "/structs/APP_SPACE/members/LEDcolors")
	if err != nil {
		return Constants{}, err
	}
	gradientCount, gradientOffset, gradientNotify, err := arrayMember(ledColors, "LEDcolors")
	if err != nil {
		return Constants{}, err
	}

	directLEDs, err := pointerMap(root, "/structs/APP_SPACE/members/directLEDValues")
	if err != nil {
		return Constants{}, err
	}
	directLEDCount, directLEDOffset, _, err := arrayMember(directLEDs, "directLEDValues")
	if err != nil {
		return Constants{}, err
	}

	var inputControls []string
	if arr, err := pointerArray(root, "/device-specification/physical-inputs"); err == nil && len(arr) > 0 {
		if first, ok := arr[0].(map[string]any); ok {
			if controls, ok := first["controls"].(map[string]any); ok {
				for k := range controls {
					inputControls = append(inputControls, k)
				}
			}
		}
	}

	var appSpaceFeatures []string
	if members, err := pointerMap(root, "/structs/APP_SPACE/members"); err == nil {
		for _, key := range []string{"directMonitoring", "selectedInput"} {
			if _, ok := members[key]; ok {
				appSpaceFeatures = append(appSpaceFeatures, key)
			}
		}
	}

	return Constants{
		ProductName:      productName,
		MaxLEDs:          maxLEDs,
		MaxInputs:        maxInputs,
		MaxOutputs:       maxOutputs,
		GradientCount:    gradientCount,
		GradientOffset:   gradientOffset,
		GradientNotify:   gradientNotify,
		DirectLEDCount:   directLEDCount,
		DirectLEDOffset:  directLEDOffset,
		MeteringSegments: meteringSegments,
		InputControls:    inputControls,
		AppSpaceFeatures: appSpaceFeatures,
	}, nil
}

// Extract runs the full pipeline: read devmap pages, decode, parse.
func Extract(t transport.Transport) (Constants, error) {
	raw, err := ReadRaw(t)
	if err != nil {
		return Constants{}, err
	}
	jsonText, err := Decode(raw)
	if err != nil {
		return Constants{}, err
	}
	return Parse(jsonText)
}

func arrayMember(member map[string]any, name string) (count int, offset uint32, notify uint32, err error) {
	shape, ok := member["array-shape"].([]any)
	if !ok || len(shape) == 0 {
		return 0, 0, 0, protocol.Protocol(fmt.Sprintf("missing %s array-shape[0]", name))
	}
	c, ok := shape[0].(float64)
	if !ok {
		return 0, 0, 0, protocol.Protocol(fmt.Sprintf("missing %s array-shape[0]", name))
	}
	off, ok := member["offset"].(float64)
	if !ok {
		return 0, 0, 0, protocol.Protocol(fmt.Sprintf("missing %s offset", name))
	}
	// notify-device is optional (directLEDValues has none in the reference schema).
	notifyVal, _ := member["notify-device"].(float64)
	return int(c), uint32(off), uint32(notifyVal), nil
}

func enumInt(enumerators map[string]any, key string) (int, error) {
	v, ok := enumerators[key].(float64)
	if !ok {
		return 0, protocol.Protocol(fmt.Sprintf("missing enum value: %s", key))
	}
	return int(v), nil
}

func pointerString(root map[string]any, ptr string) (string, error) {
	v, err := resolvePointer(root, ptr)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", protocol.Protocol(fmt.Sprintf("missing %s", ptr))
	}
	return s, nil
}

func pointerMap(root map[string]any, ptr string) (map[string]any, error) {
	v, err := resolvePointer(root, ptr)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, protocol.Protocol(fmt.Sprintf("missing %s", ptr))
	}
	return m, nil
}

func pointerArray(root map[string]any, ptr string) ([]any, error) {
	v, err := resolvePointer(root, ptr)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]any)
	if !ok {
		return nil, protocol.Protocol(fmt.Sprintf("missing %s", ptr))
	}
	return a, nil
}

// resolvePointer walks a leading-slash, '/'-separated JSON pointer (no
// "~0"/"~1" escaping support — the schema never needs it) through nested
// maps and arrays.
func resolvePointer(root map[string]any, ptr string) (any, error) {
	if len(ptr) == 0 || ptr[0] != '/' {
		return nil, protocol.Protocol("invalid schema pointer " + ptr)
	}
	segments := splitPointer(ptr[1:])
	var cur any = root
	for _, seg := range segments {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, protocol.Protocol("missing " + ptr)
			}
			cur = next
		default:
			return nil, protocol.Protocol("missing " + ptr)
		}
	}
	return cur, nil
}

func splitPointer(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
