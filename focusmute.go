// Package focusmute is a thin facade over internal/* exposing the device
// handle API external collaborators (cmd/focusmutectl today, a future
// tray app) use instead of reaching into internal packages directly.
package focusmute

import (
	"errors"
	"log"

	"focusmute/internal/led"
	"focusmute/internal/models"
	"focusmute/internal/protocol"
	"focusmute/internal/schema"
	"focusmute/internal/transport"
)

// DeviceSummary is one entry of ListDevices: identity fields a caller can
// display without claiming the device.
type DeviceSummary struct {
	Path            string
	ProductName     string
	Serial          string
	FirmwareVersion string
}

// OpenDevice claims the platform's transport variant and performs the
// session handshake, preferring preferredSerial if non-empty (empty
// selects the first match).
func OpenDevice(preferredSerial string) (transport.DeviceInfo, transport.Transport, error) {
	t := transport.New()
	info, err := t.Open(preferredSerial)
	if err != nil {
		return transport.DeviceInfo{}, nil, err
	}
	return info, t, nil
}

// CloseDevice releases the transport's underlying OS resource.
func CloseDevice(t transport.Transport) error {
	if t == nil {
		return nil
	}
	return t.Close()
}

// ListDevices reports the currently attached device, if any. The
// underlying platform discovery (findPALDevice/karalabe/usb enumeration)
// only resolves a single \pal interface today, so this opens and
// immediately releases it rather than claiming it for the caller; a
// "no device" condition is reported as an empty slice, not an error.
func ListDevices() ([]DeviceSummary, error) {
	info, t, err := OpenDevice("")
	if err != nil {
		var de *protocol.DeviceError
		if errors.As(err, &de) && de.Kind == protocol.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer t.Close()

	return []DeviceSummary{{
		Path:            info.Path,
		ProductName:     info.Model(),
		Serial:          info.Serial,
		FirmwareVersion: info.Firmware.String(),
	}}, nil
}

// ReadDescriptor issues GET_DESCR for the given byte range. The requested
// buffer size includes the 8-byte transact response header the Windows
// IOCTL variant strips before returning, on top of the size bytes of
// descriptor payload actually wanted.
func ReadDescriptor(t transport.Transport, offset, size uint32) ([]byte, error) {
	return t.Transact(protocol.CmdGetDescr, protocol.GetDescrPayload(offset, size), 8+int(size))
}

// ApplyIndicator writes the mute color to strategy's number LEDs.
func ApplyIndicator(t transport.Transport, strategy led.MuteStrategy, muteColor uint32) error {
	return led.ApplyMuteIndicator(t, strategy, muteColor)
}

// ClearIndicator restores strategy's number LEDs to their normal colors.
func ClearIndicator(t transport.Transport, strategy led.MuteStrategy) error {
	return led.ClearMuteIndicator(t, strategy)
}

// RestoreOnExit restores LED state on shutdown. Infallible by design: any
// error is logged (if logger is non-nil) and swallowed, matching spec's
// "best-effort, all errors logged" contract.
func RestoreOnExit(t transport.Transport, strategy led.MuteStrategy, logger *log.Logger) {
	if t == nil {
		return
	}
	if err := led.RestoreOnExit(t, strategy); err != nil && logger != nil {
		logger.Printf("restore_on_exit: %v", err)
	}
}

// ExtractSchema returns cached schema constants for (modelName,
// firmwareVersion) if cache is non-nil and has a hit, otherwise extracts
// from the device and saves to cache (best-effort: a save failure is
// logged, not returned). Passing a nil cache always extracts fresh.
func ExtractSchema(t transport.Transport, cache schema.Cache, modelName, firmwareVersion string, logger *log.Logger) (schema.Constants, error) {
	if cache != nil {
		if c, ok := cache.Load(modelName, firmwareVersion); ok {
			return c, nil
		}
	}
	c, err := schema.Extract(t)
	if err != nil {
		return schema.Constants{}, err
	}
	c.FirmwareVersion = firmwareVersion
	if cache != nil {
		if err := cache.Save(c); err != nil && logger != nil {
			logger.Printf("schema cache save failed: %v", err)
		}
	}
	return c, nil
}

// PredictLayout infers an LED layout from extracted schema constants, for
// models without a hardcoded models.Profile.
func PredictLayout(c schema.Constants) (schema.PredictedLayout, error) {
	return schema.Predict(c)
}

// GetMeter reads count metering samples, each in [0, 4095]. Read-only,
// never consulted by the mute indicator.
func GetMeter(t transport.Transport, count uint16) ([]uint16, error) {
	return led.GetMeter(t, count)
}

// ResolveProfile looks up the hardcoded models.Profile for a device's
// cleaned model name.
func ResolveProfile(modelName string) (models.Profile, bool) {
	return models.Detect(modelName)
}

// Notifier delivers a one-shot user-visible message, e.g. a fatal startup
// error. A tray icon implementation is out of scope for this package, so
// this only defines the seam and a trivial logging default; a future tray
// app supplies the real implementation.
type Notifier func(title, body string)

// LogNotifier adapts a *log.Logger into a Notifier, for callers with no
// tray to hand a real one to.
func LogNotifier(logger *log.Logger) Notifier {
	return func(title, body string) {
		if logger != nil {
			logger.Printf("[notify] %s: %s", title, body)
		}
	}
}
