package led

import (
	"focusmute/internal/protocol"
	"focusmute/internal/transport"
)

func setDescriptor(t transport.Transport, offset uint32, data []byte) error {
	_, err := t.Transact(protocol.CmdSetDescr, protocol.SetDescrPayload(offset, data), 0)
	return err
}

func getDescriptor(t transport.Transport, offset, size uint32) ([]byte, error) {
	return t.Transact(protocol.CmdGetDescr, protocol.GetDescrPayload(offset, size), 8+int(size))
}

func dataNotify(t transport.Transport, eventID uint32) error {
	_, err := t.Transact(protocol.CmdDataNotify, protocol.DataNotifyPayload(eventID), 0)
	return err
}

// SetSingleLED sets one LED's color via directLEDColour + directLEDIndex
// followed by DATA_NOTIFY(8).
//
// This updates only the targeted LED; the metering halo rings and every
// other LED are untouched, and no mode change is required — it works in
// mode 0 (normal metering mode).
//
// Ordering matters: colour must be written before index.
func SetSingleLED(t transport.Transport, index uint8, color uint32) error {
	if err := setDescriptor(t, protocol.OffDirectLEDColour, protocol.ColorBytes(color)); err != nil {
		return err
	}
	if err := setDescriptor(t, protocol.OffDirectLEDIndex, []byte{index}); err != nil {
		return err
	}
	return dataNotify(t, protocol.NotifyDirectLEDColour)
}

// restoreNumberLeds reads selectedInput and sets each of strategy's number
// LEDs to the firmware-expected selected or unselected color.
func restoreNumberLeds(t transport.Transport, strategy MuteStrategy) error {
	selectedInput := 0
	b, err := getDescriptor(t, protocol.OffSelectedInput, 1)
	if err != nil {
		return err
	}
	if len(b) > 0 {
		selectedInput = int(b[0])
	}

	for i, ledIdx := range strategy.NumberLEDs {
		inputIdx := strategy.InputIndices[i]
		color := strategy.UnselectedColor
		if inputIdx == selectedInput {
			color = strategy.SelectedColor
		}
		if err := SetSingleLED(t, ledIdx, color); err != nil {
			return err
		}
	}
	return nil
}

// ApplyMuteIndicator sets only the muted input number LEDs, using each
// input's resolved mute color (or muteColor as a fallback for any input
// without one). No mode change, no gradient change — metering continues
// on every other LED.
func ApplyMuteIndicator(t transport.Transport, strategy MuteStrategy, muteColor uint32) error {
	for i, ledIdx := range strategy.NumberLEDs {
		color := muteColor
		if i < len(strategy.MuteColors) {
			color = strategy.MuteColors[i]
		}
		if err := SetSingleLED(t, ledIdx, color); err != nil {
			return err
		}
	}
	return nil
}

// ClearMuteIndicator restores the number LEDs to their normal, unmuted
// firmware-expected colors.
func ClearMuteIndicator(t transport.Transport, strategy MuteStrategy) error {
	return restoreNumberLeds(t, strategy)
}

// RestoreOnExit restores LED state when the application is shutting down.
func RestoreOnExit(t transport.Transport, strategy MuteStrategy) error {
	return restoreNumberLeds(t, strategy)
}

// RefreshAfterReconnect re-applies the mute indicator after a device
// reconnect, if the application state was muted at the time of
// disconnect. The caller is responsible for the Open() call and any
// logging; this only re-applies the LED state.
func RefreshAfterReconnect(t transport.Transport, strategy MuteStrategy, muteColor uint32, isMuted bool) error {
	if !isMuted {
		return nil
	}
	return ApplyMuteIndicator(t, strategy, muteColor)
}
