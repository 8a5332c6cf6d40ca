package audio

import (
	"focusmute/internal/led"
	"focusmute/internal/transport"
)

// MonitorAction is the action to take after feeding a mute poll to a
// MuteIndicator.
type MonitorAction int

const (
	// NoChange means no state transition occurred.
	NoChange MonitorAction = iota
	// ApplyMute means the mute color should be applied to the number LEDs.
	ApplyMute
	// ClearMute means the mute color should be cleared and the number
	// LEDs restored.
	ClearMute
)

// MuteIndicator is the testable mute-indicator state machine: it debounces
// raw mute polls and tracks the confirmed mute state, decoupled from any
// I/O. Callers feed it a poll each cycle and act on the returned
// MonitorAction.
type MuteIndicator struct {
	debouncer *MuteDebouncer
	muteColor uint32
	strategy  led.MuteStrategy
}

// NewMuteIndicator creates an indicator with the given debounce threshold,
// initial confirmed state, mute color, and LED mute strategy.
func NewMuteIndicator(debounceThreshold uint32, initialMuted bool, muteColor uint32, strategy led.MuteStrategy) *MuteIndicator {
	return &MuteIndicator{
		debouncer: NewMuteDebouncer(debounceThreshold, initialMuted),
		muteColor: muteColor,
		strategy:  strategy,
	}
}

// Update feeds a raw mute poll through the debouncer and returns the
// action to take, if any.
func (m *MuteIndicator) Update(muted bool) MonitorAction {
	changed, newState := m.debouncer.Update(muted)
	if !changed {
		return NoChange
	}
	if newState {
		return ApplyMute
	}
	return ClearMute
}

// ApplyMute writes the mute indicator to the device.
func (m *MuteIndicator) ApplyMute(t transport.Transport) error {
	return led.ApplyMuteIndicator(t, m.strategy, m.muteColor)
}

// ClearMute restores normal LED state on the device.
func (m *MuteIndicator) ClearMute(t transport.Transport) error {
	return led.ClearMuteIndicator(t, m.strategy)
}

// IsMuted reports whether the debouncer currently considers the input muted.
func (m *MuteIndicator) IsMuted() bool {
	return m.debouncer.IsMuted()
}

// MuteColor returns the configured mute color.
func (m *MuteIndicator) MuteColor() uint32 {
	return m.muteColor
}

// Strategy returns the current mute strategy.
func (m *MuteIndicator) Strategy() led.MuteStrategy {
	return m.strategy
}

// SetMuteColor updates the mute color, e.g. after a settings change.
func (m *MuteIndicator) SetMuteColor(color uint32) {
	m.muteColor = color
}

// SetStrategy replaces the mute strategy, e.g. after a mute_inputs change.
func (m *MuteIndicator) SetStrategy(strategy led.MuteStrategy) {
	m.strategy = strategy
}

// ForceState syncs the debouncer's confirmed state without triggering a
// state-change action, for syncing to an authoritative startup read.
func (m *MuteIndicator) ForceState(muted bool) {
	m.debouncer.ForceState(muted)
}

// PollAndApply feeds a raw mute poll and applies the resulting action to
// the device, returning the action taken and any device error.
func (m *MuteIndicator) PollAndApply(muted bool, t transport.Transport) (MonitorAction, error) {
	action := m.Update(muted)
	var err error
	switch action {
	case ApplyMute:
		err = m.ApplyMute(t)
	case ClearMute:
		err = m.ClearMute(t)
	}
	return action, err
}
