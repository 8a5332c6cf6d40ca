// Package reconnect implements the exponential-backoff retry schedule the
// supervisor uses when the device goes away (unplugged, driver restart)
// and tries to come back.
package reconnect

import (
	"log"
	"time"

	"focusmute/internal/led"
	"focusmute/internal/transport"
)

// Config holds the backoff schedule parameters.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig is this package's own default schedule (1s/30s/2.0). The
// supervisor does not use this default directly: its device-side state
// machine starts at 250ms and caps at 10s, and constructs its own Config
// with those values instead.
func DefaultConfig() Config {
	return Config{InitialDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0}
}

// State is the reconnection state machine with exponential backoff.
type State struct {
	config              Config
	currentDelay        time.Duration
	lastAttempt         time.Time
	hasAttempted        bool
	consecutiveFailures uint32
}

// NewState creates a reconnection state machine with the given config.
func NewState(config Config) *State {
	return &State{config: config, currentDelay: config.InitialDelay}
}

// NewStateWithDefaults creates a reconnection state machine using
// DefaultConfig.
func NewStateWithDefaults() *State {
	return NewState(DefaultConfig())
}

// ShouldAttempt reports whether enough time has elapsed since the last
// attempt to try again. True if no attempt has been made yet.
func (s *State) ShouldAttempt() bool {
	if !s.hasAttempted {
		return true
	}
	return time.Since(s.lastAttempt) >= s.currentDelay
}

// RecordFailure records a failed attempt and advances the backoff delay,
// capped at config.MaxDelay.
func (s *State) RecordFailure() {
	s.consecutiveFailures++
	s.lastAttempt = time.Now()
	s.hasAttempted = true

	next := time.Duration(float64(s.currentDelay) * s.config.Multiplier)
	if next > s.config.MaxDelay {
		next = s.config.MaxDelay
	}
	s.currentDelay = next
}

// RecordSuccess resets the backoff delay and failure count.
func (s *State) RecordSuccess() {
	s.consecutiveFailures = 0
	s.currentDelay = s.config.InitialDelay
	s.hasAttempted = false
}

// ConsecutiveFailures returns the number of failed attempts since the
// last success.
func (s *State) ConsecutiveFailures() uint32 {
	return s.consecutiveFailures
}

// CurrentDelay returns the backoff delay before the next attempt.
func (s *State) CurrentDelay() time.Duration {
	return s.currentDelay
}

// Opener opens a device, preferring the given serial (empty selects the
// first match), and returns its identity alongside the claimed transport.
// The supervisor takes one through Options.Opener, typically a thin
// wrapper over whichever transport.Transport variant the platform selects.
type Opener func(serial string) (transport.DeviceInfo, transport.Transport, error)

// TryReopen attempts to reopen the device, respecting the backoff timer.
// It returns ok=false without attempting anything if the timer hasn't
// elapsed. On success it records success; on failure it records failure
// and logs the next retry delay.
func TryReopen(state *State, open Opener, serial string, logger *log.Logger) (transport.DeviceInfo, transport.Transport, bool) {
	if !state.ShouldAttempt() {
		return transport.DeviceInfo{}, nil, false
	}
	info, t, err := open(serial)
	if err != nil {
		state.RecordFailure()
		if logger != nil {
			logger.Printf("reconnect failed: %v (attempt %d, retry in %.1fs)",
				err, state.ConsecutiveFailures(), state.CurrentDelay().Seconds())
		}
		return transport.DeviceInfo{}, nil, false
	}
	state.RecordSuccess()
	return info, t, true
}

// TryReconnectAndRefresh combines TryReopen with led.RefreshAfterReconnect
// into a single call, so the mute indicator picks up where it left off on
// a successful reconnect.
func TryReconnectAndRefresh(
	state *State,
	open Opener,
	strategy led.MuteStrategy,
	muteColor uint32,
	isMuted bool,
	serial string,
	logger *log.Logger,
) (transport.DeviceInfo, transport.Transport, bool) {
	info, t, ok := TryReopen(state, open, serial, logger)
	if !ok {
		return info, t, false
	}
	if err := led.RefreshAfterReconnect(t, strategy, muteColor, isMuted); err != nil {
		if logger != nil {
			logger.Printf("could not re-apply mute indicator after reconnect: %v", err)
		}
	}
	return info, t, true
}
