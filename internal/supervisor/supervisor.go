// Package supervisor runs the event loop that ties the mute monitor, the
// LED operations, and the reconnect state machine together: it is the one
// goroutine that ever issues a transport.Transact call, matching this
// repository's single-writer discipline for the device handle.
package supervisor

import (
	"log"
	"sync"
	"time"

	"focusmute/internal/audio"
	"focusmute/internal/led"
	"focusmute/internal/reconnect"
	"focusmute/internal/transport"
)

// pollInterval is both the monitor's wait-for-change fallback timeout and
// the supervisor's own tick for driving reconnect attempts, matching
// spec's 250ms cadence.
const pollInterval = 250 * time.Millisecond

// deviceReconnectConfig is the supervisor's own backoff schedule: 250ms
// initial delay doubling up to a 10s cap. This is distinct from
// reconnect.DefaultConfig(), which is that package's own 1s/30s default
// for callers who don't override it.
func deviceReconnectConfig() reconnect.Config {
	return reconnect.Config{InitialDelay: pollInterval, MaxDelay: 10 * time.Second, Multiplier: 2.0}
}

// Options configures a new Supervisor.
type Options struct {
	// Transport and Info describe an already-open device, or are the zero
	// value to start in the Disconnected state.
	Transport transport.Transport
	Info      transport.DeviceInfo

	Indicator *audio.MuteIndicator
	Monitor   audio.MuteMonitor

	// Opener reopens the device on reconnect attempts.
	Opener       reconnect.Opener
	DeviceSerial string

	Logger *log.Logger
}

// Supervisor owns the device handle (possibly absent), the mute
// indicator, and the reconnect state machine, and serializes every
// command issued to the device on its own goroutine.
type Supervisor struct {
	mu   sync.Mutex
	t    transport.Transport
	info transport.DeviceInfo

	indicator *audio.MuteIndicator
	monitor   audio.MuteMonitor
	reconnect *reconnect.State
	opener    reconnect.Opener
	serial    string
	logger    *log.Logger

	muteSamples  chan bool
	hotkeyToggle chan struct{}
	hotplug      chan struct{}
	shutdownCh   chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once
}

// New creates a Supervisor from the given options. Call Run in its own
// goroutine, or synchronously if the caller has nothing else to do.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		t:            opts.Transport,
		info:         opts.Info,
		indicator:    opts.Indicator,
		monitor:      opts.Monitor,
		reconnect:    reconnect.NewState(deviceReconnectConfig()),
		opener:       opts.Opener,
		serial:       opts.DeviceSerial,
		logger:       opts.Logger,
		muteSamples:  make(chan bool, 1),
		hotkeyToggle: make(chan struct{}, 1),
		hotplug:      make(chan struct{}, 1),
		shutdownCh:   make(chan struct{}),
		done:         make(chan struct{}),
	}
	if s.t != nil {
		s.reconnect.RecordSuccess()
	}
	return s
}

// HotkeyToggle returns the channel an external hotkey registration posts
// to when the user presses the configured chord. Non-blocking: a pending
// unconsumed toggle coalesces with the next one.
func (s *Supervisor) HotkeyToggle() chan<- struct{} { return s.hotkeyToggle }

// Hotplug returns the channel an external device-arrival watcher posts to
// when it sees the device (re)appear, short-circuiting the backoff timer.
func (s *Supervisor) Hotplug() chan<- struct{} { return s.hotplug }

// Done returns a channel closed once Run has finished shutting down.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// Connected reports whether the supervisor currently owns an open
// transport.
func (s *Supervisor) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t != nil
}

// Stop initiates shutdown: drains to Off, restores LED state, closes the
// handle, and returns once Run has exited or the 2s deadline elapses,
// whichever comes first. Safe to call more than once.
func (s *Supervisor) Stop() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
	<-s.done
}

// Run is the supervisor's event loop. It blocks until Stop is called (or
// the monitor panics, which it does not). Intended to run on its own
// goroutine; the caller drives shutdown via Stop.
func (s *Supervisor) Run() {
	defer close(s.done)

	monitorDone := make(chan struct{})
	go s.feedMuteSamples(monitorDone)
	defer func() { <-monitorDone }()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdownCh:
			s.teardownWithDeadline()
			return
		case muted := <-s.muteSamples:
			s.handleMuteSample(muted)
		case <-s.hotkeyToggle:
			s.handleHotkeyToggle()
		case <-s.hotplug:
			s.maybeReconnect()
		case <-ticker.C:
			s.maybeReconnect()
		}
	}
}

// feedMuteSamples polls the monitor for changes and forwards the current
// mute state into muteSamples, coalescing if the main loop is behind.
func (s *Supervisor) feedMuteSamples(done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-s.shutdownCh:
			return
		default:
		}
		s.monitor.WaitForChange(pollInterval)
		s.monitor.Refresh()
		muted := s.monitor.IsMuted()
		select {
		case s.muteSamples <- muted:
		default:
			// Main loop hasn't drained the last sample yet; drop it in
			// favor of the current state, which is always what matters.
			select {
			case <-s.muteSamples:
			default:
			}
			s.muteSamples <- muted
		}
		select {
		case <-s.shutdownCh:
			return
		default:
		}
	}
}

func (s *Supervisor) handleMuteSample(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.t == nil {
		s.indicator.Update(muted)
		return
	}
	action, err := s.indicator.PollAndApply(muted, s.t)
	if err != nil {
		s.logDeviceLost(err)
		return
	}
	_ = action
}

// handleHotkeyToggle computes the inverse of the last confirmed mute
// sample and asks the monitor to apply it. It never touches LEDs
// directly: the resulting monitor sample drives that, exactly as
// spec requires.
func (s *Supervisor) handleHotkeyToggle() {
	s.mu.Lock()
	want := !s.indicator.IsMuted()
	s.mu.Unlock()

	if err := s.monitor.SetMuted(want); err != nil {
		if s.logger != nil {
			s.logger.Printf("hotkey toggle failed: %v", err)
		}
	}
}

// logDeviceLost closes the handle and drops to Disconnected; IndicatorState
// is left as-is so a later reconnect can re-apply it.
func (s *Supervisor) logDeviceLost(err error) {
	if s.logger != nil {
		s.logger.Printf("[device] communication error: %v", err)
		s.logger.Printf("[device] will attempt reconnection...")
	}
	if s.t != nil {
		_ = s.t.Close()
	}
	s.t = nil
}

func (s *Supervisor) maybeReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t != nil || s.opener == nil {
		return
	}
	info, t, ok := reconnect.TryReconnectAndRefresh(
		s.reconnect, s.opener, s.indicator.Strategy(), s.indicator.MuteColor(),
		s.indicator.IsMuted(), s.serial, s.logger,
	)
	if !ok {
		return
	}
	s.info = info
	s.t = t
}

func (s *Supervisor) teardownWithDeadline() {
	done := make(chan struct{})
	go func() {
		s.teardown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		if s.logger != nil {
			s.logger.Printf("shutdown: teardown exceeded 2s deadline, forcing close")
		}
		s.mu.Lock()
		if s.t != nil {
			_ = s.t.Close()
			s.t = nil
		}
		s.mu.Unlock()
	}
}

// teardown unmutes the host capture device if it is currently muted (so
// the user is never left silently muted after exit), restores LED state,
// and closes the handle. Best-effort: every step is attempted even if an
// earlier one failed.
func (s *Supervisor) teardown() {
	if s.monitor.IsMuted() {
		if err := s.monitor.SetMuted(false); err != nil && s.logger != nil {
			s.logger.Printf("failed to unmute on exit: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t == nil {
		if s.logger != nil {
			s.logger.Printf("device disconnected, cannot restore LED state")
		}
		return
	}
	if err := led.RestoreOnExit(s.t, s.indicator.Strategy()); err != nil && s.logger != nil {
		s.logger.Printf("could not restore LED state: %v", err)
	}
	_ = s.t.Close()
	s.t = nil
}
