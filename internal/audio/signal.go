package audio

import "time"

// signal is a single-slot wakeup channel a notification callback raises
// and a waiter blocks on with a timeout, shared by every MuteMonitor
// implementation to avoid duplicating the channel+timeout pattern.
type signal struct {
	ch chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{}, 1)}
}

// raise wakes any pending waitOnSignal call. Non-blocking: if a wakeup is
// already pending, this is a no-op.
func (s *signal) raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// waitOnSignal blocks until s is raised or timeout elapses, returning
// true if raised, false on timeout.
func waitOnSignal(s *signal, timeout time.Duration) bool {
	select {
	case <-s.ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
