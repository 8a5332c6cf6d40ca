package audio

import (
	"sync"
	"time"
)

// MockMonitor is an in-memory MuteMonitor double for supervisor tests. It
// requires no host audio stack: tests drive mute-state transitions
// directly via Push, and WaitForChange blocks on the same signal channel
// a real monitor would raise from its platform callback.
type MockMonitor struct {
	mu      sync.Mutex
	muted   bool
	sig     *signal
	setErr  error
	setLog  []bool
}

// NewMockMonitor creates a mock starting in the given mute state.
func NewMockMonitor(initialMuted bool) *MockMonitor {
	return &MockMonitor{muted: initialMuted, sig: newSignal()}
}

func (m *MockMonitor) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// SetMuted records the requested mute state as if the device echoed it
// back, and returns the configured error (set via FailNextSet), if any.
func (m *MockMonitor) SetMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLog = append(m.setLog, muted)
	if m.setErr != nil {
		err := m.setErr
		m.setErr = nil
		return err
	}
	m.muted = muted
	return nil
}

func (m *MockMonitor) WaitForChange(timeout time.Duration) bool {
	return waitOnSignal(m.sig, timeout)
}

func (m *MockMonitor) Refresh() {}

// Push simulates an external mute-state change (e.g. the user toggling
// the hardware mute button) and wakes any blocked WaitForChange call.
func (m *MockMonitor) Push(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	m.sig.raise()
}

// FailNextSet causes the next SetMuted call to return err instead of
// applying the change.
func (m *MockMonitor) FailNextSet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// SetCalls returns the mute values passed to SetMuted, in call order.
func (m *MockMonitor) SetCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.setLog))
	copy(out, m.setLog)
	return out
}
