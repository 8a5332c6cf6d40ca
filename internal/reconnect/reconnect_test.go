package reconnect

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"focusmute/internal/led"
	"focusmute/internal/transport"
)

func TestDefaultConfigValues(t *testing.T) {
	c := DefaultConfig()
	if c.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", c.InitialDelay)
	}
	if c.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", c.MaxDelay)
	}
	if c.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", c.Multiplier)
	}
}

func TestInitialShouldAttemptIsTrue(t *testing.T) {
	s := NewStateWithDefaults()
	if !s.ShouldAttempt() {
		t.Error("expected ShouldAttempt to be true before any attempt")
	}
	if s.ConsecutiveFailures() != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", s.ConsecutiveFailures())
	}
}

func TestBackoffProgressesOnFailure(t *testing.T) {
	s := NewState(Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second, Multiplier: 2.0})

	if s.CurrentDelay() != 100*time.Millisecond {
		t.Fatalf("CurrentDelay = %v, want 100ms", s.CurrentDelay())
	}

	s.RecordFailure()
	if s.ConsecutiveFailures() != 1 || s.CurrentDelay() != 200*time.Millisecond {
		t.Errorf("after 1 failure: failures=%d delay=%v", s.ConsecutiveFailures(), s.CurrentDelay())
	}

	s.RecordFailure()
	if s.ConsecutiveFailures() != 2 || s.CurrentDelay() != 400*time.Millisecond {
		t.Errorf("after 2 failures: failures=%d delay=%v", s.ConsecutiveFailures(), s.CurrentDelay())
	}

	s.RecordFailure()
	if s.ConsecutiveFailures() != 3 || s.CurrentDelay() != 800*time.Millisecond {
		t.Errorf("after 3 failures: failures=%d delay=%v", s.ConsecutiveFailures(), s.CurrentDelay())
	}
}

func TestBackoffCappedAtMax(t *testing.T) {
	s := NewState(Config{InitialDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2.0})

	s.RecordFailure() // 1s -> 2s
	if s.CurrentDelay() != 2*time.Second {
		t.Errorf("CurrentDelay = %v, want 2s", s.CurrentDelay())
	}
	s.RecordFailure() // 2s -> 4s (cap)
	if s.CurrentDelay() != 4*time.Second {
		t.Errorf("CurrentDelay = %v, want 4s", s.CurrentDelay())
	}
	s.RecordFailure() // stays at cap
	if s.CurrentDelay() != 4*time.Second {
		t.Errorf("CurrentDelay = %v, want 4s (capped)", s.CurrentDelay())
	}
}

func TestSuccessResetsBackoff(t *testing.T) {
	s := NewStateWithDefaults()
	s.RecordFailure()
	s.RecordFailure()
	if s.ConsecutiveFailures() != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want 2", s.ConsecutiveFailures())
	}
	if s.CurrentDelay() == time.Second {
		t.Fatal("expected delay to have advanced past the initial value")
	}

	s.RecordSuccess()
	if s.ConsecutiveFailures() != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", s.ConsecutiveFailures())
	}
	if s.CurrentDelay() != time.Second {
		t.Errorf("CurrentDelay = %v, want 1s", s.CurrentDelay())
	}
	if !s.ShouldAttempt() {
		t.Error("expected ShouldAttempt to be true after success")
	}
}

func TestShouldAttemptFalseImmediatelyAfterFailure(t *testing.T) {
	s := NewState(Config{InitialDelay: 60 * time.Second, MaxDelay: 60 * time.Second, Multiplier: 2.0})
	s.RecordFailure()
	if s.ShouldAttempt() {
		t.Error("expected ShouldAttempt to be false immediately after a failure")
	}
}

func TestShouldAttemptTrueAfterDelayElapses(t *testing.T) {
	s := NewState(Config{InitialDelay: time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0})
	s.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	if !s.ShouldAttempt() {
		t.Error("expected ShouldAttempt to be true once the delay has elapsed")
	}
}

func TestCustomMultiplier(t *testing.T) {
	s := NewState(Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second, Multiplier: 3.0})
	s.RecordFailure() // 100ms -> 300ms
	if s.CurrentDelay() != 300*time.Millisecond {
		t.Errorf("CurrentDelay = %v, want 300ms", s.CurrentDelay())
	}
	s.RecordFailure() // 300ms -> 900ms
	if s.CurrentDelay() != 900*time.Millisecond {
		t.Errorf("CurrentDelay = %v, want 900ms", s.CurrentDelay())
	}
}

func TestMultipleSuccessCallsIdempotent(t *testing.T) {
	s := NewStateWithDefaults()
	s.RecordFailure()
	s.RecordFailure()
	s.RecordSuccess()
	s.RecordSuccess()
	if s.ConsecutiveFailures() != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", s.ConsecutiveFailures())
	}
	if s.CurrentDelay() != time.Second {
		t.Errorf("CurrentDelay = %v, want 1s", s.CurrentDelay())
	}
}

func TestTryReopenSkipsBeforeBackoffElapses(t *testing.T) {
	s := NewState(Config{InitialDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 2.0})
	s.RecordFailure()

	called := false
	open := func(serial string) (transport.DeviceInfo, transport.Transport, error) {
		called = true
		return transport.DeviceInfo{}, transport.NewMock(), nil
	}
	_, _, ok := TryReopen(s, open, "", nil)
	if ok || called {
		t.Error("expected TryReopen to skip the attempt while backoff is pending")
	}
}

func TestTryReopenSuccessRecordsSuccess(t *testing.T) {
	s := NewStateWithDefaults()
	s.RecordFailure()
	s.currentDelay = 0 // force ShouldAttempt true regardless of wall clock

	want := transport.DeviceInfo{DeviceName: "Focusrite-Scarlett 2i2 4th Gen"}
	open := func(serial string) (transport.DeviceInfo, transport.Transport, error) {
		return want, transport.NewMock(), nil
	}
	info, tr, ok := TryReopen(s, open, "", nil)
	if !ok {
		t.Fatal("expected TryReopen to succeed")
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("info = %+v, want %+v", info, want)
	}
	if tr == nil {
		t.Error("expected a non-nil transport")
	}
	if s.ConsecutiveFailures() != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0 after success", s.ConsecutiveFailures())
	}
}

func TestTryReopenFailureRecordsFailure(t *testing.T) {
	s := NewStateWithDefaults()
	open := func(serial string) (transport.DeviceInfo, transport.Transport, error) {
		return transport.DeviceInfo{}, nil, errors.New("no device found")
	}
	_, tr, ok := TryReopen(s, open, "", nil)
	if ok {
		t.Error("expected TryReopen to fail")
	}
	if tr != nil {
		t.Error("expected a nil transport on failure")
	}
	if s.ConsecutiveFailures() != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", s.ConsecutiveFailures())
	}
}

func TestTryReconnectAndRefreshAppliesIndicator(t *testing.T) {
	s := NewStateWithDefaults()
	s.currentDelay = 0

	m := transport.NewMock()
	m.SetDescriptor(2*166, []byte{0}) // arbitrary unrelated descriptor, untouched by refresh

	open := func(serial string) (transport.DeviceInfo, transport.Transport, error) {
		return transport.DeviceInfo{DeviceName: "Focusrite-Scarlett 2i2 4th Gen"}, m, nil
	}
	strategy := led.MuteStrategy{
		InputIndices: []int{0},
		NumberLEDs:   []uint8{0},
	}

	_, tr, ok := TryReconnectAndRefresh(s, open, strategy, 0xFF000000, true, "", nil)
	if !ok {
		t.Fatal("expected reconnect to succeed")
	}
	if tr != m {
		t.Error("expected the opened transport to be returned")
	}
	if n := len(m.Notifies()); n != 1 {
		t.Errorf("notifies = %d, want 1 (mute color applied to the one number LED)", n)
	}
}

func TestTryReconnectAndRefreshSkipsApplyWhenNotReopened(t *testing.T) {
	s := NewState(Config{InitialDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 2.0})
	s.RecordFailure()

	open := func(serial string) (transport.DeviceInfo, transport.Transport, error) {
		t.Fatal("open should not be called while backoff is pending")
		return transport.DeviceInfo{}, nil, nil
	}
	_, _, ok := TryReconnectAndRefresh(s, open, led.MuteStrategy{}, 0, false, "", nil)
	if ok {
		t.Error("expected TryReconnectAndRefresh to report failure")
	}
}
