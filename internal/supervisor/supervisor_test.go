package supervisor

import (
	"testing"
	"time"

	"focusmute/internal/audio"
	"focusmute/internal/led"
	"focusmute/internal/protocol"
	"focusmute/internal/transport"
)

func testStrategy() led.MuteStrategy {
	return led.MuteStrategy{
		InputIndices:    []int{0, 1},
		NumberLEDs:      []uint8{0, 8},
		SelectedColor:   0x20FF0000,
		UnselectedColor: 0x88FFFF00,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSupervisorAppliesMuteAfterDebounce(t *testing.T) {
	mt := transport.NewMock()
	mt.SetDescriptor(protocol.OffSelectedInput, []byte{0})
	mon := audio.NewMockMonitor(false)
	ind := audio.NewMuteIndicator(2, false, 0xFF000000, testStrategy())

	s := New(Options{
		Transport: mt,
		Indicator: ind,
		Monitor:   mon,
	})
	go s.Run()
	defer s.Stop()

	mon.Push(true)
	waitFor(t, time.Second, func() bool { return ind.IsMuted() })

	waitFor(t, time.Second, func() bool {
		_, ok := mt.Descriptors()[protocol.OffDirectLEDColour]
		return ok
	})
}

func TestSupervisorHotkeyTogglesMonitor(t *testing.T) {
	mt := transport.NewMock()
	mon := audio.NewMockMonitor(false)
	ind := audio.NewMuteIndicator(1, false, 0xFF000000, testStrategy())

	s := New(Options{Transport: mt, Indicator: ind, Monitor: mon})
	go s.Run()
	defer s.Stop()

	s.HotkeyToggle() <- struct{}{}

	waitFor(t, time.Second, func() bool { return mon.IsMuted() })
}

func TestSupervisorHandlesDeviceLoss(t *testing.T) {
	mt := transport.NewMock()
	mt.FailSetDescriptor = true
	mon := audio.NewMockMonitor(false)
	ind := audio.NewMuteIndicator(1, false, 0xFF000000, testStrategy())

	s := New(Options{Transport: mt, Indicator: ind, Monitor: mon})
	go s.Run()
	defer s.Stop()

	mon.Push(true)
	waitFor(t, time.Second, func() bool { return !s.Connected() })
}

func TestSupervisorReconnectsAndReappliesIndicator(t *testing.T) {
	mon := audio.NewMockMonitor(true)
	ind := audio.NewMuteIndicator(1, true, 0xFF000000, testStrategy())

	reopened := transport.NewMock()
	reopened.SetDescriptor(protocol.OffSelectedInput, []byte{0})

	opener := func(serial string) (transport.DeviceInfo, transport.Transport, error) {
		return transport.DeviceInfo{DeviceName: "Focusrite-Scarlett 2i2 4th Gen"}, reopened, nil
	}

	s := New(Options{
		Transport: nil,
		Indicator: ind,
		Monitor:   mon,
		Opener:    opener,
	})
	go s.Run()
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool { return s.Connected() })
	waitFor(t, time.Second, func() bool {
		_, ok := reopened.Descriptors()[protocol.OffDirectLEDColour]
		return ok
	})
}

func TestSupervisorReconnectSkippedWithoutOpener(t *testing.T) {
	mon := audio.NewMockMonitor(false)
	ind := audio.NewMuteIndicator(1, false, 0xFF000000, testStrategy())

	s := New(Options{Transport: nil, Indicator: ind, Monitor: mon})
	go s.Run()
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if s.Connected() {
		t.Error("expected supervisor to remain disconnected with no opener")
	}
}

func TestSupervisorStopRestoresLEDs(t *testing.T) {
	mt := transport.NewMock()
	mt.SetDescriptor(protocol.OffSelectedInput, []byte{0})
	mon := audio.NewMockMonitor(false)
	ind := audio.NewMuteIndicator(1, false, 0xFF000000, testStrategy())

	s := New(Options{Transport: mt, Indicator: ind, Monitor: mon})
	go s.Run()

	s.Stop()

	notifies := mt.Notifies()
	if len(notifies) == 0 {
		t.Error("expected restore-on-exit to issue at least one notify")
	}
	if s.Connected() {
		t.Error("expected transport to be closed after Stop")
	}
}

func TestSupervisorStopUnmutesMonitorIfMuted(t *testing.T) {
	mt := transport.NewMock()
	mt.SetDescriptor(protocol.OffSelectedInput, []byte{0})
	mon := audio.NewMockMonitor(true)
	ind := audio.NewMuteIndicator(1, true, 0xFF000000, testStrategy())

	s := New(Options{Transport: mt, Indicator: ind, Monitor: mon})
	go s.Run()
	s.Stop()

	if mon.IsMuted() {
		t.Error("expected teardown to unmute the host capture device")
	}
	calls := mon.SetCalls()
	if len(calls) == 0 || calls[len(calls)-1] != false {
		t.Errorf("SetCalls = %v, want a trailing false", calls)
	}
}

func TestSupervisorDoneClosesAfterStop(t *testing.T) {
	mt := transport.NewMock()
	mon := audio.NewMockMonitor(false)
	ind := audio.NewMuteIndicator(1, false, 0xFF000000, testStrategy())

	s := New(Options{Transport: mt, Indicator: ind, Monitor: mon})
	go s.Run()
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Error("expected Done() to be closed after Stop returns")
	}
}
