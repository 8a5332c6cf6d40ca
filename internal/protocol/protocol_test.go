package protocol

import "testing"

func TestBijectionFormulaMatchesTable(t *testing.T) {
	for kernel, want := range kernelToRaw {
		if got := bijectionFormula(kernel); got != want {
			t.Errorf("bijectionFormula(0x%08X) = 0x%08X, want 0x%08X", kernel, got, want)
		}
	}
}

func TestKernelToRawRoundTrip(t *testing.T) {
	for kernel := range kernelToRaw {
		raw, ok := KernelToRaw(kernel)
		if !ok {
			t.Fatalf("KernelToRaw(0x%08X) missing", kernel)
		}
		back, ok := RawToKernel(raw)
		if !ok || back != kernel {
			t.Errorf("RawToKernel(KernelToRaw(0x%08X)) = 0x%08X, ok=%v", kernel, back, ok)
		}
	}
}

func TestKernelOnlyCommandsHaveNoRawEquivalent(t *testing.T) {
	for _, cmd := range []uint32{CmdUSBInit, CmdGetConfig} {
		if _, ok := KernelToRaw(cmd); ok {
			t.Errorf("KernelToRaw(0x%08X) should have no mapping", cmd)
		}
	}
}

func TestCheckNotifyAllowed(t *testing.T) {
	for _, id := range []uint32{NotifyInputSelect, NotifyPhantomPower, NotifyInputGain} {
		if err := CheckNotifyAllowed(id); err == nil {
			t.Errorf("CheckNotifyAllowed(%d) should be forbidden", id)
		}
	}
	if err := CheckNotifyAllowed(NotifyDirectLEDColour); err != nil {
		t.Errorf("CheckNotifyAllowed(NotifyDirectLEDColour) should be allowed, got %v", err)
	}
}

func TestDeviceErrorIsByKind(t *testing.T) {
	err := Timeout("slow device")
	var target error = &DeviceError{Kind: KindTimeout}
	if !err.Is(target) {
		t.Errorf("Timeout error should match KindTimeout target")
	}
	target = &DeviceError{Kind: KindIo}
	if err.Is(target) {
		t.Errorf("Timeout error should not match KindIo target")
	}
}

func TestColorEncoding(t *testing.T) {
	got := Color(0xFF, 0x80, 0x00)
	want := uint32(0xFF800000)
	if got != want {
		t.Errorf("Color(0xFF,0x80,0x00) = 0x%08X, want 0x%08X", got, want)
	}
}

func TestBuildTransactFrame(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	buf := BuildTransactFrame(0x0102030405060708, CmdSetDescr, payload)
	if len(buf) != 16+len(payload) {
		t.Fatalf("unexpected frame length %d", len(buf))
	}
	if buf[16] != 0xAA || buf[17] != 0xBB {
		t.Errorf("payload not appended correctly: %v", buf[16:])
	}
}

func TestBuildUSBPacketHeaderLayout(t *testing.T) {
	payload := []byte{1, 2, 3}
	buf := BuildUSBPacket(UsbCmdGetData, 5, payload)
	cmd, size, seq, errCode, ok := ParseUSBHeader(buf)
	if !ok {
		t.Fatal("ParseUSBHeader failed")
	}
	if cmd != UsbCmdGetData || size != 3 || seq != 5 || errCode != 0 {
		t.Errorf("got cmd=0x%X size=%d seq=%d err=%d", cmd, size, seq, errCode)
	}
}

func TestRequestLenKnownCommands(t *testing.T) {
	tests := []struct {
		cmd  uint32
		want int
	}{
		{CmdGetDescr, 8},
		{CmdDataNotify, 4},
		{CmdGetDevmap, 4},
	}
	for _, tt := range tests {
		got, ok := RequestLen(tt.cmd)
		if !ok || got != tt.want {
			t.Errorf("RequestLen(0x%08X) = %d,%v want %d", tt.cmd, got, ok, tt.want)
		}
	}
}
