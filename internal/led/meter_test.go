package led

import (
	"testing"

	"focusmute/internal/protocol"
	"focusmute/internal/transport"
)

func TestGetMeterDecodesSamples(t *testing.T) {
	m := transport.NewMock()
	m.AddTransactResponse(protocol.CmdGetMeter, []byte{0x00, 0x01, 0xFF, 0x0F})

	samples, err := GetMeter(m, 2)
	if err != nil {
		t.Fatalf("GetMeter: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	if samples[0] != 0x0100 {
		t.Errorf("samples[0] = 0x%04x, want 0x0100", samples[0])
	}
	if samples[1] != 0x0FFF {
		t.Errorf("samples[1] = 0x%04x, want 0x0FFF", samples[1])
	}
}

func TestGetMeterShortResponseIsError(t *testing.T) {
	m := transport.NewMock()
	m.AddTransactResponse(protocol.CmdGetMeter, []byte{0x00})

	if _, err := GetMeter(m, 2); err == nil {
		t.Error("expected an error for a short GET_METER response")
	}
}
