package led

import (
	"encoding/binary"
	"fmt"

	"focusmute/internal/protocol"
	"focusmute/internal/transport"
)

// GetMeter issues GET_METER for count channels and decodes the response
// as count little-endian u16 samples, each in [0, 4095]. Read-only: never
// consulted by the mute indicator, exposed for introspection tooling.
func GetMeter(t transport.Transport, count uint16) ([]uint16, error) {
	resp, err := t.Transact(protocol.CmdGetMeter, protocol.GetMeterPayload(count), 8+int(count)*2)
	if err != nil {
		return nil, err
	}
	want := int(count) * 2
	if len(resp) < want {
		return nil, fmt.Errorf("led: GET_METER short response: got %d bytes, want %d", len(resp), want)
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(resp[i*2 : i*2+2])
	}
	return out, nil
}
