package transport

import (
	"fmt"

	"focusmute/internal/protocol"
)

// CheckPayloadLen enforces the protocol table's declared request length
// for cmd. A malformed payload never reaches the OS transport call: on
// the Windows variant an unexpected shape can cause the driver to
// divide by a payload-derived value and bug-check the kernel, so this
// check belongs to the transport layer itself, not to a caller above it.
func CheckPayloadLen(cmd uint32, payload []byte) error {
	want, known := protocol.RequestLen(cmd)
	if !known {
		return nil
	}
	if want == -1 {
		// Variable-length commands (SET_DESCR) carry their own length
		// prefix and are validated by the caller that builds the frame.
		return nil
	}
	if len(payload) != want {
		return protocol.Protocol(fmt.Sprintf(
			"refusing to submit cmd 0x%08X: payload length %d does not match declared length %d",
			cmd, len(payload), want))
	}
	return nil
}

// ValidateSetDescrLength enforces that a SET_DESCR request's declared
// length field matches the actual data length: such a request is rejected
// by the transport without being transmitted.
func ValidateSetDescrLength(length uint32, data []byte) error {
	if int(length) != len(data) {
		return protocol.Protocol(fmt.Sprintf(
			"refusing to submit SET_DESCR: declared length %d does not match data length %d",
			length, len(data)))
	}
	return nil
}

// CheckRequestSafety runs every pre-submit guard a Transport implementation
// must apply before a request reaches the OS transport call, regardless of
// which variant (kernel IOCTL, raw USB, or the in-memory mock) is carrying
// it. A failure here means the request is never framed, let alone sent.
func CheckRequestSafety(cmd uint32, payload []byte) error {
	if err := CheckPayloadLen(cmd, payload); err != nil {
		return err
	}
	switch cmd {
	case protocol.CmdSetDescr:
		if len(payload) < 8 {
			return protocol.Protocol("refusing to submit SET_DESCR: payload too short for offset/length header")
		}
		length := le32(payload[4:8])
		data := payload[8:]
		if err := ValidateSetDescrLength(length, data); err != nil {
			return err
		}
	case protocol.CmdDataNotify:
		if len(payload) < 4 {
			return protocol.Protocol("refusing to submit DATA_NOTIFY: payload too short for event id")
		}
		eventID := le32(payload[0:4])
		if err := protocol.CheckNotifyAllowed(eventID); err != nil {
			return err
		}
	}
	return nil
}
