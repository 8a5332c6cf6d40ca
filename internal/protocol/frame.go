package protocol

import "encoding/binary"

// BuildTransactFrame lays out the Windows kernel-IOCTL TRANSACT request
// buffer: 8-byte session token, 4-byte command code, 4-byte reserved zero,
// then the payload.
func BuildTransactFrame(token uint64, cmd uint32, payload []byte) []byte {
	buf := make([]byte, 16+len(payload))
	binary.LittleEndian.PutUint64(buf[0:8], token)
	binary.LittleEndian.PutUint32(buf[8:12], cmd)
	copy(buf[16:], payload)
	return buf
}

// BuildUSBPacket lays out the raw-USB 16-byte header (cmd, size, seq,
// error, reserved) followed by the payload.
func BuildUSBPacket(cmd uint32, seq uint16, payload []byte) []byte {
	buf := make([]byte, UsbHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], cmd)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(payload)))
	binary.LittleEndian.PutUint16(buf[6:8], seq)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	copy(buf[16:], payload)
	return buf
}

// ParseUSBHeader decodes the 16-byte raw-USB response header.
func ParseUSBHeader(b []byte) (cmd uint32, size uint16, seq uint16, errCode uint32, ok bool) {
	if len(b) < UsbHeaderSize {
		return 0, 0, 0, 0, false
	}
	cmd = binary.LittleEndian.Uint32(b[0:4])
	size = binary.LittleEndian.Uint16(b[4:6])
	seq = binary.LittleEndian.Uint16(b[6:8])
	errCode = binary.LittleEndian.Uint32(b[8:12])
	return cmd, size, seq, errCode, true
}

// GetDescrPayload builds the GET_DESCR request payload: offset:u32, size:u32.
func GetDescrPayload(offset, size uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], offset)
	binary.LittleEndian.PutUint32(buf[4:8], size)
	return buf
}

// SetDescrPayload builds the SET_DESCR request payload: offset:u32,
// length:u32, data[length].
func SetDescrPayload(offset uint32, data []byte) []byte {
	buf := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], offset)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(data)))
	copy(buf[8:], data)
	return buf
}

// DataNotifyPayload builds the DATA_NOTIFY request payload: event_id:u32.
func DataNotifyPayload(eventID uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, eventID)
	return buf
}

// DevmapPagePayload builds the DEVMAP_PAGE request payload: page:u32.
func DevmapPagePayload(page uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, page)
	return buf
}

// GetMeterPayload builds the GET_METER request payload: pad:u16, count:u16,
// magic:u32=1.
func GetMeterPayload(count uint16) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], 0)
	binary.LittleEndian.PutUint16(buf[2:4], count)
	binary.LittleEndian.PutUint32(buf[4:8], 1)
	return buf
}

// Color encodes (r,g,b) into the device's 0xRRGGBB00 word.
func Color(r, g, b uint8) uint32 {
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8
}

// ColorBytes returns the little-endian 4-byte encoding of a device color
// word, ready to pass to SetDescrPayload for OffDirectLEDColour.
func ColorBytes(c uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, c)
	return buf
}
