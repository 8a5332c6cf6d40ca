// Package transport provides the bit-exact request/response channel to a
// Scarlett 4th-gen device, behind a single interface shared by the
// Windows kernel-IOCTL and raw-USB control-transfer variants.
package transport

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Transport is the uniform interface every platform variant implements.
// It does not interpret payload bytes beyond framing; it enforces wait-
// for-completion semantics and the fixed-length payload guard only.
type Transport interface {
	// Open claims the device, optionally matching a preferred serial
	// number (empty string selects the first match), and performs the
	// session handshake.
	Open(serial string) (DeviceInfo, error)
	// Close releases the underlying OS resource. Idempotent.
	Close() error
	// Transact sends cmd with payload and returns the response body
	// (header stripped). expectedLen is a hint some variants use to size
	// the read buffer; -1 means variable length.
	Transact(cmd uint32, payload []byte, expectedLen int) ([]byte, error)
	// WaitNotify blocks until the device posts an interrupt notification
	// or timeoutMS elapses, returning the raw notification bytes.
	WaitNotify(timeoutMS int) ([]byte, error)
}

// FirmwareVersion is parsed from the first 16 bytes of a device's
// descriptor: major/minor at 4:8, stage_release/build_nr at 8:16.
type FirmwareVersion struct {
	Major        uint16
	Minor        uint16
	StageRelease uint32
	BuildNr      uint32
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.StageRelease, v.BuildNr)
}

// FirmwareVersionFromDescriptor parses a FirmwareVersion from the leading
// bytes of a descriptor read (offsets 4:6, 6:8, 8:12, 12:16). Returns the
// zero value if hdr has fewer than 16 bytes.
func FirmwareVersionFromDescriptor(hdr []byte) FirmwareVersion {
	if len(hdr) < 16 {
		return FirmwareVersion{}
	}
	return FirmwareVersion{
		Major:        binary.LittleEndian.Uint16(hdr[4:6]),
		Minor:        binary.LittleEndian.Uint16(hdr[6:8]),
		StageRelease: binary.LittleEndian.Uint32(hdr[8:12]),
		BuildNr:      binary.LittleEndian.Uint32(hdr[12:16]),
	}
}

// DeviceInfo identifies an open device: its enumeration path, the raw
// init/config handshake bytes, its firmware-reported name, version, and
// optional serial number.
type DeviceInfo struct {
	Path       string
	ConfigRaw  []byte
	InitRaw    []byte
	DeviceName string
	Firmware   FirmwareVersion
	Serial     string
}

// Token extracts the 64-bit session token from bytes 8:16 of ConfigRaw.
func (d DeviceInfo) Token() uint64 {
	if len(d.ConfigRaw) < 16 {
		return 0
	}
	return binary.LittleEndian.Uint64(d.ConfigRaw[8:16])
}

// Model returns the text after the last '-' in DeviceName, trimmed, e.g.
// "Scarlett 2i2 4th Gen" from "Focusrite-Scarlett 2i2 4th Gen".
func (d DeviceInfo) Model() string {
	name := d.DeviceName
	if idx := strings.LastIndex(name, "-"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}

// ParseDeviceName trims a null-terminated, possibly padded byte slice and
// decodes it as UTF-8 (lossily tolerating invalid sequences).
func ParseDeviceName(b []byte) string {
	if i := indexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "")
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
