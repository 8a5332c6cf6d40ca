// Package protocol defines the Scarlett 4th-gen command table, the
// session handshake, the DATA_NOTIFY activation rule, and the
// kernel-IOCTL <-> raw-USB command code relationship.
package protocol

// IOCTL codes (Windows kernel driver variant).
const (
	IoctlInit     = 0x00222000
	IoctlTransact = 0x00222008
	IoctlNotify   = 0x0022200C
	// IoctlProbe is an investigative IOCTL present in the firmware driver.
	// Nothing in this module issues it.
	IoctlProbe = 0x00222004
)

// Kernel (SwRoot) command codes.
const (
	CmdUSBInit      uint32 = 0x00010400
	CmdGetConfig    uint32 = 0x00040400
	CmdGetDescr     uint32 = 0x00000800
	CmdSetDescr     uint32 = 0x00010800
	CmdDataNotify   uint32 = 0x00020800
	CmdInfoDevmap   uint32 = 0x000C0800
	CmdGetDevmap    uint32 = 0x000D0800
	CmdMeterInfo    uint32 = 0x00000001
	CmdGetMeter     uint32 = 0x00010001
	CmdGetMux       uint32 = 0x00010003
	CmdReadSegment  uint32 = 0x00050004

	// Investigative, read-only commands. Never issued by the supervisor or
	// LED operations; available to cmd/focusmutectl for introspection only.
	CmdInit2       uint32 = 0x00020400
	CmdMixInfo     uint32 = 0x00000002
	CmdMuxInfo     uint32 = 0x00000003
	CmdInfoFlash   uint32 = 0x00060004
	CmdInfoSegment uint32 = 0x00040004
	CmdGetSync     uint32 = 0x00000005
	CmdClock2      uint32 = 0x00000006
	CmdClock5      uint32 = 0x00000007
	CmdDriverInfo  uint32 = 0x00000008
)

// Raw USB command codes (vendor control-transfer variant).
const (
	UsbCmdInit1       uint32 = 0x00000000
	UsbCmdInit2       uint32 = 0x00000002
	UsbCmdGetData     uint32 = 0x00800000
	UsbCmdSetData     uint32 = 0x00800001
	UsbCmdDataCmd     uint32 = 0x00800002
	UsbCmdInfoDevmap  uint32 = 0x0080000C
	UsbCmdGetDevmap   uint32 = 0x0080000D
	UsbCmdMeterInfo   uint32 = 0x00001000
	UsbCmdGetMeter    uint32 = 0x00001001
	UsbCmdGetMux      uint32 = 0x00003001
	UsbCmdReadSegment uint32 = 0x00004005
)

// USB control-transfer request/response parameters.
const (
	UsbBRequestInit = 0
	UsbBRequestTx   = 2
	UsbBRequestRx   = 3

	UsbTimeoutMS   = 1000
	UsbMaxRetries  = 5
	UsbHeaderSize  = 16
	FocusriteVID   = 0x1235
)

// DATA_NOTIFY event ids.
const (
	NotifyDirectLEDValues uint32 = 5
	NotifyDirectLEDColour uint32 = 8
	NotifyBrightness      uint32 = 37

	// Destructive notification ids: a DATA_NOTIFY carrying one of these is
	// refused by the transport guard.
	NotifyInputSelect  uint32 = 17
	NotifyPhantomPower uint32 = 11
	NotifyInputGain    uint32 = 12
)

// Descriptor field offsets, confirmed on Scarlett 2i2 4th Gen and believed
// universal across the 4th-gen family for the fields the core touches.
const (
	OffOutputMute        uint32 = 54
	OffEnableDirectLED   uint32 = 77
	OffDirectLEDChannel  uint32 = 78
	OffDirectLEDDevice   uint32 = 80
	OffDirectLEDColour   uint32 = 84
	OffDirectLEDIndex    uint32 = 88
	OffDirectLEDValues   uint32 = 92
	OffParameterValue    uint32 = 252
	OffParameterChannel  uint32 = 253
	OffSelectedInput     uint32 = 331
	OffInputTRSPresent   uint32 = 345
	OffLEDThresholds     uint32 = 349
	OffLEDColors         uint32 = 384
	OffBrightness        uint32 = 711

	DirectLEDCount  = 40
	DescriptorSize  = 720
	DevmapPageSize     = 1024
	DevmapResponseSize = 1032
)

// forbiddenNotify maps a destructive notification id to the message of the
// Forbidden DeviceError returned when a DATA_NOTIFY with that id is
// attempted; such a notify never reaches the transport. The check is on the
// notify id only: a SET_DESCR to the field's own offset is not refused.
var forbiddenNotify = map[uint32]string{
	NotifyInputSelect:  "write to selectedInput is forbidden: can render the device inoperable until physical reconnect",
	NotifyPhantomPower: "write to phantom power is forbidden: can damage attached microphones",
	NotifyInputGain:    "write to input gain is forbidden: can cause audible signal spikes",
}

// CheckNotifyAllowed returns a Forbidden DeviceError if notifyID targets a
// destructive field, nil otherwise.
func CheckNotifyAllowed(notifyID uint32) error {
	if msg, bad := forbiddenNotify[notifyID]; bad {
		return Forbidden(msg)
	}
	return nil
}

// kernelToRaw is the explicit kernel-channel to raw-USB command-code
// mapping. It is a lookup table, not a derived formula — see SPEC_FULL.md for
// why the closed-form bijection below is kept only as a tested property of
// this table, not as its implementation.
var kernelToRaw = map[uint32]uint32{
	CmdGetDescr:   UsbCmdGetData,
	CmdSetDescr:   UsbCmdSetData,
	CmdDataNotify: UsbCmdDataCmd,
	CmdInfoDevmap: UsbCmdInfoDevmap,
	CmdGetDevmap:  UsbCmdGetDevmap,
	CmdMeterInfo:  UsbCmdMeterInfo,
	CmdGetMeter:   UsbCmdGetMeter,
}

var rawToKernel = inverse(kernelToRaw)

func inverse(m map[uint32]uint32) map[uint32]uint32 {
	out := make(map[uint32]uint32, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// KernelToRaw returns the raw-USB command code for a kernel command code,
// and false if the kernel command has no raw-USB equivalent (e.g.
// CMD_USB_INIT, CMD_GET_CONFIG are kernel-channel-only).
func KernelToRaw(kernel uint32) (uint32, bool) {
	raw, ok := kernelToRaw[kernel]
	return raw, ok
}

// RawToKernel is the inverse of KernelToRaw.
func RawToKernel(raw uint32) (uint32, bool) {
	kernel, ok := rawToKernel[raw]
	return kernel, ok
}

// bijectionFormula is a closed-form kernel-to-raw command code expression.
// It is exercised only by protocol_test.go to document that it agrees with
// the table above for every mapped command; it is not used anywhere else,
// since applying it to a kernel code the table doesn't cover (e.g.
// CmdUSBInit) would silently fabricate a raw code with no real meaning.
func bijectionFormula(kernel uint32) uint32 {
	return ((kernel & 0xFFFF) << 12) | (kernel >> 16)
}

// RequestLen describes the fixed request payload length the transport
// guard enforces for a command, or -1 if the command has a variable-length
// payload (e.g. SET_DESCR, whose length is carried in its own header).
func RequestLen(cmd uint32) (int, bool) {
	switch cmd {
	case CmdUSBInit:
		return 0, true
	case CmdGetConfig:
		return 0, true
	case CmdGetDescr:
		return 8, true // offset:u32, size:u32
	case CmdSetDescr:
		return -1, true // offset:u32, length:u32, data[length]
	case CmdDataNotify:
		return 4, true // event_id:u32
	case CmdInfoDevmap:
		return 0, true
	case CmdGetDevmap:
		return 4, true // page:u32
	case CmdGetMeter:
		return 8, true // pad:u16, count:u16, magic:u32
	case CmdGetMux:
		return 4, true // pad:u16, table:u16
	case CmdReadSegment:
		return 12, true // seg:u32, off:u32, len:u32
	default:
		return 0, false
	}
}
