//go:build !windows

package transport

import (
	"sync"
	"time"

	"github.com/karalabe/usb"

	"focusmute/internal/protocol"
)

// USBRaw is the raw-USB vendor control-transfer Transport variant, used on
// platforms without the Focusrite kernel driver. It talks to the device
// directly through karalabe/usb's Device.Write/Device.Read pair, framing
// each request with the raw-USB 16-byte little-endian header (cmd, size,
// seq, error, reserved) built by protocol.BuildUSBPacket.
type USBRaw struct {
	mu     sync.Mutex
	dev    usb.Device
	seq    uint16
	closed bool
}

func NewUSBRaw() *USBRaw {
	return &USBRaw{}
}

func (u *USBRaw) Open(serial string) (DeviceInfo, error) {
	infos, err := usb.Enumerate(protocol.FocusriteVID, 0)
	if err != nil {
		return DeviceInfo{}, protocol.Io("usb enumerate", err)
	}
	if len(infos) == 0 {
		return DeviceInfo{}, protocol.NotFound("no Focusrite USB device present")
	}

	chosen := infos[0]
	if serial != "" {
		found := false
		for _, info := range infos {
			if info.Serial == serial {
				chosen = info
				found = true
				break
			}
		}
		if !found {
			return DeviceInfo{}, protocol.NotFound("no device with serial " + serial + " present")
		}
	}

	dev, err := chosen.Open()
	if err != nil {
		return DeviceInfo{}, protocol.Io("usb open", err)
	}

	u.mu.Lock()
	u.dev = dev
	u.seq = 1
	u.closed = false
	u.mu.Unlock()

	// Init handshake: UsbCmdInit1 has no kernel-side equivalent, then
	// UsbCmdInit2 completes it, mirroring the USB_INIT kernel-channel step
	// with its own two-step raw sequence.
	initRaw, err := u.rawTransact(protocol.UsbCmdInit1, nil, 0)
	if err != nil {
		dev.Close()
		return DeviceInfo{}, protocol.Io("USB_INIT1", err)
	}
	if _, err := u.rawTransact(protocol.UsbCmdInit2, nil, 0); err != nil {
		dev.Close()
		return DeviceInfo{}, protocol.Io("USB_INIT2", err)
	}

	info := DeviceInfo{
		Path:      chosen.Path,
		Serial:    chosen.Serial,
		InitRaw:   initRaw,
		ConfigRaw: make([]byte, 16), // raw-USB variant has no session token; zeroed.
	}

	if hdr, err := u.Transact(protocol.CmdGetDescr, protocol.GetDescrPayload(0, 16), 8+16); err == nil {
		info.Firmware = FirmwareVersionFromDescriptor(hdr)
	}
	if nameBytes, err := u.Transact(protocol.CmdGetDescr, protocol.GetDescrPayload(16, 32), 8+32); err == nil {
		info.DeviceName = ParseDeviceName(nameBytes)
	}

	return info, nil
}

func (u *USBRaw) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	return u.dev.Close()
}

func (u *USBRaw) Transact(cmd uint32, payload []byte, expectedLen int) ([]byte, error) {
	if err := CheckRequestSafety(cmd, payload); err != nil {
		return nil, err
	}
	rawCmd, ok := protocol.KernelToRaw(cmd)
	if !ok {
		return nil, protocol.Unsupported("command has no raw-USB equivalent")
	}
	return u.rawTransact(rawCmd, payload, expectedLen)
}

// rawTransact writes one framed USB packet and reads back the response. A
// write or read failure propagates immediately — no retry — since it means
// the transport itself is broken, not the device. A short response header
// or a nonzero device error code is retried up to protocol.UsbMaxRetries
// times with a 5, 10, 20, 40, 80ms backoff ladder before giving up; a
// command-echo or sequence-number mismatch fails immediately, since
// retrying would just read a stale or unrelated response off the wire.
//
// The very first transact after Open (seq == 1) tolerates a response
// sequence of 0, since the device hasn't synchronized its own counter to
// the host's at that point.
func (u *USBRaw) rawTransact(cmd uint32, payload []byte, expectedLen int) ([]byte, error) {
	u.mu.Lock()
	seq := u.seq
	dev := u.dev
	u.mu.Unlock()

	packet := protocol.BuildUSBPacket(cmd, seq, payload)

	var lastErr error
	for attempt := 0; attempt < protocol.UsbMaxRetries; attempt++ {
		if _, err := dev.Write(packet); err != nil {
			return nil, protocol.Io("USB write", err)
		}

		buf := make([]byte, protocol.UsbHeaderSize+expectedLen+64)
		n, err := readWithTimeout(dev, buf, time.Duration(protocol.UsbTimeoutMS)*time.Millisecond)
		if err != nil {
			return nil, protocol.Io("USB read", err)
		}

		respCmd, size, respSeq, errCode, ok := protocol.ParseUSBHeader(buf[:n])
		if !ok {
			lastErr = protocol.Protocol("short USB response header")
			time.Sleep(usbRetryDelay(attempt))
			continue
		}
		if respCmd != cmd {
			return nil, protocol.Protocol("USB response command mismatch")
		}
		if respSeq != seq && !(seq == 1 && respSeq == 0) {
			return nil, protocol.Protocol("USB response sequence mismatch")
		}
		if errCode != 0 {
			lastErr = protocol.Protocol("device reported error code in response")
			time.Sleep(usbRetryDelay(attempt))
			continue
		}

		u.mu.Lock()
		u.seq++
		u.mu.Unlock()
		return buf[protocol.UsbHeaderSize : protocol.UsbHeaderSize+int(size)], nil
	}
	return nil, protocol.Transient("USB transact failed after retries", lastErr)
}

// usbRetryDelay returns the backoff before retry attempt, doubling from 5ms.
func usbRetryDelay(attempt int) time.Duration {
	return time.Duration(5*(1<<uint(attempt))) * time.Millisecond
}

// readWithTimeout bounds a blocking Device.Read to timeout, since
// karalabe/usb gives no per-call deadline control of its own. On timeout
// the spawned goroutine is left running, still blocked in dev.Read with no
// way to cancel it; buf stays alive for it to write into. Acceptable here
// since a timed-out raw-USB device is already headed for Close/reconnect.
func readWithTimeout(dev usb.Device, buf []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := dev.Read(buf)
		done <- result{n, err}
	}()

	select {
	case res := <-done:
		return res.n, res.err
	case <-time.After(timeout):
		return 0, protocol.Timeout("USB read timed out")
	}
}

// WaitNotify blocks for one interrupt-transfer notification. On timeout the
// spawned goroutine is left blocked in dev.Read with no cancellation; buf
// and the closure's captures outlive the call for it to write into.
func (u *USBRaw) WaitNotify(timeoutMS int) ([]byte, error) {
	u.mu.Lock()
	dev := u.dev
	u.mu.Unlock()

	buf := make([]byte, protocol.UsbHeaderSize+16)
	done := make(chan struct{})
	var n int
	var err error
	go func() {
		n, err = dev.Read(buf)
		close(done)
	}()

	select {
	case <-done:
		if err != nil {
			return nil, protocol.Io("USB interrupt read", err)
		}
		_, size, _, _, ok := protocol.ParseUSBHeader(buf[:n])
		if !ok {
			return nil, protocol.Protocol("short USB notification header")
		}
		return buf[protocol.UsbHeaderSize : protocol.UsbHeaderSize+int(size)], nil
	case <-time.After(time.Duration(timeoutMS) * time.Millisecond):
		return nil, protocol.Timeout("USB notification wait timed out")
	}
}
