//go:build windows

package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"focusmute/internal/protocol"
)

// focusritePALGUID is the device interface class GUID the kernel driver
// registers its \pal symbolic link under.
var focusritePALGUID = windows.GUID{
	Data1: 0x6994ad04, Data2: 0x93ef, Data3: 0x11d0,
	Data4: [8]byte{0xa3, 0xcc, 0x00, 0xa0, 0xc9, 0x22, 0x31, 0x96},
}

const (
	digcfPresent         = 0x00000002
	digcfDeviceInterface = 0x00000010
	digcfAllClasses      = 0x00000004

	errorIoPending uintptr = 0x800703E5 & 0xFFFF
	waitObject0            = 0
	waitTimeout            = 0x102
)

// ioctlRequest is posted to the dedicated I/O worker goroutine: a single
// goroutine owns every TRANSACT so the notify IOCTL (issued directly,
// bypassing the worker) never contends with it for the handle.
type ioctlRequest struct {
	ioctl   uint32
	input   []byte
	outSize int
	reply   chan ioctlResult
}

type ioctlResult struct {
	data []byte
	err  error
}

// WindowsIOCTL is the kernel-driver Transport variant: it talks to the
// \pal device interface via DeviceIoControl, using overlapped I/O so a
// pending IOCTL_NOTIFY wait does not block a concurrent TRANSACT.
type WindowsIOCTL struct {
	mu     sync.Mutex
	handle windows.Handle
	token  uint64
	ioCh   chan ioctlRequest
	closed bool
}

func NewWindowsIOCTL() *WindowsIOCTL {
	return &WindowsIOCTL{}
}

func (w *WindowsIOCTL) Open(serial string) (DeviceInfo, error) {
	path, foundSerial, err := findPALDevice()
	if err != nil {
		return DeviceInfo{}, err
	}
	if serial != "" && foundSerial != serial {
		return DeviceInfo{}, protocol.NotFound(fmt.Sprintf("no device with serial %q present", serial))
	}

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return DeviceInfo{}, protocol.Io("encoding device path", err)
	}
	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OVERLAPPED,
		0,
	)
	if err != nil {
		return DeviceInfo{}, protocol.Io("CreateFile", err)
	}

	if _, err := ioctlSync(handle, protocol.IoctlInit, nil, 16); err != nil {
		windows.CloseHandle(handle)
		return DeviceInfo{}, protocol.Io("IOCTL_INIT", err)
	}

	initBuf := protocol.BuildTransactFrame(0, protocol.CmdUSBInit, nil)
	initRaw, err := ioctlOverlapped(handle, protocol.IoctlTransact, initBuf, 100)
	if err != nil {
		windows.CloseHandle(handle)
		return DeviceInfo{}, protocol.Io("USB_INIT", err)
	}

	configBuf := protocol.BuildTransactFrame(0, protocol.CmdGetConfig, nil)
	configRaw, err := ioctlOverlapped(handle, protocol.IoctlTransact, configBuf, 96)
	if err != nil {
		windows.CloseHandle(handle)
		return DeviceInfo{}, protocol.Io("GET_CONFIG", err)
	}
	if len(configRaw) < 16 {
		windows.CloseHandle(handle)
		return DeviceInfo{}, protocol.Protocol("GET_CONFIG response too short")
	}

	token := le64(configRaw[8:16])

	w.mu.Lock()
	w.handle = handle
	w.token = token
	w.ioCh = make(chan ioctlRequest)
	w.closed = false
	w.mu.Unlock()
	go w.ioWorker()

	info := DeviceInfo{
		Path:      path,
		ConfigRaw: configRaw,
		InitRaw:   initRaw,
		Serial:    foundSerial,
	}

	if hdr, err := w.Transact(protocol.CmdGetDescr, protocol.GetDescrPayload(0, 16), 8+16); err == nil {
		info.Firmware = FirmwareVersionFromDescriptor(hdr)
	}
	if nameBytes, err := w.Transact(protocol.CmdGetDescr, protocol.GetDescrPayload(16, 32), 8+32); err == nil {
		info.DeviceName = ParseDeviceName(nameBytes)
	}

	return info, nil
}

func (w *WindowsIOCTL) ioWorker() {
	for req := range w.ioCh {
		data, err := ioctlOverlapped(w.handle, req.ioctl, req.input, req.outSize)
		req.reply <- ioctlResult{data: data, err: err}
	}
}

func (w *WindowsIOCTL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.ioCh)
	return windows.CloseHandle(w.handle)
}

func (w *WindowsIOCTL) Transact(cmd uint32, payload []byte, expectedLen int) ([]byte, error) {
	if err := CheckRequestSafety(cmd, payload); err != nil {
		return nil, err
	}

	w.mu.Lock()
	token := w.token
	ch := w.ioCh
	w.mu.Unlock()

	buf := protocol.BuildTransactFrame(token, cmd, payload)
	reply := make(chan ioctlResult, 1)
	ch <- ioctlRequest{ioctl: protocol.IoctlTransact, input: buf, outSize: expectedLen, reply: reply}

	select {
	case res := <-reply:
		if res.err != nil {
			return nil, protocol.Io("TRANSACT", res.err)
		}
		if len(res.data) > 8 {
			return res.data[8:], nil
		}
		return res.data, nil
	case <-time.After(time.Duration(protocol.UsbTimeoutMS) * time.Millisecond):
		windows.CancelIoEx(w.handle, nil)
		return nil, protocol.Timeout(fmt.Sprintf("TRANSACT timed out after %dms", protocol.UsbTimeoutMS))
	}
}

// WaitNotify issues IOCTL_NOTIFY directly, outside the worker channel, so
// a long wait never blocks a concurrent Transact call.
func (w *WindowsIOCTL) WaitNotify(timeoutMS int) ([]byte, error) {
	w.mu.Lock()
	handle := w.handle
	w.mu.Unlock()
	data, err := ioctlOverlappedTimeout(handle, protocol.IoctlNotify, nil, 16, uint32(timeoutMS))
	if err != nil {
		return nil, protocol.Timeout(fmt.Sprintf("IOCTL_NOTIFY: %v", err))
	}
	return data, nil
}

func ioctlSync(handle windows.Handle, ioctl uint32, input []byte, outSize int) ([]byte, error) {
	output := make([]byte, outSize)
	var ret uint32
	err := windows.DeviceIoControl(handle, ioctl, sliceOrNil(input), uint32(len(input)), sliceOrNilOut(output), uint32(outSize), &ret, nil)
	if err != nil {
		return nil, err
	}
	return output[:ret], nil
}

func ioctlOverlapped(handle windows.Handle, ioctl uint32, input []byte, outSize int) ([]byte, error) {
	output := make([]byte, outSize)
	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}
	defer windows.CloseHandle(event)

	ov := windows.Overlapped{HEvent: event}
	var ret uint32
	err = windows.DeviceIoControl(handle, ioctl, sliceOrNil(input), uint32(len(input)), sliceOrNilOut(output), uint32(outSize), &ret, &ov)
	if err != nil {
		if err != windows.ERROR_IO_PENDING {
			return nil, err
		}
		if err := windows.GetOverlappedResult(handle, &ov, &ret, true); err != nil {
			return nil, err
		}
	}
	return output[:ret], nil
}

func ioctlOverlappedTimeout(handle windows.Handle, ioctl uint32, input []byte, outSize int, timeoutMS uint32) ([]byte, error) {
	output := make([]byte, outSize)
	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}
	defer windows.CloseHandle(event)

	ov := windows.Overlapped{HEvent: event}
	var ret uint32
	err = windows.DeviceIoControl(handle, ioctl, sliceOrNil(input), uint32(len(input)), sliceOrNilOut(output), uint32(outSize), &ret, &ov)
	if err == nil {
		return output[:ret], nil
	}
	if err != windows.ERROR_IO_PENDING {
		return nil, err
	}

	wait, err := windows.WaitForSingleObject(event, timeoutMS)
	if err != nil {
		windows.CancelIoEx(handle, &ov)
		windows.GetOverlappedResult(handle, &ov, &ret, true)
		return nil, err
	}
	switch wait {
	case waitObject0:
		if err := windows.GetOverlappedResult(handle, &ov, &ret, false); err != nil {
			return nil, err
		}
		return output[:ret], nil
	case waitTimeout:
		windows.CancelIoEx(handle, &ov)
		windows.GetOverlappedResult(handle, &ov, &ret, true)
		return nil, fmt.Errorf("timed out after %dms", timeoutMS)
	default:
		windows.CancelIoEx(handle, &ov)
		windows.GetOverlappedResult(handle, &ov, &ret, true)
		return nil, fmt.Errorf("WaitForSingleObject returned %d", wait)
	}
}

func sliceOrNil(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

func sliceOrNilOut(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// findPALDevice enumerates Focusrite device interfaces for a path ending
// in \pal, and the Focusrite USB serial number if present, mirroring
// win_enum::enumerate_pal_paths and find_usb_serial.
func findPALDevice() (path string, serial string, err error) {
	devInfo, err := windows.SetupDiGetClassDevsEx(&focusritePALGUID, "", 0, digcfPresent|digcfDeviceInterface, 0, "")
	if err != nil {
		return "", "", protocol.NotFound("no Focusrite device present")
	}
	defer windows.SetupDiDestroyDeviceInfoList(devInfo)

	for index := uint32(0); index < 32; index++ {
		iface := windows.SP_DEVICE_INTERFACE_DATA{}
		iface.Size = uint32(unsafe.Sizeof(iface))
		if err := windows.SetupDiEnumDeviceInterfaces(devInfo, nil, &focusritePALGUID, index, &iface); err != nil {
			break
		}
		detail, _, err := windows.SetupDiGetDeviceInterfaceDetail(devInfo, &iface, nil)
		if err != nil {
			continue
		}
		p := detail.DevicePath()
		if strings.HasSuffix(strings.ToLower(p), `\pal`) {
			path = p
			break
		}
	}
	if path == "" {
		return "", "", protocol.NotFound("no \\pal device interface found")
	}

	serial = findFocusriteSerial()
	return path, serial, nil
}

func findFocusriteSerial() string {
	devInfo, err := windows.SetupDiGetClassDevsEx(nil, "USB", 0, digcfAllClasses|digcfPresent, 0, "")
	if err != nil {
		return ""
	}
	defer windows.SetupDiDestroyDeviceInfoList(devInfo)

	for index := uint32(0); index < 256; index++ {
		devData := windows.SP_DEVINFO_DATA{}
		devData.Size = uint32(unsafe.Sizeof(devData))
		if err := windows.SetupDiEnumDeviceInfo(devInfo, index, &devData); err != nil {
			break
		}
		id, err := windows.SetupDiGetDeviceInstanceId(devInfo, &devData)
		if err != nil {
			continue
		}
		idUpper := strings.ToUpper(id)
		if strings.Contains(idUpper, "VID_1235") {
			parts := strings.Split(id, `\`)
			if len(parts) >= 3 && parts[2] != "" {
				return parts[2]
			}
		}
	}
	return ""
}
