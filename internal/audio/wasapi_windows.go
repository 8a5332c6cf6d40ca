//go:build windows

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// go-ole ships no typed bindings for Windows Core Audio (IMMDeviceEnumerator,
// IAudioEndpointVolume and friends), unlike its IDispatch/WScript.Shell
// automation support. The vtables below are
// hand-declared from the published COM ABI and invoked with raw
// syscall.SyscallN calls against ole.IUnknown, the same pattern go-ole itself
// uses internally for QueryInterface/AddRef/Release.

var (
	clsidMMDeviceEnumerator         = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator          = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioEndpointVolume         = ole.NewGUID("{5CDF2C82-841E-4546-9722-0CF74078229A}")
	iidIAudioEndpointVolumeCallback = ole.NewGUID("{657804FA-D6AD-4496-8A60-352752AF4F89}")
)

const (
	eCaptureDataFlow = 1 // EDataFlow.eCapture
	eConsoleRole     = 0 // ERole.eConsole
)

// --- IMMDeviceEnumerator ---

type immDeviceEnumeratorVtbl struct {
	ole.IUnknownVtbl
	EnumAudioEndpoints                     uintptr
	GetDefaultAudioEndpoint                uintptr
	GetDevice                              uintptr
	RegisterEndpointNotificationCallback   uintptr
	UnregisterEndpointNotificationCallback uintptr
}

type immDeviceEnumerator struct{ ole.IUnknown }

func (v *immDeviceEnumerator) vtbl() *immDeviceEnumeratorVtbl {
	return (*immDeviceEnumeratorVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *immDeviceEnumerator) getDefaultAudioEndpoint(dataFlow, role uint32) (*immDevice, error) {
	var dev *immDevice
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetDefaultAudioEndpoint,
		uintptr(unsafe.Pointer(v)),
		uintptr(dataFlow),
		uintptr(role),
		uintptr(unsafe.Pointer(&dev)),
	)
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return dev, nil
}

// --- IMMDevice ---

type immDeviceVtbl struct {
	ole.IUnknownVtbl
	Activate         uintptr
	OpenPropertyStore uintptr
	GetId            uintptr
	GetState         uintptr
}

type immDevice struct{ ole.IUnknown }

func (v *immDevice) vtbl() *immDeviceVtbl {
	return (*immDeviceVtbl)(unsafe.Pointer(v.RawVTable))
}

const clsctxAll = 23 // CLSCTX_INPROC_SERVER | CLSCTX_INPROC_HANDLER | CLSCTX_LOCAL_SERVER | CLSCTX_REMOTE_SERVER

func (v *immDevice) activateEndpointVolume() (*iAudioEndpointVolume, error) {
	var out *iAudioEndpointVolume
	hr, _, _ := syscall.SyscallN(
		v.vtbl().Activate,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(iidIAudioEndpointVolume)),
		uintptr(clsctxAll),
		0,
		uintptr(unsafe.Pointer(&out)),
	)
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return out, nil
}

// --- IAudioEndpointVolume ---

type iAudioEndpointVolumeVtbl struct {
	ole.IUnknownVtbl
	RegisterControlChangeNotify   uintptr
	UnregisterControlChangeNotify uintptr
	GetChannelCount               uintptr
	SetMasterVolumeLevel          uintptr
	SetMasterVolumeLevelScalar    uintptr
	GetMasterVolumeLevel          uintptr
	GetMasterVolumeLevelScalar    uintptr
	SetChannelVolumeLevel         uintptr
	SetChannelVolumeLevelScalar   uintptr
	GetChannelVolumeLevel         uintptr
	GetChannelVolumeLevelScalar   uintptr
	SetMute                       uintptr
	GetMute                       uintptr
	GetVolumeStepInfo             uintptr
	VolumeStepUp                  uintptr
	VolumeStepDown                uintptr
	QueryHardwareSupport          uintptr
	GetVolumeRange                uintptr
}

type iAudioEndpointVolume struct{ ole.IUnknown }

func (v *iAudioEndpointVolume) vtbl() *iAudioEndpointVolumeVtbl {
	return (*iAudioEndpointVolumeVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *iAudioEndpointVolume) getMute() (bool, error) {
	var muted int32
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetMute,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&muted)),
	)
	if hr != 0 {
		return false, ole.NewError(hr)
	}
	return muted != 0, nil
}

func (v *iAudioEndpointVolume) setMute(muted bool) error {
	var flag uintptr
	if muted {
		flag = 1
	}
	hr, _, _ := syscall.SyscallN(
		v.vtbl().SetMute,
		uintptr(unsafe.Pointer(v)),
		flag,
		0, // pguidEventContext, unused
	)
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}

func (v *iAudioEndpointVolume) registerControlChangeNotify(cb *endpointVolumeCallback) error {
	hr, _, _ := syscall.SyscallN(
		v.vtbl().RegisterControlChangeNotify,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(cb)),
	)
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}

func (v *iAudioEndpointVolume) unregisterControlChangeNotify(cb *endpointVolumeCallback) error {
	hr, _, _ := syscall.SyscallN(
		v.vtbl().UnregisterControlChangeNotify,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(cb)),
	)
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}

// --- IAudioEndpointVolumeCallback (our implementation, called BY COM) ---

// audioVolumeNotificationData mirrors AUDIO_VOLUME_NOTIFICATION_DATA; only
// the fields we read are named precisely, the rest just reserve layout.
type audioVolumeNotificationData struct {
	EventContext ole.GUID
	Muted        int32
	MasterVolume float32
	ChannelCount uint32
	Channels     [1]float32
}

type endpointVolumeCallbackVtbl struct {
	ole.IUnknownVtbl
	OnNotify uintptr
}

// endpointVolumeCallback is a COM object we hand to
// RegisterControlChangeNotify; its vtable methods are Go functions exposed
// through syscall.NewCallback so the audio engine's notification thread can
// call back into us.
type endpointVolumeCallback struct {
	vtblPtr  *endpointVolumeCallbackVtbl
	refCount int32
	onMute   func(muted bool)
}

func newEndpointVolumeCallback(onMute func(muted bool)) *endpointVolumeCallback {
	cb := &endpointVolumeCallback{refCount: 1, onMute: onMute}
	cb.vtblPtr = &endpointVolumeCallbackVtbl{
		IUnknownVtbl: ole.IUnknownVtbl{
			QueryInterface: syscall.NewCallback(cb.queryInterface),
			AddRef:         syscall.NewCallback(cb.addRef),
			Release:        syscall.NewCallback(cb.release),
		},
		OnNotify: syscall.NewCallback(cb.onNotify),
	}
	return cb
}

// queryInterface answers requests for IUnknown and
// IAudioEndpointVolumeCallback by handing back this same object with one
// more reference; any other interface gets E_NOINTERFACE.
func (cb *endpointVolumeCallback) queryInterface(this, riid, ppv uintptr) uintptr {
	iid := (*ole.GUID)(unsafe.Pointer(riid))
	if ole.IsEqualGUID(iid, ole.IID_IUnknown) || ole.IsEqualGUID(iid, iidIAudioEndpointVolumeCallback) {
		atomic.AddInt32(&cb.refCount, 1)
		*(*uintptr)(unsafe.Pointer(ppv)) = this
		return 0 // S_OK
	}
	*(*uintptr)(unsafe.Pointer(ppv)) = 0
	return 0x80004002 // E_NOINTERFACE
}

func (cb *endpointVolumeCallback) addRef(this uintptr) uintptr {
	return uintptr(atomic.AddInt32(&cb.refCount, 1))
}

func (cb *endpointVolumeCallback) release(this uintptr) uintptr {
	return uintptr(atomic.AddInt32(&cb.refCount, -1))
}

func (cb *endpointVolumeCallback) onNotify(this, pNotify uintptr) uintptr {
	if pNotify != 0 {
		data := (*audioVolumeNotificationData)(unsafe.Pointer(pNotify))
		cb.onMute(data.Muted != 0)
	}
	return 0 // S_OK
}

// --- WasapiMonitor: public MuteMonitor implementation ---

// WasapiMonitor watches the default Windows capture device (the
// microphone) for mute-state changes via the Core Audio
// IAudioEndpointVolume notification API.
type WasapiMonitor struct {
	volume     *iAudioEndpointVolume
	device     *immDevice
	enumerator *immDeviceEnumerator
	callback   *endpointVolumeCallback

	mu    sync.Mutex
	muted bool
	sig   *signal
}

// NewWasapiMonitor creates a monitor for the default capture device.
// CoInitialize must already have been called on this thread by the caller.
func NewWasapiMonitor() (*WasapiMonitor, error) {
	unk, err := ole.CoCreateInstance(clsidMMDeviceEnumerator, nil, clsctxAll, iidIMMDeviceEnumerator)
	if err != nil {
		return nil, &AudioError{Kind: InitFailed, Msg: fmt.Sprintf("MMDeviceEnumerator: %v", err)}
	}
	enumerator := (*immDeviceEnumerator)(unsafe.Pointer(unk))

	device, err := enumerator.getDefaultAudioEndpoint(eCaptureDataFlow, eConsoleRole)
	if err != nil {
		enumerator.Release()
		return nil, &AudioError{Kind: InitFailed, Msg: fmt.Sprintf("GetDefaultAudioEndpoint: %v", err)}
	}

	volume, err := device.activateEndpointVolume()
	if err != nil {
		device.Release()
		enumerator.Release()
		return nil, &AudioError{Kind: InitFailed, Msg: fmt.Sprintf("IAudioEndpointVolume: %v", err)}
	}

	initialMuted, err := volume.getMute()
	if err != nil {
		initialMuted = false
	}

	m := &WasapiMonitor{
		volume:     volume,
		device:     device,
		enumerator: enumerator,
		muted:      initialMuted,
		sig:        newSignal(),
	}
	m.callback = newEndpointVolumeCallback(func(muted bool) {
		m.mu.Lock()
		m.muted = muted
		m.mu.Unlock()
		m.sig.raise()
	})

	if err := volume.registerControlChangeNotify(m.callback); err != nil {
		volume.Release()
		device.Release()
		enumerator.Release()
		return nil, &AudioError{Kind: InitFailed, Msg: fmt.Sprintf("RegisterControlChangeNotify: %v", err)}
	}

	return m, nil
}

func (m *WasapiMonitor) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *WasapiMonitor) SetMuted(muted bool) error {
	if err := m.volume.setMute(muted); err != nil {
		return &AudioError{Kind: OperationFailed, Msg: fmt.Sprintf("SetMute: %v", err)}
	}
	return nil
}

func (m *WasapiMonitor) WaitForChange(timeout time.Duration) bool {
	return waitOnSignal(m.sig, timeout)
}

func (m *WasapiMonitor) Refresh() {}

// Close unregisters the COM callback and releases the interfaces. Must be
// called from the same thread that called NewWasapiMonitor, before that
// thread calls CoUninitialize.
func (m *WasapiMonitor) Close() error {
	err := m.volume.unregisterControlChangeNotify(m.callback)
	m.volume.Release()
	m.device.Release()
	m.enumerator.Release()
	return err
}
