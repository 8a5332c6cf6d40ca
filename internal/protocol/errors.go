package protocol

import "fmt"

// Kind classifies a DeviceError so callers can branch on failure category
// without string matching.
type Kind int

const (
	// KindNotFound means no matching device was present.
	KindNotFound Kind = iota
	// KindBusy means the device is claimed by another process.
	KindBusy
	// KindForbidden means the caller attempted a write to a protected field.
	KindForbidden
	// KindProtocol means an unexpected response shape, bad session token,
	// or schema decode failure.
	KindProtocol
	// KindIo means an underlying OS error.
	KindIo
	// KindTimeout means the 1000ms wall-clock transact budget was exceeded.
	KindTimeout
	// KindUnsupported means the product id is not a supported variant.
	KindUnsupported
	// KindTransient means the device reported a well-known retryable code.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBusy:
		return "busy"
	case KindForbidden:
		return "forbidden"
	case KindProtocol:
		return "protocol"
	case KindIo:
		return "io"
	case KindTimeout:
		return "timeout"
	case KindUnsupported:
		return "unsupported"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// DeviceError is the single error type returned by transport, protocol,
// and LED operations. Wrap with fmt.Errorf("%w", ...) where a caller needs
// to attach context; errors.Is/errors.As work against Kind via Is().
type DeviceError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &DeviceError{Kind: KindTimeout}) match on Kind
// alone, ignoring Msg/Err.
func (e *DeviceError) Is(target error) bool {
	t, ok := target.(*DeviceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, msg string, err error) *DeviceError {
	return &DeviceError{Kind: kind, Msg: msg, Err: err}
}

func NotFound(msg string) *DeviceError       { return newErr(KindNotFound, msg, nil) }
func Busy(msg string) *DeviceError           { return newErr(KindBusy, msg, nil) }
func Forbidden(msg string) *DeviceError      { return newErr(KindForbidden, msg, nil) }
func Protocol(msg string) *DeviceError       { return newErr(KindProtocol, msg, nil) }
func Unsupported(msg string) *DeviceError    { return newErr(KindUnsupported, msg, nil) }
func Transient(msg string, err error) *DeviceError {
	return newErr(KindTransient, msg, err)
}
func Io(msg string, err error) *DeviceError {
	return newErr(KindIo, msg, err)
}
func Timeout(msg string) *DeviceError { return newErr(KindTimeout, msg, nil) }
