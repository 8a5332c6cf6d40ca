//go:build !windows

package transport

// New returns the platform's Transport variant: raw-USB vendor control
// transfers everywhere the Focusrite kernel driver isn't present.
func New() Transport {
	return NewUSBRaw()
}
