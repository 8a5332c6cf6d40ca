// Package audio detects and debounces the host's default capture-device
// mute state, and composes that with an LED mute strategy into the
// indicator state machine the supervisor drives.
package audio

// MuteDebouncer filters transient flicker out of a raw mute poll stream:
// a new state must be observed threshold consecutive times before it is
// reported as confirmed.
type MuteDebouncer struct {
	threshold uint32
	current   bool
	pending   bool
	stable    uint32
}

// NewMuteDebouncer creates a debouncer with the given threshold and
// initial confirmed state.
func NewMuteDebouncer(threshold uint32, initial bool) *MuteDebouncer {
	return &MuteDebouncer{threshold: threshold, current: initial, pending: initial}
}

// Update feeds a new poll result. It returns (changed, newState): changed
// is true only once a new state has been stable for threshold
// consecutive calls, at which point newState is the confirmed value.
func (d *MuteDebouncer) Update(muted bool) (changed bool, newState bool) {
	if muted != d.current {
		if muted == d.pending {
			d.stable++
		} else {
			d.pending = muted
			d.stable = 1
		}
		if d.stable >= d.threshold {
			d.current = muted
			d.stable = 0
			return true, muted
		}
	} else {
		d.pending = d.current
		d.stable = 0
	}
	return false, d.current
}

// IsMuted returns the current confirmed mute state.
func (d *MuteDebouncer) IsMuted() bool {
	return d.current
}

// ForceState syncs the confirmed state to muted without going through
// debounce and without reporting a transition, for syncing to an
// authoritative source (e.g. a startup read) at initialization.
func (d *MuteDebouncer) ForceState(muted bool) {
	d.current = muted
	d.pending = muted
	d.stable = 0
}
