// Package affinity pins the calling OS thread to a specific CPU core, so a
// benchmark can place one goroutine per core and keep it there for the
// duration of a run instead of letting the Go scheduler migrate it across
// NUMA-socket boundaries mid-measurement.
package affinity

// Pin is the handle PinCurrentThread returns after it has locked the
// calling goroutine to its OS thread and pinned that thread to a core.
// PinCurrentThread takes the OS thread lock itself, so it must be called
// from the goroutine that is meant to stay pinned. Unpin releases both the
// core pin and the OS thread lock.
//
// On platforms without a pinning syscall, PinCurrentThread returns an
// error together with a zero Pin whose Unpin does nothing.
type Pin struct {
	core int
	undo func()
}

// Core reports the core this Pin was requested for.
func (p Pin) Core() int { return p.core }

// Unpin releases the pin, if platform support allowed one to be taken.
func (p Pin) Unpin() {
	if p.undo != nil {
		p.undo()
	}
}
