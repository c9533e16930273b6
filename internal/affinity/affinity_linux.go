//go:build linux

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its current OS thread and
// restricts that thread's CPU affinity to core. The caller must not unlock
// the OS thread itself; call Pin.Unpin instead, which restores the thread's
// original affinity mask before releasing the lock.
func PinCurrentThread(core int) (Pin, error) {
	runtime.LockOSThread()

	var before unix.CPUSet
	if err := unix.SchedGetaffinity(0, &before); err != nil {
		runtime.UnlockOSThread()
		return Pin{}, fmt.Errorf("affinity: read current mask: %w", err)
	}

	var want unix.CPUSet
	want.Set(core)

	if err := unix.SchedSetaffinity(0, &want); err != nil {
		runtime.UnlockOSThread()
		return Pin{}, fmt.Errorf("affinity: pin to core %d: %w", core, err)
	}

	return Pin{
		core: core,
		undo: func() {
			_ = unix.SchedSetaffinity(0, &before)
			runtime.UnlockOSThread()
		},
	}, nil
}
