//go:build !linux

package affinity

import "errors"

// errUnsupported is returned by PinCurrentThread on platforms without a
// CPU-affinity syscall this package knows how to drive.
var errUnsupported = errors.New("affinity: core pinning is not supported on this platform")

// PinCurrentThread is a no-op outside of Linux: it reports errUnsupported so
// callers can decide whether placement is required or merely advisory.
func PinCurrentThread(core int) (Pin, error) {
	return Pin{}, errUnsupported
}
