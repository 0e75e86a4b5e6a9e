//go:build !linux

package probe

import (
	"errors"
	"runtime"
)

// PinThread locks the calling goroutine to its OS thread. CPU binding is only
// implemented on Linux.
func PinThread() (int, error) {
	runtime.LockOSThread()
	return -1, errors.New("cpu affinity not supported on " + runtime.GOOS)
}
