//go:build linux

package probe

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinThread locks the calling goroutine to its OS thread and binds that
// thread to the first CPU it is allowed to run on. It returns the CPU.
// The goroutine stays locked even if binding fails.
func PinThread() (int, error) {
	runtime.LockOSThread()

	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return -1, fmt.Errorf("sched_getaffinity: %w", err)
	}
	cpu := -1
	for i := 0; i < len(allowed)*64; i++ {
		if allowed.IsSet(i) {
			cpu = i
			break
		}
	}
	if cpu < 0 {
		return -1, errors.New("empty affinity set")
	}

	var one unix.CPUSet
	one.Set(cpu)
	if err := unix.SchedSetaffinity(0, &one); err != nil {
		return -1, fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
	}
	return cpu, nil
}
