//go:build linux || darwin

package probe

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func mapSlots(n int) ([]uint32, func() error, error) {
	buf, err := unix.Mmap(-1, 0, n*ElemSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %d bytes: %w", n*ElemSize, err)
	}
	slots := unsafe.Slice((*uint32)(unsafe.Pointer(&buf[0])), n)
	return slots, func() error { return unix.Munmap(buf) }, nil
}
