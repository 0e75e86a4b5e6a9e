//go:build !linux && !darwin

package probe

import "errors"

func mapSlots(n int) ([]uint32, func() error, error) {
	return nil, nil, errors.New("anonymous mmap not supported")
}
