// Package probe owns the memory arena that pointer-chase chains are written
// into, the random source used to shuffle them, and the timer that measures a
// chase.
package probe

import "errors"

// ElemSize is the width in bytes of one arena slot.
const ElemSize = 4

// DefaultSlots sizes the arena far beyond any plausible L1D (32 MiB).
const DefaultSlots = 1 << 23

// ErrArenaTooSmall is returned when a chain would reach past the arena.
var ErrArenaTooSmall = errors.New("probe: chain does not fit in arena")

// Arena is a block of chase links. Every slot holds the index of the next
// slot to visit; contents only mean something for the chain written last.
type Arena struct {
	slots   []uint32
	release func() error
}

// NewArena allocates an arena of n slots. It prefers page-aligned anonymous
// memory and falls back to the Go heap when that is unavailable.
func NewArena(n int) *Arena {
	if n < 1 {
		n = 1
	}
	slots, release, err := mapSlots(n)
	if err != nil {
		return &Arena{slots: make([]uint32, n)}
	}
	return &Arena{slots: slots, release: release}
}

// Slots returns the backing links.
func (a *Arena) Slots() []uint32 { return a.slots }

// Len returns the number of slots.
func (a *Arena) Len() int { return len(a.slots) }

// Close unmaps the arena. The arena must not be used afterwards.
func (a *Arena) Close() error {
	release := a.release
	a.slots, a.release = nil, nil
	if release == nil {
		return nil
	}
	return release()
}
