package probe

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrStride is returned for strides narrower than one slot.
	ErrStride = errors.New("probe: stride smaller than one slot")
	// ErrGeometry is returned when a line chain is asked for an impossible layout.
	ErrGeometry = errors.New("probe: invalid geometry")
)

// Prober is the measurement context: the arena, the random source that
// shuffles chains, and the timer. It is not safe for concurrent use.
type Prober struct {
	arena *Arena
	rng   *rand.Rand
	timer Timer
}

// New returns a Prober. A nil rng is seeded from the clock and a nil timer is
// replaced with a ChaseTimer.
func New(arena *Arena, rng *rand.Rand, timer Timer) *Prober {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if timer == nil {
		timer = &ChaseTimer{}
	}
	return &Prober{arena: arena, rng: rng, timer: timer}
}

// Timer returns the timer measurements go through.
func (p *Prober) Timer() Timer { return p.timer }

// Arena returns the backing arena.
func (p *Prober) Arena() *Arena { return p.arena }

// Measure times the chain currently in the arena.
func (p *Prober) Measure(steps int) float64 {
	if steps < 1 {
		steps = 1
	}
	return p.timer.Measure(p.arena.slots, steps)
}

// StrideChain writes a random single cycle over spots slots placed
// strideBytes apart and returns its length. Slot 0 is always on the cycle.
func (p *Prober) StrideChain(spots, strideBytes int) (int, error) {
	if spots < 1 {
		spots = 1
	}
	stride := strideBytes / ElemSize
	if stride < 1 {
		return 0, fmt.Errorf("stride %d bytes: %w", strideBytes, ErrStride)
	}
	if (spots-1)*stride >= p.arena.Len() {
		return 0, fmt.Errorf("%d spots at stride %d: %w", spots, strideBytes, ErrArenaTooSmall)
	}

	pos := make([]uint32, spots)
	for i := range pos {
		pos[i] = uint32(i * stride)
	}
	p.rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	p.link(pos)
	return spots, nil
}

// LineChain lays out assoc tags per line index, lineBytes/ElemSize
// consecutive slots per line, capacity/assoc/lineBytes line indices, and
// links all of them into one cycle anchored at slot 0.
func (p *Prober) LineChain(assoc, capacity, lineBytes int) (int, error) {
	if assoc < 1 || capacity < assoc || capacity%assoc != 0 || lineBytes < ElemSize {
		return 0, fmt.Errorf("assoc %d capacity %d line %d: %w", assoc, capacity, lineBytes, ErrGeometry)
	}
	offset := capacity / assoc
	lines := offset / lineBytes
	if lines < 1 {
		return 0, fmt.Errorf("line %d wider than way %d: %w", lineBytes, offset, ErrGeometry)
	}
	perLine := lineBytes / ElemSize

	last := ((lines-1)*lineBytes+(assoc-1+(lines-1)*assoc)*offset)/ElemSize + perLine - 1
	if last >= p.arena.Len() {
		return 0, fmt.Errorf("line chain reaches slot %d: %w", last, ErrArenaTooSmall)
	}

	pos := make([]uint32, 0, lines*assoc*perLine)
	for idx := 0; idx < lines; idx++ {
		for tag := 0; tag < assoc; tag++ {
			base := (idx*lineBytes + (tag+idx*assoc)*offset) / ElemSize
			for el := 0; el < perLine; el++ {
				pos = append(pos, uint32(base+el))
			}
		}
	}

	rest := pos[1:]
	p.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	p.link(pos)
	return len(pos), nil
}

func (p *Prober) link(pos []uint32) {
	slots := p.arena.slots
	for i, at := range pos {
		slots[at] = pos[(i+1)%len(pos)]
	}
}
