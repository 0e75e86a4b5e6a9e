// Package cachesim provides deterministic latency models that stand in for
// wall-clock timing. Each model walks the chain written into the arena from
// slot 0 and scores it against a configured cache.
package cachesim

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"l1probe/internal/probe"
)

// Config describes the modelled cache and the latency of a hit and a miss.
type Config struct {
	Capacity      int // bytes
	Associativity int
	LineSize      int // bytes
	Hit           float64
	Miss          float64
}

// DefaultL1D is a 32 KiB, 8-way cache with 64-byte lines.
func DefaultL1D() Config {
	return Config{
		Capacity:      32768,
		Associativity: 8,
		LineSize:      64,
		Hit:           1,
		Miss:          4,
	}
}

// Sets returns the number of sets.
func (c Config) Sets() int {
	return c.Capacity / (c.Associativity * c.LineSize)
}

// chase returns the byte addresses of steps chase steps starting at slot 0.
func chase(slots []uint32, steps int) []uint64 {
	addrs := make([]uint64, steps)
	var curr uint32
	for i := range addrs {
		addrs[i] = uint64(curr) * probe.ElemSize
		curr = slots[curr]
	}
	return addrs
}

// ConflictModel returns Hit when no set would hold more distinct lines than
// it has ways, and Miss otherwise.
type ConflictModel struct {
	Config
}

// Measure implements probe.Timer.
func (m ConflictModel) Measure(slots []uint32, steps int) float64 {
	line := uint64(m.LineSize)
	sets := uint64(m.Sets())

	lines := make(map[uint64]struct{})
	perSet := make(map[uint64]int)
	for _, addr := range chase(slots, steps) {
		l := addr / line
		if _, ok := lines[l]; ok {
			continue
		}
		lines[l] = struct{}{}
		perSet[l%sets]++
		if perSet[l%sets] > m.Associativity {
			return m.Miss
		}
	}
	return m.Hit
}

// LRUModel simulates a set-associative cache with LRU replacement. The chain
// is played twice and the second, steady-state pass is scored.
type LRUModel struct {
	Config
}

// Measure implements probe.Timer.
func (m LRUModel) Measure(slots []uint32, steps int) float64 {
	dir := akitacache.NewDirectory(m.Sets(), m.Associativity, m.LineSize, akitacache.NewLRUVictimFinder())
	addrs := chase(slots, steps)
	line := uint64(m.LineSize)

	misses := 0
	for pass := 0; pass < 2; pass++ {
		misses = 0
		for _, addr := range addrs {
			blockAddr := addr / line * line
			if block := dir.Lookup(0, blockAddr); block != nil && block.IsValid {
				dir.Visit(block)
				continue
			}
			misses++
			victim := dir.FindVictim(blockAddr)
			victim.Tag = blockAddr
			victim.IsValid = true
			dir.Visit(victim)
		}
	}

	hits := len(addrs) - misses
	return (float64(hits)*m.Hit + float64(misses)*m.Miss) / float64(len(addrs))
}
