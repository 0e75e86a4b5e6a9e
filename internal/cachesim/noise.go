package cachesim

import (
	"math/rand"

	"l1probe/internal/probe"
)

// Corruption is how a noisy trial distorts the latency signal.
type Corruption int

const (
	Clean Corruption = iota
	// Reverse mirrors every latency inside [Hit, Miss], so jumps become drops.
	Reverse
	// Randomize replaces every latency with a uniform draw from [Hit, Miss].
	Randomize
)

// Noisy wraps a timer and corrupts the trials Plan selects.
type Noisy struct {
	Inner     probe.Timer
	Hit, Miss float64
	Plan      func(phase probe.Phase, trial int) Corruption
	Rng       *rand.Rand

	mode Corruption
}

// BeginTrial implements probe.TrialObserver.
func (n *Noisy) BeginTrial(phase probe.Phase, trial int) {
	n.mode = Clean
	if n.Plan != nil {
		n.mode = n.Plan(phase, trial)
	}
	if obs, ok := n.Inner.(probe.TrialObserver); ok {
		obs.BeginTrial(phase, trial)
	}
}

// Measure implements probe.Timer.
func (n *Noisy) Measure(slots []uint32, steps int) float64 {
	t := n.Inner.Measure(slots, steps)
	switch n.mode {
	case Reverse:
		return n.Hit + n.Miss - t
	case Randomize:
		return n.Hit + n.Rng.Float64()*(n.Miss-n.Hit)
	}
	return t
}
