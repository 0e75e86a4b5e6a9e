package detect

import (
	"l1probe/internal/probe"
	"l1probe/internal/vote"
)

// Associativity sweeps strides and way counts to find the point where one
// more conflicting way makes latency jump. The returned geometry has
// Associativity and Capacity set.
func (d *Detector) Associativity() (Geometry, error) {
	g, _, ok := vote.Repeat(d.cfg.AssocTrials, d.assocTrial, geometryLess)
	if !ok {
		return Geometry{}, inconclusive("associativity")
	}
	return g, nil
}

// assocTrial runs one full stride sweep. Every jump votes for the capacity
// reached just before it; the most-voted capacity wins the trial, paired with
// the way count that last voted for it.
func (d *Detector) assocTrial(trial int) (Geometry, bool) {
	d.beginTrial(probe.PhaseAssociativity, trial)

	var sizes vote.Tally[int]
	ways := make(map[int]int)

	step := d.cfg.AssocStep
	if step < 1 {
		step = 1
	}
	for stride := max(d.cfg.MinStride, probe.ElemSize); stride < d.cfg.MaxStride; stride *= 2 {
		// A negative previous time keeps the first ratio below threshold.
		prevTime := -1.0
		prevSpots := 1

		for spots := d.cfg.MinAssoc; spots < d.cfg.MaxAssoc; spots += step {
			n, err := d.prober.StrideChain(spots, stride)
			if err != nil {
				break
			}
			t := d.prober.Measure(n)
			d.trace(Sample{Phase: probe.PhaseAssociativity, Trial: trial, Stride: stride, Spots: n, Latency: t})

			if t/prevTime > d.cfg.AssocThreshold {
				capacity := prevSpots * stride
				sizes.Add(capacity)
				ways[capacity] = prevSpots
			}
			prevTime, prevSpots = t, n
		}
	}

	capacity, _, ok := sizes.Mode(func(a, b int) bool { return a < b })
	if !ok {
		return Geometry{}, false
	}
	return Geometry{Associativity: ways[capacity], Capacity: capacity}, true
}
