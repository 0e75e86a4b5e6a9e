package detect

import (
	"fmt"

	"l1probe/internal/probe"
	"l1probe/internal/vote"
)

// LineSize sweeps candidate line widths over the sets of g and returns g with
// LineSize filled in. g must come from Associativity.
func (d *Detector) LineSize(g Geometry) (Geometry, error) {
	if g.Associativity < 1 || g.Capacity < g.Associativity {
		return g, fmt.Errorf("line size on %+v: %w", g, probe.ErrGeometry)
	}
	g.LineSize = 0

	line, _, ok := vote.Repeat(d.cfg.LineTrials, func(trial int) (int, bool) {
		return d.lineTrial(g, trial)
	}, func(a, b int) bool { return a < b })
	if !ok {
		return g, inconclusive("line size")
	}
	g.LineSize = line
	return g, nil
}

// lineTrial doubles the candidate line until walking within a candidate gets
// sharply cheaper than the previous candidate, and returns that candidate.
func (d *Detector) lineTrial(g Geometry, trial int) (int, bool) {
	d.beginTrial(probe.PhaseLineSize, trial)

	prevTime := -1.0
	for line := max(d.cfg.MinLineElems, 1) * probe.ElemSize; line <= g.WayBytes(); line *= 2 {
		n, err := d.prober.LineChain(g.Associativity, g.Capacity, line)
		if err != nil {
			break
		}
		t := d.prober.Measure(n)
		d.trace(Sample{Phase: probe.PhaseLineSize, Trial: trial, LineSize: line, Spots: n, Latency: t})

		if prevTime/t > d.cfg.LineThreshold {
			return line, true
		}
		prevTime = t
	}
	return 0, false
}
