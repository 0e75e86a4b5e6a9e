// Package detect infers L1 data cache geometry from pointer-chase latencies.
//
// Detection is a strict pipeline: associativity and capacity come first, from
// stride sweeps that look for the way count at which latency jumps; the line
// size is then found with that geometry fixed, from a sweep over candidate
// line widths that looks for a latency drop. Both stages repeat independent
// trials and keep the most frequent answer.
package detect

import (
	"errors"
	"fmt"

	"l1probe/internal/probe"
)

// ErrInconclusive means no trial saw its latency threshold crossed.
var ErrInconclusive = errors.New("detection inconclusive")

// Geometry is the inferred cache shape. Zero fields are unknown.
type Geometry struct {
	Associativity int
	Capacity      int
	LineSize      int
}

// WayBytes returns the bytes a single way covers, or 0 when unknown.
func (g Geometry) WayBytes() int {
	if g.Associativity == 0 {
		return 0
	}
	return g.Capacity / g.Associativity
}

// Sets returns the number of sets, or 0 when the line size is unknown.
func (g Geometry) Sets() int {
	if g.LineSize == 0 {
		return 0
	}
	return g.WayBytes() / g.LineSize
}

func geometryLess(a, b Geometry) bool {
	if a.Capacity != b.Capacity {
		return a.Capacity < b.Capacity
	}
	return a.Associativity < b.Associativity
}

// Config holds the sweep bounds, thresholds and trial counts.
type Config struct {
	MinStride      int // bytes, doubled up to MaxStride (exclusive)
	MaxStride      int
	MinAssoc       int // way counts, stepped by AssocStep up to MaxAssoc (exclusive)
	MaxAssoc       int
	AssocStep      int
	AssocThreshold float64
	AssocTrials    int

	MinLineElems  int // first candidate line, in arena slots
	LineThreshold float64
	LineTrials    int
}

// DefaultConfig returns the sweep used for real hardware.
func DefaultConfig() Config {
	return Config{
		MinStride:      1 << 10,
		MaxStride:      1 << 16,
		MinAssoc:       4,
		MaxAssoc:       32,
		AssocStep:      2,
		AssocThreshold: 1.2,
		AssocTrials:    20,

		MinLineElems:  8,
		LineThreshold: 1.2,
		LineTrials:    20,
	}
}

// Sample is one measurement taken during a sweep. For the associativity
// phase Stride and Spots describe the chain; for the line-size phase
// LineSize does.
type Sample struct {
	Phase    probe.Phase
	Trial    int
	Stride   int
	Spots    int
	LineSize int
	Latency  float64
}

// Detector runs both detection stages against one Prober.
type Detector struct {
	prober *probe.Prober
	cfg    Config

	// Trace, if set, receives every sample as it is measured.
	Trace func(Sample)
}

// New returns a Detector using cfg.
func New(p *probe.Prober, cfg Config) *Detector {
	return &Detector{prober: p, cfg: cfg}
}

// Run detects associativity and capacity, then the line size. On
// ErrInconclusive the returned geometry holds whatever was found.
func (d *Detector) Run() (Geometry, error) {
	g, err := d.Associativity()
	if err != nil {
		return g, err
	}
	return d.LineSize(g)
}

func (d *Detector) beginTrial(phase probe.Phase, trial int) {
	if obs, ok := d.prober.Timer().(probe.TrialObserver); ok {
		obs.BeginTrial(phase, trial)
	}
}

func (d *Detector) trace(s Sample) {
	if d.Trace != nil {
		d.Trace(s)
	}
}

func inconclusive(stage string) error {
	return fmt.Errorf("%s: %w", stage, ErrInconclusive)
}
