package probe

import "time"

// DefaultSteps is the number of timed chase steps per measurement.
const DefaultSteps = 1 << 20

// A Timer reports the average latency, in nanoseconds, of one access of the
// chain currently written into slots. steps is the chain length.
type Timer interface {
	Measure(slots []uint32, steps int) float64
}

// Phase identifies which detector is running.
type Phase int

const (
	PhaseAssociativity Phase = iota
	PhaseLineSize
)

func (p Phase) String() string {
	switch p {
	case PhaseAssociativity:
		return "associativity"
	case PhaseLineSize:
		return "line size"
	}
	return "unknown"
}

// TrialObserver is implemented by timers that want to know when a detector
// starts a new trial.
type TrialObserver interface {
	BeginTrial(phase Phase, trial int)
}

// ChaseTimer measures a chain by walking it on the real memory hierarchy.
type ChaseTimer struct {
	// Steps is the number of timed chase steps. Zero means DefaultSteps.
	Steps int

	sink uint32
}

// Measure warms the chain up with steps accesses, then times Steps accesses
// starting again from slot 0.
func (t *ChaseTimer) Measure(slots []uint32, steps int) float64 {
	count := t.Steps
	if count <= 0 {
		count = DefaultSteps
	}

	var curr uint32
	for i := 0; i < steps; i++ {
		curr = slots[curr]
	}
	t.sink ^= curr
	curr = 0

	start := time.Now()
	for i := 0; i < count; i++ {
		curr = slots[curr]
	}
	elapsed := time.Since(start).Nanoseconds()

	// The sink keeps every load observable.
	t.sink ^= curr
	if t.sink == 0 {
		elapsed++
	}
	return float64(elapsed) / float64(count)
}

// Sink returns the accumulated chase values.
func (t *ChaseTimer) Sink() uint32 { return t.sink }
