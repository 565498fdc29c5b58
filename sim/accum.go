package sim

import "gonum.org/v1/gonum/spatial/r2"

// accumulator aggregates one agent's rule contributions over a single tick.
// The zero value is the identity; merge is associative and commutative, so
// per-worker partial sums can be combined in any order.
type accumulator struct {
	alignVel      r2.Vec // sum of visible neighbor velocities
	cohPos        r2.Vec // sum of visible neighbor positions (wrapped into this agent's frame)
	sepSum        r2.Vec // sum of distance-weighted repulsion vectors
	alignCohCount int
	sepCount      int
}

// merge folds another accumulator into a.
func (a *accumulator) merge(b *accumulator) {
	a.alignVel = r2.Add(a.alignVel, b.alignVel)
	a.cohPos = r2.Add(a.cohPos, b.cohPos)
	a.sepSum = r2.Add(a.sepSum, b.sepSum)
	a.alignCohCount += b.alignCohCount
	a.sepCount += b.sepCount
}

// reset restores the identity.
func (a *accumulator) reset() {
	*a = accumulator{}
}

func resetAccumulators(accs []accumulator) {
	for i := range accs {
		accs[i].reset()
	}
}
