package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// kernelChunk folds rule contributions for every pair whose sweep unit lies
// in [lo, hi) into acc. acc is a full-length per-agent buffer owned by one
// worker, so pair processing never races; partial buffers are merged after
// the phase through the commutative accumulator merge.
func (s *Simulation) kernelChunk(lo, hi int, acc []accumulator) {
	s.grid.forEachPairIn(s.pos, lo, hi, func(i, j int, distSq float64, off r2.Vec) {
		d := math.Sqrt(distSq)
		// Both view directions are evaluated independently: each side gates
		// on its own heading, so a pair may feed one accumulator, both, or
		// neither. Collapsing this into one symmetric check would change the
		// sums whenever only one side's field of view includes the other.
		s.observe(i, j, off, d, distSq, acc)
		s.observe(j, i, r2.Scale(-1, off), d, distSq, acc)
	})
}

// observe evaluates viewer looking at seen through the wrapped offset
// viewer->seen and, if visible, folds the alignment, cohesion and
// separation contributions into the viewer's accumulator.
func (s *Simulation) observe(viewer, seen int, off r2.Vec, d, distSq float64, acc []accumulator) {
	eps := s.cfg.Flock.Eps

	// An agent with near-zero velocity has no heading reference and
	// perceives nothing; that is policy, not an error.
	vel := s.vel[viewer]
	speed := r2.Norm(vel)
	if speed <= eps {
		return
	}
	if r2.Dot(vel, off)/(speed*d+eps) < s.cosHalfFOV {
		return
	}

	a := &acc[viewer]
	a.alignVel = r2.Add(a.alignVel, s.vel[seen])
	a.cohPos = r2.Add(a.cohPos, r2.Add(s.pos[viewer], off))
	a.alignCohCount++

	if distSq < s.sepDistSq {
		a.sepSum = r2.Add(a.sepSum, r2.Scale(-1/(distSq+eps), off))
		a.sepCount++
	}
}
