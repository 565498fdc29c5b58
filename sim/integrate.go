package sim

import "gonum.org/v1/gonum/spatial/r2"

// integrateChunk advances agents in [lo, hi) by one tick. Each agent reads
// only its own accumulator slot and writes only its own position and
// velocity, so chunks are safe to run concurrently.
func (s *Simulation) integrateChunk(lo, hi int) {
	f := &s.cfg.Flock
	for i := lo; i < hi; i++ {
		a := &s.acc[i]
		pos := s.pos[i]
		vel := s.vel[i]

		var steerSep, steerAlign, steerCoh r2.Vec

		if a.alignCohCount > 0 {
			inv := 1 / float64(a.alignCohCount)

			avgPos := r2.Scale(inv, a.cohPos)
			desired := clip(scaleTo(r2.Sub(avgPos, pos), f.Speed, f.Eps), f.Speed, f.Eps)
			steerCoh = r2.Scale(f.WCoh, r2.Sub(desired, vel))

			avgVel := r2.Scale(inv, a.alignVel)
			desired = clip(avgVel, f.Speed, f.Eps)
			steerAlign = r2.Scale(f.WAlign, r2.Sub(desired, vel))
		}

		if a.sepCount > 0 {
			avgSep := r2.Scale(1/float64(a.sepCount), a.sepSum)
			desired := clip(avgSep, f.Speed, f.Eps)
			steerSep = r2.Scale(f.WSep, r2.Sub(desired, vel))
		}

		accel := clip(r2.Add(r2.Add(steerSep, steerAlign), steerCoh), f.MaxForce, f.Eps)
		vel = clip(r2.Add(vel, r2.Scale(f.DT, accel)), f.Speed, f.Eps)
		pos = wrapVec(r2.Add(pos, r2.Scale(f.DT, vel)), s.cfg.World.Width, s.cfg.World.Height)

		s.vel[i] = vel
		s.pos[i] = pos
	}
}
