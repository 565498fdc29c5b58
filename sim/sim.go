// Package sim implements the per-tick flocking update pipeline: spatial
// neighbor discovery over a toroidal 2-D world, a pairwise interaction
// kernel with directional field-of-view gating, a commutative per-agent
// reduction, and a bounded-force integrator.
package sim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
)

// Simulation owns the agent store and advances it one fixed tick per Step
// call. There is no hidden global state and no hidden timer: the caller
// decides the tick cadence.
type Simulation struct {
	cfg *config.Config
	rng *rand.Rand

	// Agent store: structure-of-arrays, agent id = index. Mutated only by
	// the integrator, in place, once per tick.
	pos []r2.Vec
	vel []r2.Vec

	// acc is the merged per-agent accumulator for the current tick;
	// workerAcc holds one full-length partial buffer per worker chunk.
	acc       []accumulator
	workerAcc [][]accumulator

	grid *pairGrid
	pool *workerPool

	// Derived from config at construction.
	cosHalfFOV float64
	sepDistSq  float64

	perf *telemetry.PerfCollector
	tick int64
}

// New validates cfg, builds the agent store and randomizes it.
// The seed fully determines the initial state.
func New(cfg *config.Config, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Flock.Agents
	pool := newWorkerPool(cfg.Runtime.Workers)

	s := &Simulation{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(seed)),
		pos:        make([]r2.Vec, n),
		vel:        make([]r2.Vec, n),
		acc:        make([]accumulator, n),
		grid:       newPairGrid(cfg.World.Width, cfg.World.Height, cfg.Flock.Perception),
		pool:       pool,
		cosHalfFOV: math.Cos(cfg.Flock.FOVDeg * math.Pi / 360),
		sepDistSq:  cfg.Flock.SeparationDist * cfg.Flock.SeparationDist,
	}

	s.workerAcc = make([][]accumulator, pool.numWorkers)
	for i := range s.workerAcc {
		s.workerAcc[i] = make([]accumulator, n)
	}

	s.Randomize()
	return s, nil
}

// Randomize re-draws every agent: position uniform over the world, velocity
// a random unit heading scaled to the configured speed.
func (s *Simulation) Randomize() {
	w, h := s.cfg.World.Width, s.cfg.World.Height
	speed := s.cfg.Flock.Speed
	for i := range s.pos {
		s.pos[i] = r2.Vec{X: s.rng.Float64() * w, Y: s.rng.Float64() * h}
		heading := s.rng.Float64() * 2 * math.Pi
		s.vel[i] = r2.Vec{X: math.Cos(heading) * speed, Y: math.Sin(heading) * speed}
	}
}

// Step advances the simulation by exactly one tick: rebuild the spatial
// grid, reset the accumulators, run the interaction kernel and integrate.
// It is a pure function of the current state and config.
func (s *Simulation) Step() error {
	n := len(s.pos)

	if s.perf != nil {
		s.perf.StartTick()
		defer s.perf.EndTick()
	}

	s.startPhase(telemetry.PhaseSpatialGrid)
	s.grid.rebuild(s.pos)

	s.startPhase(telemetry.PhaseKernel)
	resetAccumulators(s.acc)
	s.runKernel(n)

	s.startPhase(telemetry.PhaseIntegrate)
	if n < parallelThreshold || s.pool.numWorkers == 1 {
		s.integrateChunk(0, n)
	} else {
		s.pool.start(s)
		s.pool.dispatch(phaseIntegrate, n)
	}

	s.tick++
	return nil
}

// runKernel executes the pair phase, chunked over grid sweep units, and
// merges the per-chunk partial buffers into the main accumulators. Buffers
// are merged and cleared in chunk order so the reduction is deterministic
// for a fixed worker count.
func (s *Simulation) runKernel(n int) {
	if n < 2 || s.cfg.Flock.Perception <= 0 {
		return
	}

	units := s.grid.pairUnits()
	if n < parallelThreshold || s.pool.numWorkers == 1 {
		s.kernelChunk(0, units, s.workerAcc[0])
		s.mergeWorkerAcc(1)
		return
	}

	s.pool.start(s)
	used := s.pool.dispatch(phaseKernel, units)
	s.mergeWorkerAcc(used)
}

func (s *Simulation) mergeWorkerAcc(used int) {
	for w := 0; w < used; w++ {
		buf := s.workerAcc[w]
		for i := range s.acc {
			s.acc[i].merge(&buf[i])
		}
		resetAccumulators(buf)
	}
}

// Positions returns a read-only view of agent positions. It is safe to read
// between ticks, not concurrently with an in-flight Step.
func (s *Simulation) Positions() []r2.Vec { return s.pos }

// Velocities returns a read-only view of agent velocities, with the same
// contract as Positions.
func (s *Simulation) Velocities() []r2.Vec { return s.vel }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int64 { return s.tick }

// MeanNeighbors reports the mean number of visible neighbors per agent
// during the last completed tick.
func (s *Simulation) MeanNeighbors() float64 {
	if len(s.acc) == 0 {
		return 0
	}
	sum := 0
	for i := range s.acc {
		sum += s.acc[i].alignCohCount
	}
	return float64(sum) / float64(len(s.acc))
}

// AttachPerf wires a perf collector into Step's phase timing.
func (s *Simulation) AttachPerf(p *telemetry.PerfCollector) { s.perf = p }

func (s *Simulation) startPhase(name string) {
	if s.perf != nil {
		s.perf.StartPhase(name)
	}
}

// Close stops the worker pool. The simulation must not be stepped after.
func (s *Simulation) Close() {
	s.pool.stop()
}
