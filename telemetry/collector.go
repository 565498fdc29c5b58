package telemetry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Collector accumulates per-tick samples into fixed windows of simulated
// time and emits one WindowStats per completed window.
type Collector struct {
	windowTicks int64
	dt          float64

	windowStart int64
	ticksSeen   int64
	neighborSum float64
}

// NewCollector creates a collector with windows of windowSec simulated
// seconds at the given tick length. Windows shorter than one tick collapse
// to one tick per window.
func NewCollector(windowSec, dt float64) *Collector {
	ticks := int64(math.Round(windowSec / dt))
	if ticks < 1 {
		ticks = 1
	}
	return &Collector{windowTicks: ticks, dt: dt}
}

// Observe records one completed tick. tick is the completed tick count,
// vels the velocity snapshot after that tick, meanNeighbors the mean
// visible-neighbor count of the tick. When the observation closes a window,
// the window's stats are returned with ok=true.
func (c *Collector) Observe(tick int64, vels []r2.Vec, meanNeighbors float64) (stats WindowStats, ok bool) {
	if c.ticksSeen == 0 {
		c.windowStart = tick - 1
	}
	c.ticksSeen++
	c.neighborSum += meanNeighbors

	if c.ticksSeen < c.windowTicks {
		return WindowStats{}, false
	}

	fs := ComputeFlockStats(vels)
	stats = WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   tick,
		SimTimeSec:      float64(tick) * c.dt,
		Agents:          len(vels),
		SpeedMean:       fs.SpeedMean,
		SpeedStd:        fs.SpeedStd,
		SpeedMin:        fs.SpeedMin,
		SpeedMax:        fs.SpeedMax,
		Polarization:    fs.Polarization,
		NeighborMean:    c.neighborSum / float64(c.ticksSeen),
	}

	c.ticksSeen = 0
	c.neighborSum = 0
	return stats, true
}
