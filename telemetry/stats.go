// Package telemetry aggregates flock statistics and step timings over
// fixed windows and exports them via slog and CSV.
package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated flock statistics for a time window.
// All values are computed from read-only position/velocity snapshots taken
// between ticks.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Agents int `csv:"agents"`

	// Speed distribution at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedMin  float64 `csv:"speed_min"`
	SpeedMax  float64 `csv:"speed_max"`

	// Polarization is the magnitude of the mean unit heading: 1 when the
	// whole flock moves the same way, near 0 when headings are uniform.
	Polarization float64 `csv:"polarization"`

	// Mean visible-neighbor count per agent, averaged over the window.
	NeighborMean float64 `csv:"neighbor_mean"`
}

// FlockStats holds instantaneous statistics of one velocity snapshot.
type FlockStats struct {
	SpeedMean    float64
	SpeedStd     float64
	SpeedMin     float64
	SpeedMax     float64
	Polarization float64
}

// ComputeFlockStats calculates speed and polarization statistics from a
// velocity snapshot. Agents with zero velocity carry no heading and are
// excluded from the polarization average.
func ComputeFlockStats(vels []r2.Vec) FlockStats {
	n := len(vels)
	if n == 0 {
		return FlockStats{}
	}

	speeds := make([]float64, n)
	var headingSum r2.Vec
	moving := 0
	for i, v := range vels {
		sp := r2.Norm(v)
		speeds[i] = sp
		if sp > 0 {
			headingSum = r2.Add(headingSum, r2.Scale(1/sp, v))
			moving++
		}
	}

	s := FlockStats{
		SpeedMean: stat.Mean(speeds, nil),
		SpeedMin:  speeds[0],
		SpeedMax:  speeds[0],
	}
	if n > 1 {
		s.SpeedStd = stat.StdDev(speeds, nil)
	}
	for _, sp := range speeds[1:] {
		if sp < s.SpeedMin {
			s.SpeedMin = sp
		}
		if sp > s.SpeedMax {
			s.SpeedMax = sp
		}
	}
	if moving > 0 {
		s.Polarization = r2.Norm(headingSum) / float64(moving)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_min", s.SpeedMin),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("neighbor_mean", s.NeighborMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_min", s.SpeedMin,
		"speed_max", s.SpeedMax,
		"polarization", s.Polarization,
		"neighbor_mean", s.NeighborMean,
	)
}
