package sim

import (
	"fmt"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// collectPairs runs the grid enumeration and returns pairs keyed i<j.
func collectPairs(g *pairGrid, positions []r2.Vec) map[[2]int]float64 {
	pairs := make(map[[2]int]float64)
	g.rebuild(positions)
	g.forEachPair(positions, func(i, j int, distSq float64, off r2.Vec) {
		if i > j {
			i, j = j, i
		}
		pairs[[2]int{i, j}] = distSq
	})
	return pairs
}

// brutePairs enumerates qualifying pairs exhaustively.
func brutePairs(positions []r2.Vec, w, h, r float64) map[[2]int]float64 {
	pairs := make(map[[2]int]float64)
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			off := toroidalDelta(positions[i], positions[j], w, h)
			if d2 := r2.Norm2(off); d2 < r*r {
				pairs[[2]int{i, j}] = d2
			}
		}
	}
	return pairs
}

func randomPositions(rng *rand.Rand, n int, w, h float64) []r2.Vec {
	positions := make([]r2.Vec, n)
	for i := range positions {
		positions[i] = r2.Vec{X: rng.Float64() * w, Y: rng.Float64() * h}
	}
	return positions
}

func TestGridMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		n       int
		w, h, r float64
	}{
		{200, 200, 150, 25},  // regular grid
		{100, 200, 150, 120}, // oversized radius, exhaustive fallback
		{50, 300, 300, 10},   // sparse
		{300, 100, 100, 33},  // 3x3 grid, wrap-heavy
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d r=%v", tc.n, tc.r), func(t *testing.T) {
			positions := randomPositions(rng, tc.n, tc.w, tc.h)
			g := newPairGrid(tc.w, tc.h, tc.r)

			got := collectPairs(g, positions)
			want := brutePairs(positions, tc.w, tc.h, tc.r)

			if len(got) != len(want) {
				t.Fatalf("pair count = %d, want %d", len(got), len(want))
			}
			for k, d2 := range want {
				gd2, ok := got[k]
				if !ok {
					t.Fatalf("missing pair %v (distSq %v)", k, d2)
				}
				if gd2 != d2 {
					t.Errorf("pair %v distSq = %v, want %v", k, gd2, d2)
				}
			}
		})
	}
}

func TestGridVisitsEachPairOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	positions := randomPositions(rng, 150, 240, 240)
	g := newPairGrid(240, 240, 30)
	g.rebuild(positions)

	seen := make(map[[2]int]int)
	g.forEachPair(positions, func(i, j int, distSq float64, off r2.Vec) {
		if i > j {
			i, j = j, i
		}
		seen[[2]int{i, j}]++
	})

	for k, count := range seen {
		if count != 1 {
			t.Errorf("pair %v visited %d times", k, count)
		}
	}
}

func TestGridWrappedOffset(t *testing.T) {
	positions := []r2.Vec{{X: 1, Y: 50}, {X: 199, Y: 50}}
	g := newPairGrid(200, 100, 25)
	g.rebuild(positions)

	found := false
	g.forEachPair(positions, func(i, j int, distSq float64, off r2.Vec) {
		found = true
		if i > j {
			i, j = j, i
			off = r2.Scale(-1, off)
		}
		// Shortest vector from agent 0 to agent 1 crosses the left edge.
		if off.X != -2 || off.Y != 0 {
			t.Errorf("wrapped offset = %v, want {-2 0}", off)
		}
		if distSq != 4 {
			t.Errorf("distSq = %v, want 4", distSq)
		}
	})
	if !found {
		t.Fatal("expected a pair across the wrap boundary")
	}
}

func TestGridSmallPopulations(t *testing.T) {
	g := newPairGrid(100, 100, 10)

	for _, positions := range [][]r2.Vec{nil, {{X: 5, Y: 5}}} {
		g.rebuild(positions)
		g.forEachPair(positions, func(i, j int, distSq float64, off r2.Vec) {
			t.Errorf("unexpected pair (%d, %d) for %d agents", i, j, len(positions))
		})
	}
}

func TestGridZeroRadius(t *testing.T) {
	positions := []r2.Vec{{X: 5, Y: 5}, {X: 5, Y: 5}}
	g := newPairGrid(100, 100, 0)
	g.rebuild(positions)
	g.forEachPair(positions, func(i, j int, distSq float64, off r2.Vec) {
		t.Error("zero radius must produce no pairs")
	})
}

func TestGridOversizedRadiusDegrades(t *testing.T) {
	// Radius larger than the world: every distinct pair qualifies.
	positions := []r2.Vec{{X: 1, Y: 1}, {X: 50, Y: 80}, {X: 99, Y: 40}}
	g := newPairGrid(100, 100, 500)
	if !g.exhaustive {
		t.Error("expected exhaustive fallback for oversized radius")
	}
	pairs := collectPairs(g, positions)
	if len(pairs) != 3 {
		t.Errorf("pair count = %d, want 3", len(pairs))
	}
}

func TestGridCellSideAtLeastRadius(t *testing.T) {
	g := newPairGrid(1000, 700, 33)
	if g.cellW < g.radius || g.cellH < g.radius {
		t.Errorf("cell side (%v, %v) smaller than radius %v", g.cellW, g.cellH, g.radius)
	}
}

func TestGridChunkedSweepCoversAllPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	positions := randomPositions(rng, 120, 320, 320)
	g := newPairGrid(320, 320, 40)
	g.rebuild(positions)

	// Sweep in disjoint unit ranges, as the parallel kernel does.
	pairs := make(map[[2]int]int)
	units := g.pairUnits()
	for lo := 0; lo < units; lo += 7 {
		hi := lo + 7
		if hi > units {
			hi = units
		}
		g.forEachPairIn(positions, lo, hi, func(i, j int, distSq float64, off r2.Vec) {
			if i > j {
				i, j = j, i
			}
			pairs[[2]int{i, j}]++
		})
	}

	want := brutePairs(positions, 320, 320, 40)
	if len(pairs) != len(want) {
		t.Fatalf("chunked sweep found %d pairs, want %d", len(pairs), len(want))
	}
	for k, count := range pairs {
		if count != 1 {
			t.Errorf("pair %v visited %d times across chunks", k, count)
		}
	}
}
