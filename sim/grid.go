package sim

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// pairGrid is a uniform cell grid over the toroidal world used to enumerate
// agent pairs closer than the perception radius in near-linear time.
// It is ephemeral: rebuilt from current positions every tick, never stored
// across ticks and never read while being rebuilt.
type pairGrid struct {
	width, height float64
	radius        float64
	radiusSq      float64

	cols, rows   int
	cellW, cellH float64
	cells        [][]int // agent ids bucketed by cell, row-major

	// With fewer than 3 cells on an axis the half-neighborhood sweep would
	// alias cells through the wraparound, so we fall back to an exhaustive
	// i<j sweep. Oversized radii degrade gracefully instead of failing.
	exhaustive bool

	n int // agent count at last rebuild
}

// halfNeighborhood lists the cell offsets (dc, dr) paired with each cell
// exactly once: the cell itself is handled separately, and {E, SW, S, SE}
// together with their mirrors covers all 8 neighbors without repeats.
var halfNeighborhood = [4][2]int{{1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// newPairGrid creates a grid whose cell side is at least r on both axes.
func newPairGrid(w, h, r float64) *pairGrid {
	g := &pairGrid{
		width:    w,
		height:   h,
		radius:   r,
		radiusSq: r * r,
		cols:     1,
		rows:     1,
	}

	if r > 0 {
		if c := int(w / r); c > 1 {
			g.cols = c
		}
		if c := int(h / r); c > 1 {
			g.rows = c
		}
	}

	// Cells tile the world exactly, so cell coordinates wrap cleanly.
	g.cellW = w / float64(g.cols)
	g.cellH = h / float64(g.rows)
	g.exhaustive = g.cols < 3 || g.rows < 3

	g.cells = make([][]int, g.cols*g.rows)
	for i := range g.cells {
		g.cells[i] = make([]int, 0, 8)
	}
	return g
}

// rebuild buckets agents by cell. Must be called with the latest positions
// before any pair enumeration.
func (g *pairGrid) rebuild(positions []r2.Vec) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.n = len(positions)
	if g.exhaustive {
		return // exhaustive sweep reads positions directly
	}
	for id, p := range positions {
		idx := g.cellIndex(p.X, p.Y)
		g.cells[idx] = append(g.cells[idx], id)
	}
}

// cellIndex returns the flat index for a world position.
func (g *pairGrid) cellIndex(x, y float64) int {
	col := int(x / g.cellW)
	row := int(y / g.cellH)

	// Positions live in [0, extent), but clamp against float edge cases.
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}

// pairUnits returns the number of independently sweepable units, used to
// chunk the pair enumeration across workers. Units are cells, or agents in
// exhaustive mode.
func (g *pairGrid) pairUnits() int {
	if g.exhaustive {
		return g.n
	}
	return g.cols * g.rows
}

// forEachPairIn enumerates every unordered pair (i, j) with toroidal
// distance < radius whose sweep unit falls in [lo, hi), invoking visit once
// per pair with the squared distance and the shortest wrapped vector i->j.
// Disjoint unit ranges produce disjoint pair sets, which is what makes the
// kernel phase chunkable.
func (g *pairGrid) forEachPairIn(positions []r2.Vec, lo, hi int, visit func(i, j int, distSq float64, off r2.Vec)) {
	if g.radius <= 0 || g.n < 2 {
		return
	}

	if g.exhaustive {
		for i := lo; i < hi; i++ {
			for j := i + 1; j < g.n; j++ {
				g.tryPair(positions, i, j, visit)
			}
		}
		return
	}

	for idx := lo; idx < hi; idx++ {
		cell := g.cells[idx]
		col := idx % g.cols
		row := idx / g.cols

		// Pairs within the cell.
		for x := 0; x < len(cell); x++ {
			for y := x + 1; y < len(cell); y++ {
				g.tryPair(positions, cell[x], cell[y], visit)
			}
		}

		// Pairs against the half neighborhood, wrapping at grid edges.
		for _, d := range halfNeighborhood {
			ncol := (col + d[0] + g.cols) % g.cols
			nrow := (row + d[1] + g.rows) % g.rows
			other := g.cells[nrow*g.cols+ncol]

			for _, i := range cell {
				for _, j := range other {
					g.tryPair(positions, i, j, visit)
				}
			}
		}
	}
}

// forEachPair enumerates all qualifying pairs.
func (g *pairGrid) forEachPair(positions []r2.Vec, visit func(i, j int, distSq float64, off r2.Vec)) {
	g.forEachPairIn(positions, 0, g.pairUnits(), visit)
}

// tryPair applies the true toroidal distance filter. Candidates rejected
// here were merely in a neighboring cell; missing no qualifying pair is the
// correctness guarantee, rejected candidates are only a performance cost.
func (g *pairGrid) tryPair(positions []r2.Vec, i, j int, visit func(i, j int, distSq float64, off r2.Vec)) {
	off := toroidalDelta(positions[i], positions[j], g.width, g.height)
	d2 := r2.Norm2(off)
	if d2 < g.radiusSq {
		visit(i, j, d2, off)
	}
}
