package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// clip limits v to the given magnitude. Vectors at or below the limit are
// returned unchanged; longer ones are scaled down by limit/(|v|+eps).
// The direction is never flipped and the zero vector stays zero.
func clip(v r2.Vec, limit, eps float64) r2.Vec {
	if r2.Norm2(v) <= limit*limit {
		return v
	}
	return r2.Scale(limit/(r2.Norm(v)+eps), v)
}

// scaleTo rescales v to the given magnitude. The zero vector stays zero.
func scaleTo(v r2.Vec, mag, eps float64) r2.Vec {
	n := r2.Norm(v)
	if n <= eps {
		return r2.Vec{}
	}
	return r2.Scale(mag/(n+eps), v)
}

// wrap maps x into [0, extent) by periodic wraparound.
func wrap(x, extent float64) float64 {
	r := math.Mod(x, extent)
	if r < 0 {
		r += extent
	}
	if r >= extent {
		r -= extent
	}
	return r
}

// wrapVec wraps both components of p into the world rectangle.
func wrapVec(p r2.Vec, w, h float64) r2.Vec {
	return r2.Vec{X: wrap(p.X, w), Y: wrap(p.Y, h)}
}

// toroidalDelta returns the shortest vector from a to b on a w x h torus.
func toroidalDelta(a, b r2.Vec, w, h float64) r2.Vec {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return r2.Vec{X: dx, Y: dy}
}
