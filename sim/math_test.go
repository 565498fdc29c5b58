package sim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const testEps = 1e-9

func TestClip(t *testing.T) {
	tests := []struct {
		name    string
		v       r2.Vec
		limit   float64
		wantMag float64
	}{
		{"under limit unchanged", r2.Vec{X: 3, Y: 4}, 10, 5},
		{"at limit unchanged", r2.Vec{X: 3, Y: 4}, 5, 5},
		{"over limit shrunk", r2.Vec{X: 30, Y: 40}, 5, 5},
		{"zero stays zero", r2.Vec{}, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clip(tt.v, tt.limit, testEps)
			if mag := r2.Norm(got); math.Abs(mag-tt.wantMag) > 1e-6 {
				t.Errorf("clip(%v, %v) magnitude = %v, want %v", tt.v, tt.limit, mag, tt.wantMag)
			}
			// Direction must never flip
			if r2.Norm(tt.v) > 0 && r2.Dot(got, tt.v) < 0 {
				t.Errorf("clip(%v, %v) flipped direction: %v", tt.v, tt.limit, got)
			}
		})
	}
}

func TestClipExactWhenUnder(t *testing.T) {
	v := r2.Vec{X: 1, Y: 0}
	if got := clip(v, 1, testEps); got != v {
		t.Errorf("clip at limit must return the vector unchanged, got %v", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		x, extent, want float64
	}{
		{0, 100, 0},
		{50, 100, 50},
		{100, 100, 0},
		{101.5, 100, 1.5},
		{-0.5, 100, 99.5},
		{-200, 100, 0},
		{250, 100, 50},
	}

	for _, tt := range tests {
		if got := wrap(tt.x, tt.extent); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("wrap(%v, %v) = %v, want %v", tt.x, tt.extent, got, tt.want)
		}
	}
}

func TestWrapStaysInRange(t *testing.T) {
	for _, x := range []float64{-1e9, -100.0001, -1e-18, 99.9999999, 1e9} {
		got := wrap(x, 100)
		if got < 0 || got >= 100 {
			t.Errorf("wrap(%v, 100) = %v, out of [0, 100)", x, got)
		}
	}
}

func TestToroidalDelta(t *testing.T) {
	tests := []struct {
		name string
		a, b r2.Vec
		want r2.Vec
	}{
		{"direct", r2.Vec{X: 10, Y: 10}, r2.Vec{X: 15, Y: 12}, r2.Vec{X: 5, Y: 2}},
		{"wrap x", r2.Vec{X: 1, Y: 50}, r2.Vec{X: 199, Y: 50}, r2.Vec{X: -2, Y: 0}},
		{"wrap y", r2.Vec{X: 50, Y: 148}, r2.Vec{X: 50, Y: 2}, r2.Vec{X: 0, Y: 4}},
		{"wrap both", r2.Vec{X: 199, Y: 1}, r2.Vec{X: 1, Y: 149}, r2.Vec{X: 2, Y: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toroidalDelta(tt.a, tt.b, 200, 150)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("toroidalDelta(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScaleTo(t *testing.T) {
	v := scaleTo(r2.Vec{X: 3, Y: 4}, 10, testEps)
	if mag := r2.Norm(v); math.Abs(mag-10) > 1e-6 {
		t.Errorf("scaleTo magnitude = %v, want 10", mag)
	}
	if got := scaleTo(r2.Vec{}, 10, testEps); got != (r2.Vec{}) {
		t.Errorf("scaleTo of zero vector = %v, want zero", got)
	}
}
