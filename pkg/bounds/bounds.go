// Package bounds provides world-space axis-aligned boxes.
package bounds

import (
	"math"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned box. The zero Box is invalid (Min > Max is used as
// the empty marker by Empty).
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Empty returns a box that contains nothing and grows with Include.
func Empty() Box {
	inf := math.Inf(1)
	return Box{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// FromPoints returns the smallest box containing pts.
func FromPoints(pts []mgl64.Vec3) Box {
	b := Empty()
	for _, p := range pts {
		b = b.Include(p)
	}
	return b
}

// Include returns b grown to contain p.
func (b Box) Include(p mgl64.Vec3) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// IsValid reports whether b is non-empty and finite.
func (b Box) IsValid() bool {
	for i := 0; i < 3; i++ {
		if math.IsInf(b.Min[i], 0) || math.IsInf(b.Max[i], 0) || math.IsNaN(b.Min[i]) || math.IsNaN(b.Max[i]) {
			return false
		}
		if b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of b.
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the side lengths of b.
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Diagonal returns the length of the box diagonal.
func (b Box) Diagonal() float64 {
	return b.Size().Len()
}

// Union returns the smallest box containing a and b. An invalid operand is
// ignored.
func Union(a, b Box) Box {
	if !a.IsValid() {
		return b
	}
	if !b.IsValid() {
		return a
	}
	return a.Include(b.Min).Include(b.Max)
}

// Corners returns the 8 corners, bottom face first, counter-clockwise from
// Min.
func (b Box) Corners() [8]mgl64.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]mgl64.Vec3{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]},
		{hi[0], hi[1], hi[2]},
		{lo[0], hi[1], hi[2]},
	}
}

// Distance is the Euclidean length of the per-axis gaps between a and b.
// Overlapping or touching boxes are at distance 0.
func Distance(a, b Box) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		gap := math.Max(0, math.Max(a.Min[i]-b.Max[i], b.Min[i]-a.Max[i]))
		sum += gap * gap
	}
	return math.Sqrt(sum)
}

// Equal reports whether a and b agree within tol on every bound.
func Equal(a, b Box, tol float64) bool {
	return frame.Near(a.Min, b.Min, tol) && frame.Near(a.Max, b.Max, tol)
}
