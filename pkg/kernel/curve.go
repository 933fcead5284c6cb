package kernel

import (
	"math"

	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/go-gl/mathgl/mgl64"
)

// CurvePlane fits a plane through curve samples. It reports false when the
// samples do not lie within tol of a common plane. Collinear samples are
// planar; their plane contains the line and is as close to horizontal as
// CompleteBasis allows.
//
// The plane's X axis runs from the first sample toward the first sample
// that is not coincident with it.
func CurvePlane(points []mgl64.Vec3, tol float64) (derive.Plane, bool) {
	if len(points) < 2 {
		return derive.Plane{}, false
	}
	origin := points[0]

	var dir mgl64.Vec3
	found := false
	for _, p := range points[1:] {
		if d, ok := frame.Unit(p.Sub(origin)); ok {
			dir, found = d, true
			break
		}
	}
	if !found {
		return derive.Plane{}, false
	}

	// Newell's method gives a robust normal for closed and open polylines.
	var n mgl64.Vec3
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	normal, ok := frame.Unit(n.Sub(dir.Mul(n.Dot(dir))))
	if !ok {
		// Collinear: any plane through the line will do.
		x, y, z := frame.CompleteBasis(dir, frame.WorldZ)
		return derive.Plane{Origin: origin, X: x, Y: y, Z: z}, true
	}

	for _, p := range points {
		if math.Abs(p.Sub(origin).Dot(normal)) > tol {
			return derive.Plane{}, false
		}
	}
	return derive.Plane{Origin: origin, X: dir, Y: normal.Cross(dir), Z: normal}, true
}
