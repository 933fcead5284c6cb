// Package derive computes the canonical pose of a geometry from the raw
// samples a geometry host supplies. The rules are deterministic so that the
// same geometry always gets the same pose.
package derive

import (
	"fmt"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/pose"
	"github.com/go-gl/mathgl/mgl64"
)

// Category is the geometry family of an object.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPoint
	CategoryLine
	CategoryPolyline
	CategoryCurve
	CategoryBrep
	CategoryExtrusion
	CategoryMesh
)

func (c Category) String() string {
	switch c {
	case CategoryPoint:
		return "POINT"
	case CategoryLine:
		return "LINE"
	case CategoryPolyline:
		return "POLYLINE"
	case CategoryCurve:
		return "CURVE"
	case CategoryBrep:
		return "BREP"
	case CategoryExtrusion:
		return "EXTRUSION"
	case CategoryMesh:
		return "MESH"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// IsSolid reports whether the category takes part in connectivity graphs.
func (c Category) IsSolid() bool {
	return c == CategoryBrep || c == CategoryExtrusion || c == CategoryMesh
}

// Plane is a working plane candidate: an origin and a right-handed frame.
type Plane struct {
	Origin mgl64.Vec3
	X, Y   mgl64.Vec3
	Z      mgl64.Vec3
}

// WorldXY returns the world XY plane at origin.
func WorldXY(origin mgl64.Vec3) Plane {
	return Plane{Origin: origin, X: frame.WorldX, Y: frame.WorldY, Z: frame.WorldZ}
}

// Pose returns the plane as a pose.
func (p Plane) Pose() pose.Pose {
	return pose.Pose{Rotation: frame.FromAxes(p.X, p.Y, p.Z), Translation: p.Origin}
}

// Geometry is what the host knows about one object.
type Geometry struct {
	Category Category

	// Line endpoints.
	Start, End mgl64.Vec3

	// Sample points: polyline vertices, curve samples, solid hull points.
	Points []mgl64.Vec3

	// Planar curves and solids carry a working plane candidate. Plane is nil
	// when the host found none.
	Planar bool
	Plane  *Plane

	// World axis-aligned bounding box.
	Box bounds.Box
}

// Derive returns the canonical pose of g.
func Derive(g Geometry) pose.Pose {
	switch g.Category {
	case CategoryLine:
		return Line(g.Start, g.End)
	case CategoryPolyline, CategoryCurve:
		if g.Planar {
			return PlanarCurve(g.workingPlane(), g.Points)
		}
		return NonPlanar(g.Box)
	case CategoryBrep, CategoryExtrusion:
		return Solid(g.workingPlane(), g.Points)
	default:
		return NonPlanar(g.Box)
	}
}

// workingPlane falls back to world XY through the bbox center.
func (g Geometry) workingPlane() Plane {
	if g.Plane != nil {
		return *g.Plane
	}
	return WorldXY(g.Box.Center())
}

// Line places the origin at the midpoint with X along the segment.
func Line(start, end mgl64.Vec3) pose.Pose {
	x, y, z := frame.CompleteBasis(end.Sub(start), frame.WorldZ)
	return pose.Pose{
		Rotation:    frame.FromAxes(x, y, z),
		Translation: start.Add(end).Mul(0.5),
	}
}

// NonPlanar is the identity frame at the world bbox center. Curves that do
// not lie in a plane have no stable in-plane axis to derive.
func NonPlanar(box bounds.Box) pose.Pose {
	if !box.IsValid() {
		return pose.Identity()
	}
	return pose.At(box.Center())
}

// PlanarCurve centers the plane on the (u, v) bounds of points projected
// onto it, then stabilizes it.
func PlanarCurve(plane Plane, points []mgl64.Vec3) pose.Pose {
	return Stabilize(center(plane, points, false)).Pose()
}

// Solid centers the plane on the (u, v, w) bounds of points in the plane's
// frame, then stabilizes it. Used for breps and extrusions.
func Solid(plane Plane, points []mgl64.Vec3) pose.Pose {
	return Stabilize(center(plane, points, true)).Pose()
}

func center(plane Plane, points []mgl64.Vec3, withNormal bool) Plane {
	if len(points) == 0 {
		return plane
	}
	p := plane.Pose()
	local := make([]mgl64.Vec3, len(points))
	for i, pt := range points {
		local[i] = p.ToLocal(pt)
	}
	c := bounds.FromPoints(local).Center()
	if !withNormal {
		c[2] = 0
	}
	plane.Origin = p.ToWorld(c)
	return plane
}

// Stabilize applies the two corrective flips in order:
//
//  1. Z pointing below the horizon: negate Z and Y, keep X.
//  2. X pointing against world X: negate X and Y, keep Z.
//
// Both flips keep the frame right-handed.
func Stabilize(p Plane) Plane {
	if p.Z.Dot(frame.WorldZ) < 0 {
		p.Z = p.Z.Mul(-1)
		p.Y = p.Y.Mul(-1)
	}
	if p.X.Dot(frame.WorldX) < 0 {
		p.X = p.X.Mul(-1)
		p.Y = p.Y.Mul(-1)
	}
	return p
}
