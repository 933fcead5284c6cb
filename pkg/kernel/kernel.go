// Package kernel defines the geometry kernel the simulated host runs on.
// A kernel builds solids in a local frame centered on the origin; placing
// them in the world is an affine transform carried by the solid.
// Implementations (sdfx) provide distance evaluation and tessellation behind
// this interface.
package kernel

import (
	"fmt"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/go-gl/mathgl/mgl64"
)

// Axis is the local axis a rotationally symmetric primitive is built along.
type Axis int

const (
	AxisZ Axis = iota
	AxisX
	AxisY
)

// ParseAxis accepts "x", "y", "z" and "" (z).
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "", "z", "Z":
		return AxisZ, nil
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("invalid axis %q, expected x, y or z", s)
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	}
	return "z"
}

// Solid is an opaque handle to a placed kernel solid. Solids are immutable;
// Kernel.Transform returns a new one.
type Solid interface {
	// BoundingBox returns the world axis-aligned bounding box.
	BoundingBox() bounds.Box

	// Evaluate returns the signed distance from p to the surface, negative
	// inside. Exact for rigid placements, approximate under scale.
	Evaluate(p mgl64.Vec3) float64

	// Hull returns world points whose bounds in any frame aligned with the
	// solid are the solid's bounds in that frame.
	Hull() []mgl64.Vec3

	// WorkingPlane returns the plane of the largest planar face, if any.
	WorkingPlane() (derive.Plane, bool)

	// Placement returns the local->world transform.
	Placement() frame.Affine
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(width, length, height float64) (Solid, error)
	Sphere(radius float64) (Solid, error)
	Cylinder(height, radius float64, axis Axis) (Solid, error)

	// Transform applies xf after the solid's current placement.
	Transform(s Solid, xf frame.Affine) Solid

	// ToMesh tessellates the solid into a world-space triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
