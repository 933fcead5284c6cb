// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Primitives are built once, centered on the origin, and never re-evaluated
// through sdf.Transform3D. Placement is kept as a frame.Affine next to the
// base SDF so that arbitrary rotations and scales compose exactly.
package sdfx

import (
	"math"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/kernel"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

type shape int

const (
	shapeBox shape = iota
	shapeSphere
	shapeCylinder
)

// sdfxSolid wraps an origin-centered sdf.SDF3 and its placement.
type sdfxSolid struct {
	s     sdf.SDF3
	shape shape
	dims  mgl64.Vec3 // half extents of the local box
	xf    frame.Affine
	inv   frame.Affine
	scale float64 // smallest column norm of xf.Linear
}

func newSolid(s sdf.SDF3, sh shape, half mgl64.Vec3, xf frame.Affine) *sdfxSolid {
	scale := math.Inf(1)
	for i := 0; i < 3; i++ {
		scale = math.Min(scale, xf.Linear.Col(i).Len())
	}
	return &sdfxSolid{s: s, shape: sh, dims: half, xf: xf, inv: xf.Inverse(), scale: scale}
}

func (s *sdfxSolid) localCorners() []mgl64.Vec3 {
	h := s.dims
	out := make([]mgl64.Vec3, 0, 8)
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				out = append(out, mgl64.Vec3{sx * h[0], sy * h[1], sz * h[2]})
			}
		}
	}
	return out
}

// Hull returns the world positions of the local bounding box corners.
func (s *sdfxSolid) Hull() []mgl64.Vec3 {
	pts := s.localCorners()
	for i := range pts {
		pts[i] = s.xf.Apply(pts[i])
	}
	return pts
}

// BoundingBox returns the world axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() bounds.Box {
	return bounds.FromPoints(s.Hull())
}

// Evaluate returns the signed distance at a world point.
func (s *sdfxSolid) Evaluate(p mgl64.Vec3) float64 {
	q := s.inv.Apply(p)
	return s.s.Evaluate(v3.Vec{X: q[0], Y: q[1], Z: q[2]}) * s.scale
}

func (s *sdfxSolid) Placement() frame.Affine {
	return s.xf
}

// WorkingPlane returns the largest planar face in world coordinates.
// Spheres have none.
func (s *sdfxSolid) WorkingPlane() (derive.Plane, bool) {
	var local derive.Plane
	h := s.dims
	switch s.shape {
	case shapeSphere:
		return derive.Plane{}, false
	case shapeCylinder:
		local = derive.Plane{Origin: mgl64.Vec3{0, 0, h[2]}, X: frame.WorldX, Y: frame.WorldY, Z: frame.WorldZ}
	default:
		// Face areas by normal, ties resolved z, y, x.
		az, ay, ax := h[0]*h[1], h[0]*h[2], h[1]*h[2]
		switch {
		case az >= ay && az >= ax:
			local = derive.Plane{Origin: mgl64.Vec3{0, 0, h[2]}, X: frame.WorldX, Y: frame.WorldY, Z: frame.WorldZ}
		case ay >= ax:
			local = derive.Plane{Origin: mgl64.Vec3{0, h[1], 0}, X: frame.WorldZ, Y: frame.WorldX, Z: frame.WorldY}
		default:
			local = derive.Plane{Origin: mgl64.Vec3{h[0], 0, 0}, X: frame.WorldY, Y: frame.WorldZ, Z: frame.WorldX}
		}
	}

	x, y, z := frame.CompleteBasis(s.xf.ApplyVector(local.X), s.xf.ApplyVector(local.Z))
	return derive.Plane{Origin: s.xf.Apply(local.Origin), X: x, Y: y, Z: z}, true
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: DefaultMeshCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

// unwrap extracts the concrete solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return protocol.Invalidf("%s must be a positive number, got %v", name, v)
	}
	return nil
}

// Box creates a box of the given width (x), length (y) and height (z),
// centered on the origin.
func (k *SdfxKernel) Box(width, length, height float64) (kernel.Solid, error) {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", width}, {"length", length}, {"height", height}} {
		if err := positive(d.name, d.v); err != nil {
			return nil, err
		}
	}
	s, err := sdf.Box3D(v3.Vec{X: width, Y: length, Z: height}, 0)
	if err != nil {
		return nil, protocol.Geometryf("box: %v", err)
	}
	return newSolid(s, shapeBox, mgl64.Vec3{width / 2, length / 2, height / 2}, frame.Identity()), nil
}

// Sphere creates a sphere centered on the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Solid, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, protocol.Geometryf("sphere: %v", err)
	}
	return newSolid(s, shapeSphere, mgl64.Vec3{radius, radius, radius}, frame.Identity()), nil
}

// Cylinder creates a cylinder centered on the origin along axis.
func (k *SdfxKernel) Cylinder(height, radius float64, axis kernel.Axis) (kernel.Solid, error) {
	if err := positive("height", height); err != nil {
		return nil, err
	}
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, protocol.Geometryf("cylinder: %v", err)
	}

	// sdfx builds cylinders along z; other axes are a placement.
	xf := frame.Identity()
	switch axis {
	case kernel.AxisX:
		xf.Linear = mgl64.Rotate3DY(math.Pi / 2)
	case kernel.AxisY:
		xf.Linear = mgl64.Rotate3DX(-math.Pi / 2)
	}
	return newSolid(s, shapeCylinder, mgl64.Vec3{radius, radius, height / 2}, xf), nil
}

// Transform applies xf after the solid's placement.
func (k *SdfxKernel) Transform(s kernel.Solid, xf frame.Affine) kernel.Solid {
	src := unwrap(s)
	return newSolid(src.s, src.shape, src.dims, src.xf.Then(xf))
}

// ToMesh converts a solid to a world-space triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	src := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(src.s, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	// Normals transform by the inverse transpose; mirrors flip winding.
	normalXf := src.inv.Linear.Transpose()
	order := [3]int{0, 1, 2}
	if src.xf.Linear.Det() < 0 {
		order = [3]int{0, 2, 1}
	}

	for i, tri := range triangles {
		ln := tri.Normal()
		n := normalXf.Mul3x1(mgl64.Vec3{ln.X, ln.Y, ln.Z})
		if u, ok := frame.Unit(n); ok {
			n = u
		}

		for j := 0; j < 3; j++ {
			v := tri[order[j]]
			w := src.xf.Apply(mgl64.Vec3{v.X, v.Y, v.Z})
			vertices = append(vertices, float32(w[0]), float32(w[1]), float32(w[2]))
			normals = append(normals, float32(n[0]), float32(n[1]), float32(n[2]))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
