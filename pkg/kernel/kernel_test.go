package kernel

import (
	"math"
	"testing"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/go-gl/mathgl/mgl64"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshVertex(t *testing.T) {
	m := &Mesh{Vertices: []float32{0, 0, 0, 1.5, -2, 3}}
	if got := m.Vertex(1); got != (mgl64.Vec3{1.5, -2, 3}) {
		t.Errorf("Vertex(1) = %v", got)
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		want    Axis
		wantErr bool
	}{
		{"", AxisZ, false},
		{"z", AxisZ, false},
		{"X", AxisX, false},
		{"y", AxisY, false},
		{"w", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAxis(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAxis(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAxis(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCurvePlane(t *testing.T) {
	tests := []struct {
		name       string
		points     []mgl64.Vec3
		wantOK     bool
		wantNormal mgl64.Vec3
	}{
		{
			name:       "square in xy",
			points:     []mgl64.Vec3{{0, 0, 5}, {4, 0, 5}, {4, 2, 5}, {0, 2, 5}},
			wantOK:     true,
			wantNormal: frame.WorldZ,
		},
		{
			name:       "clockwise square flips normal",
			points:     []mgl64.Vec3{{0, 0, 0}, {0, 2, 0}, {4, 2, 0}, {4, 0, 0}},
			wantOK:     true,
			wantNormal: frame.WorldZ.Mul(-1),
		},
		{
			name:       "open arc in xz",
			points:     []mgl64.Vec3{{0, 1, 0}, {1, 1, 1}, {2, 1, 0}},
			wantOK:     true,
			wantNormal: mgl64.Vec3{0, 1, 0},
		},
		{
			name:   "twisted",
			points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 3}},
		},
		{
			name:   "coincident",
			points: []mgl64.Vec3{{1, 1, 1}, {1, 1, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane, ok := CurvePlane(tt.points, 1e-6)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(math.Abs(plane.Z.Dot(tt.wantNormal))-1) > 1e-9 {
				t.Errorf("normal = %v, want parallel to %v", plane.Z, tt.wantNormal)
			}
			if math.Abs(plane.X.Cross(plane.Y).Dot(plane.Z)-1) > 1e-9 {
				t.Errorf("frame not right-handed: %+v", plane)
			}
		})
	}
}

func TestCurvePlaneCollinear(t *testing.T) {
	plane, ok := CurvePlane([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {3, 0, 0}}, 1e-6)
	if !ok {
		t.Fatal("collinear samples should be planar")
	}
	if !frame.Near(plane.X, frame.WorldX, 1e-12) || !frame.Near(plane.Z, frame.WorldZ, 1e-12) {
		t.Errorf("plane = %+v, want world XY axes", plane)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	box bounds.Box
	xf  frame.Affine
}

func (s *stubSolid) BoundingBox() bounds.Box           { return s.box }
func (s *stubSolid) Evaluate(mgl64.Vec3) float64       { return 1 }
func (s *stubSolid) Hull() []mgl64.Vec3                { c := s.box.Corners(); return c[:] }
func (s *stubSolid) WorkingPlane() (derive.Plane, bool) { return derive.Plane{}, false }
func (s *stubSolid) Placement() frame.Affine           { return s.xf }

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) (Solid, error) {
	half := mgl64.Vec3{x, y, z}.Mul(0.5)
	return &stubSolid{box: bounds.Box{Min: half.Mul(-1), Max: half}, xf: frame.Identity()}, nil
}

func (k *stubKernel) Sphere(r float64) (Solid, error) {
	return k.Box(2*r, 2*r, 2*r)
}

func (k *stubKernel) Cylinder(height, radius float64, _ Axis) (Solid, error) {
	return k.Box(2*radius, 2*radius, height)
}

func (k *stubKernel) Transform(s Solid, xf frame.Affine) Solid {
	src := s.(*stubSolid)
	return &stubSolid{box: bounds.FromPoints(applyAll(src.Hull(), xf)), xf: src.xf.Then(xf)}
}

func applyAll(pts []mgl64.Vec3, xf frame.Affine) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(pts))
	for i, p := range pts {
		out[i] = xf.Apply(p)
	}
	return out
}

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s, err := k.Box(10, 20, 30)
	if err != nil {
		t.Fatal(err)
	}
	moved := k.Transform(s, frame.Translation(mgl64.Vec3{5, 10, 15}))
	bb := moved.BoundingBox()
	if bb.Min != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("Box min = %v, want [0 0 0]", bb.Min)
	}
	if bb.Max != (mgl64.Vec3{10, 20, 30}) {
		t.Errorf("Box max = %v, want [10 20 30]", bb.Max)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	s, _ := k.Box(1, 1, 1)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}
