package pose

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/go-gl/mathgl/mgl64"
)

func randomPose(r *rand.Rand) Pose {
	q := mgl64.Quat{W: r.NormFloat64(), V: mgl64.Vec3{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}}.Normalize()
	return Pose{
		Rotation:    q.Mat4().Mat3(),
		Translation: mgl64.Vec3{r.Float64()*100 - 50, r.Float64()*100 - 50, r.Float64()*100 - 50},
	}
}

func TestOBBCornersConsistent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for n := 0; n < 100; n++ {
		b := OBB{Pose: randomPose(r), Extents: mgl64.Vec3{r.Float64() * 10, r.Float64() * 10, r.Float64() * 10}}
		corners := b.WorldCorners()
		for i, s := range cornerSigns {
			local := mgl64.Vec3{s[0] * b.Extents[0] / 2, s[1] * b.Extents[1] / 2, s[2] * b.Extents[2] / 2}
			want := b.Pose.Translation.Add(b.Pose.Rotation.Mul3x1(local))
			if !frame.Near(corners[i], want, 1e-9) {
				t.Fatalf("corner %d = %v, want %v", i, corners[i], want)
			}
		}
	}
}

func TestOBBCornerOrder(t *testing.T) {
	b := OBB{Pose: Identity(), Extents: mgl64.Vec3{2, 4, 6}}
	c := b.WorldCorners()
	if c[0] != (mgl64.Vec3{-1, -2, -3}) || c[1] != (mgl64.Vec3{1, -2, -3}) || c[6] != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("WorldCorners() = %v", c)
	}
}

func TestFit(t *testing.T) {
	// A 4x2x1 box rotated 90 degrees about Z and moved to (10, 0, 0).
	rot := mgl64.Rotate3DZ(math.Pi / 2)
	p := Pose{Rotation: rot, Translation: mgl64.Vec3{10, 0, 0}}
	var pts []mgl64.Vec3
	for _, s := range cornerSigns {
		pts = append(pts, p.ToWorld(mgl64.Vec3{s[0] * 2, s[1], s[2] * 0.5}))
	}

	// Fit in a frame whose origin is off-center.
	off := Pose{Rotation: rot, Translation: mgl64.Vec3{9, 0, 0}}
	b := Fit(off, pts)
	if !frame.Near(b.Extents, mgl64.Vec3{4, 2, 1}, 1e-9) {
		t.Errorf("Extents = %v, want [4 2 1]", b.Extents)
	}
	if !frame.Near(b.Pose.Translation, mgl64.Vec3{10, 0, 0}, 1e-9) {
		t.Errorf("center = %v, want [10 0 0]", b.Pose.Translation)
	}
	if b.Pose.Rotation != rot {
		t.Error("Fit should keep the rotation")
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   mgl64.Mat3
	}{
		{"identity", mgl64.Ident3()},
		{"scaled", mgl64.Diag3(mgl64.Vec3{2, 3, 4})},
		{"skewed", frame.FromAxes(mgl64.Vec3{1, 0.1, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0.05, 1})},
		{"zero x", frame.FromAxes(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1})},
		{"all zero", mgl64.Mat3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(tt.in)
			if !frame.IsRotation(got, 1e-9) {
				t.Errorf("Canonicalize() = %v is not a rotation", got)
			}
		})
	}

	// Z direction is preserved.
	in := frame.FromAxes(mgl64.Vec3{1, 0.2, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 3})
	if got := Canonicalize(in).Col(2); !frame.Near(got, frame.WorldZ, 1e-12) {
		t.Errorf("Z = %v, want world Z", got)
	}
	// A zero X column is recovered from Y.
	got := Canonicalize(frame.FromAxes(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}))
	if !frame.NearMat(got, mgl64.Ident3(), 1e-12) {
		t.Errorf("Canonicalize(zero x) = %v, want identity", got)
	}
}

func TestEquivalent(t *testing.T) {
	base := At(mgl64.Vec3{1, 2, 3})
	swapped := Pose{
		Rotation:    frame.FromAxes(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1}),
		Translation: mgl64.Vec3{1, 2, 3.05},
	}
	tilted := Pose{Rotation: mgl64.Rotate3DZ(0.3), Translation: base.Translation}

	tests := []struct {
		name   string
		a, b   Pose
		docTol float64
		want   bool
	}{
		{"same", base, base, 0.001, true},
		{"axes permuted with sign", base, swapped, 0.001, true},
		{"translation beyond floor", base, At(mgl64.Vec3{1, 2, 3.2}), 0.001, false},
		{"translation within scaled tol", base, At(mgl64.Vec3{1, 2, 3.2}), 0.05, true},
		{"tilted", base, tilted, 0.001, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equivalent(tt.a, tt.b, tt.docTol); got != tt.want {
				t.Errorf("Equivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApproxEqualNearZero(t *testing.T) {
	turned := Pose{Rotation: mgl64.Rotate3DZ(2 * math.Pi), Translation: mgl64.Vec3{1e-15, 0, 0}}
	if !turned.IsIdentityRotation(1e-12) {
		t.Errorf("IsIdentityRotation(%v) = false", turned.Rotation)
	}
	if !turned.ApproxEqual(Identity(), 1e-12) {
		t.Errorf("ApproxEqual(%+v, Identity()) = false", turned)
	}
	if turned.ApproxEqual(At(mgl64.Vec3{0, 1e-6, 0}), 1e-9) {
		t.Error("a translation beyond tol should not be equal")
	}
}

func TestApplyAffine(t *testing.T) {
	p := At(mgl64.Vec3{1, 0, 0})
	xf := frame.RotationAbout(mgl64.Rotate3DZ(math.Pi/2), mgl64.Vec3{})
	got := ApplyAffine(p, xf)
	if !frame.Near(got.Translation, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("Translation = %v, want [0 1 0]", got.Translation)
	}
	if !frame.Near(got.Axis(0), frame.WorldY, 1e-12) {
		t.Errorf("X axis = %v, want world Y", got.Axis(0))
	}

	scaled := ApplyAffine(p, frame.ScaleAbout(mgl64.Vec3{2, 3, 1}, mgl64.Vec3{}))
	if !scaled.IsIdentityRotation(1e-12) {
		t.Errorf("scale should leave an axis-aligned rotation unchanged, got %v", scaled.Rotation)
	}
	if !frame.Near(scaled.Translation, mgl64.Vec3{2, 0, 0}, 1e-12) {
		t.Errorf("Translation = %v, want [2 0 0]", scaled.Translation)
	}
}

func TestWireRounding(t *testing.T) {
	p := Pose{Rotation: mgl64.Rotate3DZ(math.Pi / 4), Translation: mgl64.Vec3{1.23456, -0.001, 7.005}}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var w Wire
	if err := json.Unmarshal(raw, &w); err != nil {
		t.Fatal(err)
	}
	if got := w.WorldFromLocal.T; got[0] != 1.23 || got[1] != 0 || len(got) != 3 {
		t.Errorf("t = %v", got)
	}
	if got := w.WorldFromLocal.R[0][0]; got != 0.707107 {
		t.Errorf("R[0][0] = %v, want 0.707107", got)
	}
	// Column 0 is the X axis: (cos, sin, 0), so R[1][0] is +sin.
	if got := w.WorldFromLocal.R[1][0]; got != 0.707107 {
		t.Errorf("R[1][0] = %v, want 0.707107", got)
	}

	var back Pose
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !frame.IsRotation(back.Rotation, 1e-12) {
		t.Error("parsed rotation should be re-orthonormalized")
	}
	if !frame.NearMat(back.Rotation, p.Rotation, 1e-5) {
		t.Errorf("parsed rotation = %v, want %v", back.Rotation, p.Rotation)
	}
}

func TestWireRejectsBadShape(t *testing.T) {
	var p Pose
	err := json.Unmarshal([]byte(`{"world_from_local":{"R":[[1,0],[0,1]],"t":[0,0,0]}}`), &p)
	if err == nil {
		t.Fatal("expected error for 2x2 rotation")
	}
	err = json.Unmarshal([]byte(`{"world_from_local":{"R":[[1,0,0],[0,1,0],[0,0,1]],"t":[0,0]}}`), &p)
	if err == nil {
		t.Fatal("expected error for short translation")
	}
}

func TestOBBWire(t *testing.T) {
	b := OBB{Pose: At(mgl64.Vec3{0.004, 0, 0}), Extents: mgl64.Vec3{1.111, 2, 3}}
	w := b.ToWire()
	if len(w.WorldCorners) != 8 {
		t.Fatalf("corners = %d, want 8", len(w.WorldCorners))
	}
	if w.Extents[0] != 1.11 {
		t.Errorf("extent = %v, want 1.11", w.Extents[0])
	}
	if got := w.WorldCorners[0]; got[0] != -0.55 || got[1] != -1 || got[2] != -1.5 {
		t.Errorf("corner 0 = %v", got)
	}
}
