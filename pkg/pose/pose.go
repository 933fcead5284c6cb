// Package pose is the canonical placement model: a rotation whose columns
// are the local axes in world coordinates plus the world position of the
// local origin. Poses are values; they are recomputed from geometry and
// never shared by reference with host state.
package pose

import (
	"math"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/go-gl/mathgl/mgl64"
)

// AxisMatchCos is the minimum |cos| between paired axes for two poses to be
// considered the same frame.
const AxisMatchCos = 0.995

// MinTranslationTolerance is the floor of the translation tolerance used by
// Equivalent.
const MinTranslationTolerance = 0.1

// Pose is a rigid local->world placement.
type Pose struct {
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
}

// Identity returns the world frame.
func Identity() Pose {
	return Pose{Rotation: mgl64.Ident3()}
}

// At returns an identity-rotation pose at t.
func At(t mgl64.Vec3) Pose {
	return Pose{Rotation: mgl64.Ident3(), Translation: t}
}

// Axis returns local axis i (0=X, 1=Y, 2=Z) in world coordinates.
func (p Pose) Axis(i int) mgl64.Vec3 {
	return p.Rotation.Col(i)
}

// ToWorld maps a local point to world coordinates.
func (p Pose) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Mul3x1(local).Add(p.Translation)
}

// ToLocal maps a world point into the local frame.
func (p Pose) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return frame.Invert(p.Rotation).Mul3x1(world.Sub(p.Translation))
}

// IsIdentityRotation reports whether the rotation is the identity within tol.
func (p Pose) IsIdentityRotation(tol float64) bool {
	return frame.NearMat(p.Rotation, mgl64.Ident3(), tol)
}

// ApproxEqual compares rotation and translation entrywise.
func (p Pose) ApproxEqual(q Pose, tol float64) bool {
	return frame.NearMat(p.Rotation, q.Rotation, tol) &&
		frame.Near(p.Translation, q.Translation, tol)
}

// Canonicalize returns the closest right-handed orthonormal frame to r,
// keeping the Z column's direction and then X's. Degenerate columns fall
// back to frame.CompleteBasis.
func Canonicalize(r mgl64.Mat3) mgl64.Mat3 {
	x, y, z := r.Cols()

	zu, ok := frame.Unit(z)
	if !ok {
		if zu, ok = frame.Unit(x.Cross(y)); !ok {
			zu = frame.WorldZ
		}
	}

	xu, ok := frame.Unit(x.Sub(zu.Mul(x.Dot(zu))))
	if !ok {
		if yu, ok := frame.Unit(y.Sub(zu.Mul(y.Dot(zu)))); ok {
			xu = yu.Cross(zu)
		} else {
			_, xu, _ = frame.CompleteBasis(zu, frame.WorldZ)
		}
	}
	return frame.FromAxes(xu, zu.Cross(xu), zu)
}

// ApplyAffine moves p with the transform that moved its geometry. Scale and
// shear are removed by Canonicalize.
func ApplyAffine(p Pose, xf frame.Affine) Pose {
	x := xf.ApplyVector(p.Axis(0))
	y := xf.ApplyVector(p.Axis(1))
	z := xf.ApplyVector(p.Axis(2))
	return Pose{
		Rotation:    Canonicalize(frame.FromAxes(x, y, z)),
		Translation: xf.Apply(p.Translation),
	}
}

var permutations = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// Equivalent reports whether a and b describe the same frame up to axis
// relabeling and sign: origins within max(docTol*10, 0.1) and every axis of
// a parallel or antiparallel to a distinct axis of b.
func Equivalent(a, b Pose, docTol float64) bool {
	tol := math.Max(docTol*10, MinTranslationTolerance)
	if a.Translation.Sub(b.Translation).Len() > tol {
		return false
	}
	for _, perm := range permutations {
		match := true
		for i := 0; i < 3; i++ {
			if math.Abs(a.Axis(i).Dot(b.Axis(perm[i]))) < AxisMatchCos {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
