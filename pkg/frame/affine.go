package frame

import "github.com/go-gl/mathgl/mgl64"

// Affine is p -> Linear*p + Offset. It carries every transform the host
// applies to geometry: translations, rotations and scales about a pivot.
type Affine struct {
	Linear mgl64.Mat3
	Offset mgl64.Vec3
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{Linear: mgl64.Ident3()}
}

// Translation returns a pure world-space translation.
func Translation(d mgl64.Vec3) Affine {
	return Affine{Linear: mgl64.Ident3(), Offset: d}
}

// RotationAbout rotates by r on world axes, keeping pivot fixed.
func RotationAbout(r mgl64.Mat3, pivot mgl64.Vec3) Affine {
	return Affine{Linear: r, Offset: pivot.Sub(r.Mul3x1(pivot))}
}

// ScaleAbout scales per world axis, keeping pivot fixed.
func ScaleAbout(s mgl64.Vec3, pivot mgl64.Vec3) Affine {
	m := mgl64.Diag3(s)
	return Affine{Linear: m, Offset: pivot.Sub(m.Mul3x1(pivot))}
}

// Apply transforms a point.
func (a Affine) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return a.Linear.Mul3x1(p).Add(a.Offset)
}

// ApplyVector transforms a direction, ignoring the offset.
func (a Affine) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return a.Linear.Mul3x1(v)
}

// Then returns the transform that applies a first and b second.
func (a Affine) Then(b Affine) Affine {
	return Affine{
		Linear: b.Linear.Mul3(a.Linear),
		Offset: b.Linear.Mul3x1(a.Offset).Add(b.Offset),
	}
}

// Inverse returns the inverse transform. The linear part must be invertible.
func (a Affine) Inverse() Affine {
	inv := a.Linear.Inv()
	return Affine{Linear: inv, Offset: inv.Mul3x1(a.Offset).Mul(-1)}
}

// IsIdentity reports whether a is the identity within tol.
func (a Affine) IsIdentity(tol float64) bool {
	return NearMat(a.Linear, mgl64.Ident3(), tol) &&
		Near(a.Offset, mgl64.Vec3{}, tol)
}
