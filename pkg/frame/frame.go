// Package frame provides the rotation and axis utilities shared by the pose,
// derivation and rebase packages. Everything here is pure: no state, no I/O.
//
// Rotations are mgl64.Mat3 values whose columns are the local X, Y and Z axes
// expressed in world coordinates.
package frame

import (
	"fmt"
	"math"

	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

// NearParallelCos is the |cos| above which a primary axis is treated as
// parallel to the up hint during basis completion.
const NearParallelCos = 0.99

// ZeroTolerance is the length at or below which a vector is considered
// degenerate.
const ZeroTolerance = 2.3283064365386963e-10

// World axes.
var (
	WorldX = mgl64.Vec3{1, 0, 0}
	WorldY = mgl64.Vec3{0, 1, 0}
	WorldZ = mgl64.Vec3{0, 0, 1}
)

// Invert returns the inverse of a proper rotation, which is its transpose.
// The input is not checked for orthonormality; a non-rotation goes in and a
// meaningless matrix comes out.
func Invert(r mgl64.Mat3) mgl64.Mat3 {
	return r.Transpose()
}

// MatrixFromRows converts a row-major nested slice into a Mat3. Any shape
// other than 3x3 is an InvalidArgument.
func MatrixFromRows(rows [][]float64) (mgl64.Mat3, error) {
	if len(rows) != 3 {
		return mgl64.Mat3{}, protocol.Invalidf("rotation matrix must have 3 rows, got %d", len(rows))
	}
	var m mgl64.Mat3
	for i, row := range rows {
		if len(row) != 3 {
			return mgl64.Mat3{}, protocol.Invalidf("rotation matrix row %d must have 3 values, got %d", i, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return mgl64.Mat3{}, protocol.Invalidf("rotation matrix entry [%d][%d] is not finite", i, j)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// MatrixRows returns m as a row-major nested slice.
func MatrixRows(m mgl64.Mat3) [][]float64 {
	rows := make([][]float64, 3)
	for i := 0; i < 3; i++ {
		r := m.Row(i)
		rows[i] = []float64{r[0], r[1], r[2]}
	}
	return rows
}

// VectorFrom converts a 3-element slice into a Vec3.
func VectorFrom(name string, v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, protocol.Invalidf("%s must have 3 values, got %d", name, len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// SignedAxis is one of the six signed world axis tokens accepted at the
// command boundary.
type SignedAxis int

const (
	AxisPosX SignedAxis = iota
	AxisNegX
	AxisPosY
	AxisNegY
	AxisPosZ
	AxisNegZ
)

var axisTokens = [...]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (a SignedAxis) String() string {
	if a < 0 || int(a) >= len(axisTokens) {
		return fmt.Sprintf("SignedAxis(%d)", int(a))
	}
	return axisTokens[a]
}

// ParseSignedAxis maps a literal token to a SignedAxis.
func ParseSignedAxis(token string) (SignedAxis, error) {
	for i, t := range axisTokens {
		if t == token {
			return SignedAxis(i), nil
		}
	}
	return 0, protocol.Invalidf("invalid axis token %q, expected one of +x, -x, +y, -y, +z, -z", token)
}

// Vector returns the world unit vector for the axis.
func (a SignedAxis) Vector() mgl64.Vec3 {
	switch a {
	case AxisPosX:
		return WorldX
	case AxisNegX:
		return WorldX.Mul(-1)
	case AxisPosY:
		return WorldY
	case AxisNegY:
		return WorldY.Mul(-1)
	case AxisPosZ:
		return WorldZ
	case AxisNegZ:
		return WorldZ.Mul(-1)
	}
	return mgl64.Vec3{}
}

// Unit normalizes v, reporting false when v is degenerate.
func Unit(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l <= ZeroTolerance || math.IsNaN(l) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// CompleteBasis returns a right-handed orthonormal triple whose X axis is
// the normalized primary. The second axis is up x X, so with the default up
// hint (world Z) a horizontal primary yields a horizontal Y and Z pointing up.
//
// A primary within NearParallelCos of the up hint switches the hint to
// world Y. If the cross product still collapses, world X is used. A
// degenerate primary is replaced by world X.
func CompleteBasis(primary, up mgl64.Vec3) (x, y, z mgl64.Vec3) {
	x, ok := Unit(primary)
	if !ok {
		x = WorldX
	}
	u, ok := Unit(up)
	if !ok {
		u = WorldZ
	}
	if math.Abs(x.Dot(u)) > NearParallelCos {
		u = WorldY
	}

	y, ok = Unit(u.Cross(x))
	if !ok {
		y, ok = Unit(WorldX.Cross(x))
		if !ok {
			y = WorldY
		}
	}
	z = x.Cross(y)
	return x, y, z
}

// FromAxes builds a rotation from three column axes.
func FromAxes(x, y, z mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(x, y, z)
}

// Near reports whether a and b agree within tol on every component. The
// tolerance is absolute, including for components that are zero.
func Near(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// NearMat is Near for matrices.
func NearMat(a, b mgl64.Mat3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// IsRotation reports whether m is orthonormal and right-handed within tol.
func IsRotation(m mgl64.Mat3, tol float64) bool {
	if !NearMat(m.Transpose().Mul3(m), mgl64.Ident3(), tol) {
		return false
	}
	return math.Abs(m.Det()-1) <= tol
}
