package pose

import (
	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/go-gl/mathgl/mgl64"
)

// cornerSigns lists the local corner sign combinations in output order:
// bottom face counter-clockwise from (-,-,-), then the top face.
var cornerSigns = [8]mgl64.Vec3{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// OBB is an oriented box of full side lengths Extents centered on the local
// origin of Pose.
type OBB struct {
	Pose    Pose
	Extents mgl64.Vec3
}

// LocalCorners returns the corners at +/- extent/2 in the local frame.
func (b OBB) LocalCorners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	half := b.Extents.Mul(0.5)
	for i, s := range cornerSigns {
		out[i] = mgl64.Vec3{s[0] * half[0], s[1] * half[1], s[2] * half[2]}
	}
	return out
}

// WorldCorners returns translation + rotation*local for every corner.
func (b OBB) WorldCorners() [8]mgl64.Vec3 {
	local := b.LocalCorners()
	var out [8]mgl64.Vec3
	for i, c := range local {
		out[i] = b.Pose.ToWorld(c)
	}
	return out
}

// Fit returns the tightest box around points in p's frame. The box keeps
// p's rotation; its origin moves to the center of the local bounds.
func Fit(p Pose, points []mgl64.Vec3) OBB {
	if len(points) == 0 {
		return OBB{Pose: p}
	}
	local := make([]mgl64.Vec3, len(points))
	for i, pt := range points {
		local[i] = p.ToLocal(pt)
	}
	lb := bounds.FromPoints(local)
	return OBB{
		Pose:    Pose{Rotation: p.Rotation, Translation: p.ToWorld(lb.Center())},
		Extents: lb.Size(),
	}
}
