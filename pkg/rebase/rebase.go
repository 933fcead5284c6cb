// Package rebase implements the two pose transitions on an already-posed
// object. Rebase rewrites only the stored pose; reset moves geometry so the
// pose lands on the requested world alignment.
//
// Both operations are pure: they take the current pose and return the new
// pose (and, for reset, the transform to apply to geometry). Hosts own the
// bookkeeping and apply the result.
package rebase

import (
	"fmt"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/pose"
	"github.com/go-gl/mathgl/mgl64"
)

// State is where an object's pose bookkeeping stands.
type State int

const (
	// StateRaw means the pose is whatever derivation produced.
	StateRaw State = iota
	// StateRebased means a rebase rewrote the stored pose.
	StateRebased
	// StateReset means a reset moved geometry onto the requested pose.
	StateReset
)

func (s State) String() string {
	switch s {
	case StateRaw:
		return "raw"
	case StateRebased:
		return "rebased"
	case StateReset:
		return "reset"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Frame returns the rotation a rebase stores: identity, or the frame with
// local Z along the requested z direction and local X along the requested
// x direction. Missing directions default to +z and +x.
func (s RebaseSpec) Frame() mgl64.Mat3 {
	if !s.Directional() {
		return mgl64.Ident3()
	}
	z := frame.AxisPosZ.Vector()
	if s.ZDirection != nil {
		z = s.ZDirection.Vector()
	}
	x := frame.AxisPosX.Vector()
	if s.XDirection != nil {
		x = s.XDirection.Vector()
	}
	bx, by, bz := frame.CompleteBasis(x, z)
	return frame.FromAxes(bx, by, bz)
}

// Rebase returns the new stored pose. Geometry does not move, so the result
// depends only on the current pose, the bbox center and the spec; applying
// the same spec twice gives the same pose.
func Rebase(current pose.Pose, bboxCenter mgl64.Vec3, spec RebaseSpec) pose.Pose {
	anchor := current.Translation
	if spec.Mode == BBoxCenter {
		anchor = bboxCenter
	}
	return pose.Pose{Rotation: spec.Frame(), Translation: anchor}
}

// Reset returns the transform that moves geometry onto the requested pose
// and the pose the geometry has afterwards.
//
// The rotation part is the inverse of the current rotation, pivoting at the
// pose origin, so it leaves the origin fixed. The translation part moves the
// origin to the target. Because the pivot is the origin itself the two
// parts commute and the final pose does not depend on their order.
func Reset(current pose.Pose, spec ResetSpec) (frame.Affine, pose.Pose) {
	xf := frame.Identity()
	next := current
	if spec.ResetRotation {
		xf = frame.RotationAbout(frame.Invert(current.Rotation), current.Translation)
		next.Rotation = mgl64.Ident3()
	}
	if spec.ResetTranslation {
		xf = xf.Then(frame.Translation(spec.Target.Sub(current.Translation)))
		next.Translation = spec.Target
	}
	return xf, next
}
