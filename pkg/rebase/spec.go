package rebase

import (
	"fmt"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

// TranslationMode selects the anchor a rebase stores as the pose origin.
type TranslationMode int

const (
	// PoseT keeps the current pose translation.
	PoseT TranslationMode = iota
	// BBoxCenter uses the world bounding box center.
	BBoxCenter
)

func (m TranslationMode) String() string {
	switch m {
	case PoseT:
		return "pose_t"
	case BBoxCenter:
		return "bbox_center"
	}
	return fmt.Sprintf("TranslationMode(%d)", int(m))
}

// ParseTranslationMode accepts "pose_t" and "bbox_center". An empty string
// is the default, PoseT.
func ParseTranslationMode(s string) (TranslationMode, error) {
	switch s {
	case "", "pose_t":
		return PoseT, nil
	case "bbox_center":
		return BBoxCenter, nil
	}
	return 0, protocol.Invalidf("invalid translation_mode %q, expected pose_t or bbox_center", s)
}

// RebaseSpec is a validated rebase request for one object.
type RebaseSpec struct {
	Mode TranslationMode

	// Nil when not requested.
	ZDirection *frame.SignedAxis
	XDirection *frame.SignedAxis
}

// Directional reports whether the spec asks for a frame other than identity.
func (s RebaseSpec) Directional() bool {
	return s.ZDirection != nil || s.XDirection != nil
}

// ParseRebaseSpec validates the rebase fields of a parameter record.
func ParseRebaseSpec(params map[string]any) (RebaseSpec, error) {
	var spec RebaseSpec

	mode, err := protocol.OptString(params, "translation_mode")
	if err != nil {
		return spec, err
	}
	if spec.Mode, err = ParseTranslationMode(mode); err != nil {
		return spec, err
	}

	z, err := protocol.OptString(params, "z_direction")
	if err != nil {
		return spec, err
	}
	if z != "" {
		a, err := frame.ParseSignedAxis(z)
		if err != nil || (a != frame.AxisPosZ && a != frame.AxisNegZ) {
			return spec, protocol.Invalidf("invalid z_direction %q, expected +z or -z", z)
		}
		spec.ZDirection = &a
	}

	x, err := protocol.OptString(params, "x_direction")
	if err != nil {
		return spec, err
	}
	if x != "" {
		a, err := frame.ParseSignedAxis(x)
		if err != nil || a == frame.AxisPosZ || a == frame.AxisNegZ {
			return spec, protocol.Invalidf("invalid x_direction %q, expected +x, -x, +y or -y", x)
		}
		spec.XDirection = &a
	}
	return spec, nil
}

// Params returns the record form of the spec.
func (s RebaseSpec) Params() map[string]any {
	out := map[string]any{"translation_mode": s.Mode.String()}
	if s.ZDirection != nil {
		out["z_direction"] = s.ZDirection.String()
	}
	if s.XDirection != nil {
		out["x_direction"] = s.XDirection.String()
	}
	return out
}

// ResetSpec is a validated reset request for one object.
type ResetSpec struct {
	ResetRotation    bool
	ResetTranslation bool
	Target           mgl64.Vec3
}

// DefaultResetSpec resets both rotation and translation to the world origin.
func DefaultResetSpec() ResetSpec {
	return ResetSpec{ResetRotation: true, ResetTranslation: true}
}

// ParseResetSpec validates the reset fields of a parameter record.
func ParseResetSpec(params map[string]any) (ResetSpec, error) {
	spec := DefaultResetSpec()
	var err error
	if spec.ResetRotation, err = protocol.OptBool(params, "reset_rotation", true); err != nil {
		return spec, err
	}
	if spec.ResetTranslation, err = protocol.OptBool(params, "reset_translation", true); err != nil {
		return spec, err
	}
	if raw, ok := params["target_translation"]; ok && raw != nil {
		v, err := protocol.Triple(raw, "target_translation")
		if err != nil {
			return spec, err
		}
		spec.Target = mgl64.Vec3{v[0], v[1], v[2]}
	}
	return spec, nil
}

// Params returns the record form of the spec.
func (s ResetSpec) Params() map[string]any {
	return map[string]any{
		"reset_rotation":     s.ResetRotation,
		"reset_translation":  s.ResetTranslation,
		"target_translation": []float64{s.Target[0], s.Target[1], s.Target[2]},
	}
}

// ValidateRebaseBatch checks every entry before anything is applied. Each
// entry needs a selector and valid rebase fields; with all set, entries are
// templates and need no selector.
func ValidateRebaseBatch(entries []map[string]any, all bool) ([]protocol.Selector, []RebaseSpec, error) {
	if err := checkTemplates(entries, all); err != nil {
		return nil, nil, err
	}
	sels := make([]protocol.Selector, len(entries))
	specs := make([]RebaseSpec, len(entries))
	err := protocol.Validate(entries, func(i int, e map[string]any) error {
		var err error
		if !all {
			if sels[i], err = protocol.SelectorFrom(e); err != nil {
				return err
			}
		}
		specs[i], err = ParseRebaseSpec(e)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sels, specs, nil
}

// checkTemplates rejects more than one entry when all is set: every visible
// object gets the same template, so a second entry would be ignored.
func checkTemplates(entries []map[string]any, all bool) error {
	if all && len(entries) > 1 {
		return protocol.Invalidf("all=true takes at most one template entry, got %d", len(entries))
	}
	return nil
}

// ValidateResetBatch checks every entry before anything is applied. With
// all set, entries are templates and need no selector.
func ValidateResetBatch(entries []map[string]any, all bool) ([]protocol.Selector, []ResetSpec, error) {
	if err := checkTemplates(entries, all); err != nil {
		return nil, nil, err
	}
	sels := make([]protocol.Selector, len(entries))
	specs := make([]ResetSpec, len(entries))
	err := protocol.Validate(entries, func(i int, e map[string]any) error {
		var err error
		if !all {
			if sels[i], err = protocol.SelectorFrom(e); err != nil {
				return err
			}
		}
		specs[i], err = ParseResetSpec(e)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sels, specs, nil
}
