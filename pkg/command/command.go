// Package command parses the parameter records of the editing commands.
// The command layer uses it to reject malformed input before anything is
// sent; the simulated host uses the same parsers so both sides agree on
// what a record means.
package command

import (
	"strings"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Color is an RGB triple, 0..255 per channel.
type Color [3]int

// ParseColor reads [r, g, b].
func ParseColor(raw any, key string) (Color, error) {
	v, err := protocol.Triple(raw, key)
	if err != nil {
		return Color{}, err
	}
	var c Color
	for i, f := range v {
		if f != float64(int(f)) || f < 0 || f > 255 {
			return Color{}, protocol.Invalidf("%s[%d] must be an integer in 0..255, got %v", key, i, f)
		}
		c[i] = int(f)
	}
	return c, nil
}

// Record returns the {"r","g","b"} form hosts report colors in.
func (c Color) Record() map[string]int {
	return map[string]int{"r": c[0], "g": c[1], "b": c[2]}
}

func vector(params map[string]any, key string) (*mgl64.Vec3, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, err := protocol.Triple(raw, key)
	if err != nil {
		return nil, err
	}
	out, err := frame.VectorFrom(key, v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// rotation reads rotation_matrix, applying invert_rotation_matrix. The
// deprecated Euler "rotation" field is rejected unless a matrix is given.
func rotation(params map[string]any) (*mgl64.Mat3, error) {
	_, hasEuler := params["rotation"]
	raw, hasMatrix := params["rotation_matrix"]
	if hasEuler && (!hasMatrix || raw == nil) {
		return nil, protocol.Invalidf("rotation is deprecated; please provide rotation_matrix instead")
	}
	if !hasMatrix || raw == nil {
		return nil, nil
	}
	rows, err := protocol.Matrix3(raw, "rotation_matrix")
	if err != nil {
		return nil, err
	}
	m, err := frame.MatrixFromRows(rows)
	if err != nil {
		return nil, err
	}
	invert, err := protocol.OptBool(params, "invert_rotation_matrix", false)
	if err != nil {
		return nil, err
	}
	if invert {
		m = frame.Invert(m)
	}
	return &m, nil
}

// Modify is a validated modify_object record. Nil fields are unchanged.
type Modify struct {
	Selector    protocol.Selector
	NewName     string
	NewColor    *Color
	Layer       string
	Translation *mgl64.Vec3
	Scale       *mgl64.Vec3
	Rotation    *mgl64.Mat3
	Visible     *bool
}

// ParseModify validates a modify record. The selector is required unless
// the record is an all=true template.
func ParseModify(params map[string]any, needSelector bool) (Modify, error) {
	var m Modify
	var err error
	if needSelector {
		if m.Selector, err = protocol.SelectorFrom(params); err != nil {
			return m, err
		}
	}
	if m.NewName, err = protocol.OptString(params, "new_name"); err != nil {
		return m, err
	}
	m.NewName = strings.TrimSpace(m.NewName)
	if raw, ok := params["new_color"]; ok && raw != nil {
		c, err := ParseColor(raw, "new_color")
		if err != nil {
			return m, err
		}
		m.NewColor = &c
	}
	if m.Layer, err = protocol.OptString(params, "layer"); err != nil {
		return m, err
	}
	if m.Translation, err = vector(params, "translation"); err != nil {
		return m, err
	}
	if m.Scale, err = vector(params, "scale"); err != nil {
		return m, err
	}
	if m.Scale != nil {
		for i, s := range m.Scale {
			if s == 0 {
				return m, protocol.Invalidf("scale[%d] must be non-zero", i)
			}
		}
	}
	if m.Rotation, err = rotation(params); err != nil {
		return m, err
	}
	if raw, ok := params["visible"]; ok && raw != nil {
		b, ok := raw.(bool)
		if !ok {
			return m, protocol.Invalidf("visible must be a boolean")
		}
		m.Visible = &b
	}
	return m, nil
}

// MovesGeometry reports whether applying m transforms the object.
func (m Modify) MovesGeometry() bool {
	return m.Translation != nil || m.Scale != nil || m.Rotation != nil
}

// Rotate is a validated rotate_object record.
type Rotate struct {
	Selector protocol.Selector
	Rotation mgl64.Mat3
	Pivot    mgl64.Vec3
}

// ParseRotate validates a rotate record. Both rotation_matrix and pivot are
// required.
func ParseRotate(params map[string]any, needSelector bool) (Rotate, error) {
	var r Rotate
	var err error
	if needSelector {
		if r.Selector, err = protocol.SelectorFrom(params); err != nil {
			return r, err
		}
	}
	m, err := rotation(params)
	if err != nil {
		return r, err
	}
	if m == nil {
		return r, protocol.Invalidf("missing rotation_matrix")
	}
	r.Rotation = *m
	p, err := vector(params, "pivot")
	if err != nil {
		return r, err
	}
	if p == nil {
		return r, protocol.Invalidf("missing pivot")
	}
	r.Pivot = *p
	return r, nil
}

// Copy is a validated copy_object record.
type Copy struct {
	Selector    protocol.Selector
	Translation *mgl64.Vec3
	NewName     string
}

// ParseCopy validates a copy record.
func ParseCopy(params map[string]any) (Copy, error) {
	var c Copy
	var err error
	if c.Selector, err = protocol.SelectorFrom(params); err != nil {
		return c, err
	}
	if c.Translation, err = vector(params, "translation"); err != nil {
		return c, err
	}
	c.NewName, err = protocol.OptString(params, "new_name")
	return c, err
}

// Delete is a validated delete_objects record.
type Delete struct {
	IDs   []string
	Names []string
}

// ParseDelete requires confirm=true and at least one id or name.
func ParseDelete(params map[string]any) (Delete, error) {
	var d Delete
	confirm, err := protocol.OptBool(params, "confirm", false)
	if err != nil {
		return d, err
	}
	if !confirm {
		return d, protocol.Invalidf("delete blocked: confirm=true is required")
	}
	if d.IDs, err = Strings(params, "ids"); err != nil {
		return d, err
	}
	if d.Names, err = Strings(params, "names"); err != nil {
		return d, err
	}
	if len(d.IDs) == 0 && len(d.Names) == 0 {
		return d, protocol.Invalidf("no ids or names provided")
	}
	return d, nil
}

// Strings reads an optional list of non-blank strings.
func Strings(params map[string]any, key string) ([]string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var items []any
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		return nil, protocol.Invalidf("%s must be a list of strings", key)
	}
	var out []string
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, protocol.Invalidf("%s[%d] must be a string", key, i)
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Create is the envelope of a create_object record. Params is the
// primitive payload; its schema belongs to the host.
type Create struct {
	Type       string
	Name       string
	Color      *Color
	Params     map[string]any
	Attributes map[string]string
	// Modify carries the placement fields applied after creation.
	Modify Modify
}

// ParseCreate validates the envelope of a create record.
func ParseCreate(params map[string]any) (Create, error) {
	var c Create
	var err error
	if c.Type, err = protocol.OptString(params, "type"); err != nil {
		return c, err
	}
	c.Type = strings.ToUpper(strings.TrimSpace(c.Type))
	if c.Type == "" {
		return c, protocol.Invalidf("type is required")
	}
	if c.Name, err = protocol.OptString(params, "name"); err != nil {
		return c, err
	}
	if raw, ok := params["color"]; ok && raw != nil {
		col, err := ParseColor(raw, "color")
		if err != nil {
			return c, err
		}
		c.Color = &col
	}
	switch p := params["params"].(type) {
	case nil:
		c.Params = map[string]any{}
	case map[string]any:
		c.Params = p
	default:
		return c, protocol.Invalidf("params must be a dictionary")
	}
	switch a := params["attributes"].(type) {
	case nil:
	case map[string]any:
		c.Attributes = make(map[string]string, len(a))
		for k, v := range a {
			s, ok := v.(string)
			if !ok {
				return c, protocol.Invalidf("attributes.%s must be a string", k)
			}
			c.Attributes[k] = s
		}
	default:
		return c, protocol.Invalidf("attributes must be a dictionary")
	}
	c.Modify, err = ParseModify(params, false)
	return c, err
}

// LayerRef addresses a layer by name or guid.
type LayerRef struct {
	Name   string
	GUID   uuid.UUID
	Create bool
}

// IsZero reports whether the reference names no layer.
func (r LayerRef) IsZero() bool {
	return r.Name == "" && r.GUID == uuid.Nil
}

// ParseLayerRef reads name/guid. A present guid must parse and must not be
// the nil guid; a present name must not be blank.
func ParseLayerRef(params map[string]any) (LayerRef, error) {
	var r LayerRef
	if raw, ok := params["guid"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return r, protocol.Invalidf("guid must be a string")
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return r, protocol.Invalidf("invalid layer guid format: %s", s)
		}
		if id == uuid.Nil {
			return r, protocol.Invalidf("layer guid cannot be %s", uuid.Nil)
		}
		r.GUID = id
	}
	if raw, ok := params["name"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return r, protocol.Invalidf("name must be a string")
		}
		if strings.TrimSpace(s) == "" {
			return r, protocol.Invalidf("layer name cannot be empty")
		}
		r.Name = s
	}
	var err error
	r.Create, err = protocol.OptBool(params, "create", false)
	return r, err
}

// Select is a validated select_objects record. An empty record clears the
// selection.
type Select struct {
	IDs   []string
	Names []string
	Add   bool
}

// ParseSelect validates a select record.
func ParseSelect(params map[string]any) (Select, error) {
	var s Select
	var err error
	if s.IDs, err = Strings(params, "ids"); err != nil {
		return s, err
	}
	if s.Names, err = Strings(params, "names"); err != nil {
		return s, err
	}
	s.Add, err = protocol.OptBool(params, "add", false)
	return s, err
}

// Batch validates a batch record: the entry list, the all flag, and every
// entry through parse. With all=true exactly one template entry is
// required and it needs no selector.
func Batch[T any](params map[string]any, parse func(entry map[string]any, needSelector bool) (T, error)) ([]T, bool, error) {
	all, err := protocol.Flag(params, "all")
	if err != nil {
		return nil, false, err
	}
	entries, err := protocol.Entries(params, all)
	if err != nil {
		return nil, false, err
	}
	if all && len(entries) != 1 {
		return nil, false, protocol.Invalidf("all=true takes exactly one template entry, got %d", len(entries))
	}
	out := make([]T, len(entries))
	err = protocol.Validate(entries, func(i int, e map[string]any) error {
		var err error
		out[i], err = parse(e, !all)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, all, nil
}
