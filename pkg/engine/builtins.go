package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
)

// planner collects the commands a script emits.
type planner struct {
	plan Plan
}

func (p *planner) add(cmd string, params map[string]any) {
	p.plan = append(p.plan, protocol.Request{Type: cmd, Params: params})
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRef names an object, by name or by id.
type sexpRef struct {
	name string
	id   string
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	if r.id != "" {
		return fmt.Sprintf("(id %q)", r.id)
	}
	return fmt.Sprintf("(ref %q)", r.name)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpColor struct {
	rgb [3]float64
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgb %g %g %g)", c.rgb[0], c.rgb[1], c.rgb[2])
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpMatrix is a rotation built by rotx/roty/rotz.
type sexpMatrix struct {
	m mgl64.Mat3
}

func (m *sexpMatrix) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(matrix %v)", frame.MatrixRows(m.m))
}
func (m *sexpMatrix) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if _, seen := result.kw[name]; !seen {
			result.order = append(result.order, name)
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Trailing keyword is a flag.
			result.kw[name] = &zygo.SexpBool{Val: true}
			i++
		}
	}
	return result
}

// snake maps a script keyword to its parameter key: new-name -> new_name.
func snake(k string) string {
	return strings.ReplaceAll(k, "-", "_")
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func vecParam(v mgl64.Vec3) []any {
	return []any{v[0], v[1], v[2]}
}

// toParam converts a script value to its decoded-JSON parameter form.
// Keywords become their snake_case name.
func toParam(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr:
		if name, ok := isKW(v); ok {
			return snake(name), nil
		}
		return v.S, nil
	case *sexpVec3:
		return vecParam(v.vec), nil
	case *sexpColor:
		return []any{v.rgb[0], v.rgb[1], v.rgb[2]}, nil
	case *sexpMatrix:
		rows := frame.MatrixRows(v.m)
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = []any{r[0], r[1], r[2]}
		}
		return out, nil
	case *sexpRef:
		if v.id != "" {
			return v.id, nil
		}
		return v.name, nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			if out[i], err = toParam(item); err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return out, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("unsupported value %T (%s)", s, s.SexpString(nil))
}

// kwParams converts keyword arguments to parameters. rename maps a script
// keyword to a different parameter key; keywords listed in skip are left
// for the caller.
func kwParams(pa kwArgs, rename map[string]string, skip ...string) (map[string]any, error) {
	out := map[string]any{}
	for _, k := range pa.order {
		if lo.Contains(skip, k) {
			continue
		}
		v, err := toParam(pa.kw[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		key := snake(k)
		if r, ok := rename[k]; ok {
			key = r
		}
		out[key] = v
	}
	return out, nil
}

// selector returns the {"id"} or {"name"} record of an object reference.
// Strings are names.
func selector(s zygo.Sexp) (map[string]any, error) {
	switch v := s.(type) {
	case *sexpRef:
		if v.id != "" {
			return map[string]any{"id": v.id}, nil
		}
		if v.name == "" {
			return nil, fmt.Errorf("object has no name; pass a name when creating it")
		}
		return map[string]any{"name": v.name}, nil
	case *zygo.SexpStr:
		if _, ok := isKW(v); !ok {
			return map[string]any{"name": v.S}, nil
		}
	}
	return nil, fmt.Errorf("expected object reference or name, got %T (%s)", s, s.SexpString(nil))
}

// target reads the leading object reference of an edit builtin.
func target(fn string, pa kwArgs) (map[string]any, error) {
	if len(pa.positional) < 1 {
		return nil, fmt.Errorf("%s requires an object as first argument", fn)
	}
	sel, err := selector(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return sel, nil
}

// merge copies src into dst.
func merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// shapeTypes maps shape builtins to host object types.
var shapeTypes = map[string]string{
	"point":    "POINT",
	"line":     "LINE",
	"polyline": "POLYLINE",
	"curve":    "CURVE",
	"circle":   "CIRCLE",
	"arc":      "ARC",
	"ellipse":  "ELLIPSE",
	"box":      "BOX",
	"sphere":   "SPHERE",
	"cylinder": "CYLINDER",
}

// placementKeys are shape keywords that go on the create record rather
// than into params.
var placementKeys = map[string]string{
	"at":       "translation",
	"scale":    "scale",
	"rotation": "rotation_matrix",
	"color":    "color",
	"layer":    "layer",
}

// registerBuiltins installs the script builtins into a zygomys environment.
// Every builtin appends to pl and returns a value later builtins can use.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, pl *planner) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v mgl64.Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// (rgb 200 120 40)
	env.AddFunction("rgb", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("rgb requires exactly 3 arguments, got %d", len(args))
		}
		var c sexpColor
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgb: %w", err)
			}
			if f < 0 || f > 255 || f != float64(int(f)) {
				return zygo.SexpNull, fmt.Errorf("rgb: channel %d must be an integer in 0..255, got %g", i, f)
			}
			c.rgb[i] = f
		}
		return &c, nil
	})

	// (rotx 90), (roty 90), (rotz 90): rotation about a world axis, degrees.
	for fn, rot := range map[string]func(float64) mgl64.Mat3{
		"rotx": mgl64.Rotate3DX,
		"roty": mgl64.Rotate3DY,
		"rotz": mgl64.Rotate3DZ,
	} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires an angle in degrees", name)
			}
			deg, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &sexpMatrix{m: rot(mgl64.DegToRad(deg))}, nil
		})
	}

	// (id "3f2c...") refers to an object by id.
	env.AddFunction("id", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("id requires one argument")
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("id: %w", err)
		}
		return &sexpRef{id: s}, nil
	})

	// (box "shelf" :width 600 :length 300 :height 19 :at (vec3 0 0 400) :color (rgb 200 120 40))
	for fn, kind := range shapeTypes {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			rec := map[string]any{"type": kind}
			ref := &sexpRef{}
			if len(pa.positional) > 0 {
				s, err := toString(pa.positional[0])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: name: %w", name, err)
				}
				rec["name"] = s
				ref.name = s
			}

			skip := make([]string, 0, len(placementKeys))
			for k, key := range placementKeys {
				v, ok := pa.kw[k]
				if !ok {
					continue
				}
				skip = append(skip, k)
				// A point's position is its geometry.
				if kind == "POINT" && k == "at" {
					continue
				}
				p, err := toParam(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %s: %w", name, k, err)
				}
				rec[key] = p
			}
			params, err := kwParams(pa, nil, skip...)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			if v, ok := pa.kw["at"]; ok && kind == "POINT" {
				at, err := toVec3(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: at: %w", name, err)
				}
				params["x"], params["y"], params["z"] = at[0], at[1], at[2]
			}
			rec["params"] = params
			pl.add("create_object", rec)
			return ref, nil
		})
	}

	// edit registers a builtin that forwards (fn target ...) as cmd.
	// build adds the command-specific fields to the selector record.
	edit := func(fn, cmd string, build func(pa kwArgs, rec map[string]any) error) {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			rec, err := target(name, pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			if err := build(pa, rec); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			pl.add(cmd, rec)
			return pa.positional[0], nil
		})
	}

	// second reads the positional argument after the target.
	second := func(pa kwArgs, what string) (zygo.Sexp, error) {
		if len(pa.positional) < 2 {
			return nil, fmt.Errorf("missing %s", what)
		}
		return pa.positional[1], nil
	}

	// (move "shelf" (vec3 0 0 10))
	edit("move", "modify_object", func(pa kwArgs, rec map[string]any) error {
		v, err := second(pa, "translation")
		if err != nil {
			return err
		}
		vec, err := toVec3(v)
		if err != nil {
			return err
		}
		rec["translation"] = vecParam(vec)
		return nil
	})

	// (scale "shelf" 2) or (scale "shelf" (vec3 1 1 2))
	edit("scale", "modify_object", func(pa kwArgs, rec map[string]any) error {
		v, err := second(pa, "scale")
		if err != nil {
			return err
		}
		if f, err := toFloat64(v); err == nil {
			rec["scale"] = []any{f, f, f}
			return nil
		}
		vec, err := toVec3(v)
		if err != nil {
			return err
		}
		rec["scale"] = vecParam(vec)
		return nil
	})

	// (rotate "shelf" (rotz 90)) pivots on the bounding box center;
	// (rotate "shelf" (rotz 90) :pivot (vec3 0 0 0)) on a world point.
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rec, err := target(name, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("rotate: missing rotation")
		}
		m, ok := pa.positional[1].(*sexpMatrix)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("rotate: expected rotation from rotx/roty/rotz, got %s", pa.positional[1].SexpString(nil))
		}
		rows, _ := toParam(m)
		rec["rotation_matrix"] = rows
		cmd := "modify_object"
		if v, ok := pa.kw["pivot"]; ok {
			pivot, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: pivot: %w", err)
			}
			rec["pivot"] = vecParam(pivot)
			cmd = "rotate_object"
		}
		pl.add(cmd, rec)
		return pa.positional[0], nil
	})

	// (paint "shelf" (rgb 255 0 0))
	edit("paint", "modify_object", func(pa kwArgs, rec map[string]any) error {
		v, err := second(pa, "color")
		if err != nil {
			return err
		}
		c, ok := v.(*sexpColor)
		if !ok {
			return fmt.Errorf("expected rgb color, got %s", v.SexpString(nil))
		}
		rec["new_color"], _ = toParam(c)
		return nil
	})

	// (hide "shelf"), (show "shelf")
	for fn, visible := range map[string]bool{"hide": false, "show": true} {
		edit(fn, "modify_object", func(pa kwArgs, rec map[string]any) error {
			rec["visible"] = visible
			return nil
		})
	}

	// (modify "shelf" :new-name "top" :layer "Wood")
	edit("modify", "modify_object", func(pa kwArgs, rec map[string]any) error {
		p, err := kwParams(pa, map[string]string{"by": "translation", "rotation": "rotation_matrix", "color": "new_color"})
		if err != nil {
			return err
		}
		merge(rec, p)
		return nil
	})

	// (rebase "shelf" :mode :bbox-center :z "-z" :x "+y")
	rebaseKeys := map[string]string{"mode": "translation_mode", "z": "z_direction", "x": "x_direction"}
	edit("rebase", "rebase_object_pose", func(pa kwArgs, rec map[string]any) error {
		p, err := kwParams(pa, rebaseKeys)
		if err != nil {
			return err
		}
		merge(rec, p)
		return nil
	})

	// (reset "shelf" :rotation false :to (vec3 0 0 0))
	resetKeys := map[string]string{"rotation": "reset_rotation", "translation": "reset_translation", "to": "target_translation"}
	edit("reset", "reset_object_pose", func(pa kwArgs, rec map[string]any) error {
		p, err := kwParams(pa, resetKeys)
		if err != nil {
			return err
		}
		merge(rec, p)
		return nil
	})

	// (rebase-all :mode :bbox-center), (reset-all :rotation false)
	for fn, c := range map[string]struct {
		cmd  string
		keys map[string]string
	}{
		"rebase_all": {"rebase_objects_pose", rebaseKeys},
		"reset_all":  {"reset_objects_pose", resetKeys},
	} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) > 0 {
				return zygo.SexpNull, fmt.Errorf("%s takes keyword arguments only", name)
			}
			p, err := kwParams(pa, c.keys)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			rec := map[string]any{"all": true}
			if len(p) > 0 {
				rec["objects"] = []any{p}
			}
			pl.add(c.cmd, rec)
			return zygo.SexpNull, nil
		})
	}

	// (duplicate "shelf" :as "shelf2" :by (vec3 0 0 300))
	env.AddFunction("duplicate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rec, err := target(name, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		ref := pa.positional[0]
		if v, ok := pa.kw["as"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("duplicate: as: %w", err)
			}
			rec["new_name"] = s
			ref = &sexpRef{name: s}
		}
		if v, ok := pa.kw["by"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("duplicate: by: %w", err)
			}
			rec["translation"] = vecParam(vec)
		}
		pl.add("copy_object", rec)
		return ref, nil
	})

	// refs splits object arguments into ids and names.
	refs := func(name string, items []zygo.Sexp) (ids, names []any, err error) {
		for i, item := range items {
			sel, err := selector(item)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: argument %d: %w", name, i, err)
			}
			if id, ok := sel["id"]; ok {
				ids = append(ids, id)
			} else {
				names = append(names, sel["name"])
			}
		}
		return ids, names, nil
	}

	// (erase "a" "b")
	env.AddFunction("erase", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) == 0 {
			return zygo.SexpNull, fmt.Errorf("erase requires at least one object")
		}
		ids, names, err := refs(name, pa.positional)
		if err != nil {
			return zygo.SexpNull, err
		}
		rec := map[string]any{"confirm": true}
		if len(ids) > 0 {
			rec["ids"] = ids
		}
		if len(names) > 0 {
			rec["names"] = names
		}
		pl.add("delete_objects", rec)
		return zygo.SexpNull, nil
	})

	// (select "a" "b" :add true); (select) clears.
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ids, names, err := refs(name, pa.positional)
		if err != nil {
			return zygo.SexpNull, err
		}
		rec, err := kwParams(pa, nil)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("select: %w", err)
		}
		if len(ids) > 0 {
			rec["ids"] = ids
		}
		if len(names) > 0 {
			rec["names"] = names
		}
		pl.add("select_objects", rec)
		return zygo.SexpNull, nil
	})

	// (layer "Wood" :create true); (layer) reports the current layer.
	// (delete-layer "Wood")
	for fn, cmd := range map[string]string{"layer": "get_or_set_current_layer", "delete_layer": "delete_layer"} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			rec, err := kwParams(pa, nil)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			if len(pa.positional) > 0 {
				s, err := toString(pa.positional[0])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
				}
				rec["name"] = s
			}
			pl.add(cmd, rec)
			return zygo.SexpNull, nil
		})
	}

	// (info "shelf" :include-attributes true)
	edit("info", "get_object_info", func(pa kwArgs, rec map[string]any) error {
		p, err := kwParams(pa, nil)
		if err != nil {
			return err
		}
		merge(rec, p)
		return nil
	})

	// (document), (graph)
	for fn, cmd := range map[string]string{"document": "get_document_info", "graph": "get_connectivity_graph"} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) > 0 {
				return zygo.SexpNull, fmt.Errorf("%s takes no arguments", name)
			}
			pl.add(cmd, map[string]any{})
			return zygo.SexpNull, nil
		})
	}

	// (command "save_file" :file-path "out.3dm") forwards any command.
	env.AddFunction("command", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("command requires exactly one command name")
		}
		cmd, err := toKeywordString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("command: %w", err)
		}
		rec, err := kwParams(pa, nil)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("command: %w", err)
		}
		pl.add(snake(cmd), rec)
		return zygo.SexpNull, nil
	})
}
