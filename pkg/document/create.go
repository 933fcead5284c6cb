package document

import (
	"math"

	"github.com/chazu/cadmcp/pkg/command"
	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/kernel"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// curveSegments is the sample count of circles, arcs and ellipses.
const curveSegments = 64

func (d *Document) createObject(params map[string]any) (any, error) {
	c, err := command.ParseCreate(params)
	if err != nil {
		return nil, err
	}
	return d.create(c)
}

func (d *Document) createObjects(params map[string]any) (any, error) {
	entries, err := protocol.Entries(params, false)
	if err != nil {
		return nil, err
	}
	specs := make([]command.Create, len(entries))
	err = protocol.Validate(entries, func(i int, e map[string]any) error {
		var err error
		specs[i], err = command.ParseCreate(e)
		return err
	})
	if err != nil {
		return nil, err
	}
	results, err := protocol.RunBatch(specs, func(_ int, c command.Create) (State, error) {
		return d.create(c)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"created": len(results), "results": results}, nil
}

// create adds the primitive, bootstraps its pose, then applies the
// placement fields of the record as a modify would.
func (d *Document) create(c command.Create) (State, error) {
	o := &Object{
		ID:         uuid.New(),
		Name:       c.Name,
		Primitive:  c.Type,
		Layer:      d.current,
		Visible:    true,
		Attributes: c.Attributes,
	}
	if c.Color != nil {
		o.Color = *c.Color
	}
	if err := d.build(o, c.Type, c.Params); err != nil {
		return State{}, err
	}
	d.add(o)
	d.poseOf(o)
	d.log.Info("created object", "object", d.objectRef(o), "type", c.Type)

	m := c.Modify
	m.Selector = protocol.Selector{ID: o.ID.String()}
	return d.modify(o, m)
}

// build creates the geometry of o from a primitive payload.
func (d *Document) build(o *Object, kind string, p map[string]any) error {
	var err error
	switch kind {
	case "POINT":
		var v [3]float64
		for i, key := range []string{"x", "y", "z"} {
			if v[i], err = protocol.OptNumber(p, key, 0); err != nil {
				return err
			}
		}
		o.Category = derive.CategoryPoint
		o.points = []mgl64.Vec3{v}
	case "LINE":
		start, err := point(p, "start")
		if err != nil {
			return err
		}
		end, err := point(p, "end")
		if err != nil {
			return err
		}
		o.Category = derive.CategoryLine
		o.points = []mgl64.Vec3{start, end}
	case "POLYLINE", "CURVE":
		pts, err := points(p, "points")
		if err != nil {
			return err
		}
		o.Category = derive.CategoryPolyline
		if kind == "CURVE" {
			o.Category = derive.CategoryCurve
		}
		o.points = pts
	case "CIRCLE", "ARC", "ELLIPSE":
		return d.buildConic(o, kind, p)
	case "BOX":
		dims := make([]float64, 3)
		for i, key := range []string{"width", "length", "height"} {
			if dims[i], err = protocol.OptNumber(p, key, 0); err != nil {
				return err
			}
		}
		o.solid, err = d.k.Box(dims[0], dims[1], dims[2])
		o.Category = derive.CategoryBrep
	case "SPHERE":
		var r float64
		if r, err = protocol.OptNumber(p, "radius", 0); err != nil {
			return err
		}
		o.solid, err = d.k.Sphere(r)
		o.Category = derive.CategoryBrep
	case "CYLINDER":
		var r, h float64
		if r, err = protocol.OptNumber(p, "radius", 0); err != nil {
			return err
		}
		if h, err = protocol.OptNumber(p, "height", 0); err != nil {
			return err
		}
		axisName, err := protocol.OptString(p, "axis")
		if err != nil {
			return err
		}
		axis, err := kernel.ParseAxis(axisName)
		if err != nil {
			return protocol.Invalidf("%v", err)
		}
		o.solid, err = d.k.Cylinder(h, r, axis)
		o.Category = derive.CategoryBrep
		return err
	default:
		return protocol.HostErrorf("invalid object type %s", kind)
	}
	return err
}

// buildConic samples circles, arcs and ellipses in a world XY plane.
func (d *Document) buildConic(o *Object, kind string, p map[string]any) error {
	center, err := point(p, "center")
	if err != nil {
		return err
	}
	rx, ry := 0.0, 0.0
	sweep := 2 * math.Pi
	closed := true
	switch kind {
	case "ELLIPSE":
		if rx, err = protocol.OptNumber(p, "radius_x", 0); err != nil {
			return err
		}
		if ry, err = protocol.OptNumber(p, "radius_y", 0); err != nil {
			return err
		}
	default:
		if rx, err = protocol.OptNumber(p, "radius", 0); err != nil {
			return err
		}
		ry = rx
	}
	if kind == "ARC" {
		deg, err := protocol.OptNumber(p, "angle", 0)
		if err != nil {
			return err
		}
		if deg <= 0 || deg > 360 {
			return protocol.Invalidf("ARC.params.angle must be in (0, 360], got %v", deg)
		}
		sweep = deg * math.Pi / 180
		closed = deg == 360
	}
	if rx <= 0 || ry <= 0 {
		return protocol.Invalidf("%s radius must be positive", kind)
	}

	n := curveSegments
	if !closed {
		n++
	}
	pts := make([]mgl64.Vec3, n)
	for i := range pts {
		a := sweep * float64(i) / float64(curveSegments)
		pts[i] = center.Add(mgl64.Vec3{rx * math.Cos(a), ry * math.Sin(a), 0})
	}
	o.Category = derive.CategoryCurve
	o.points = pts
	return nil
}

func point(p map[string]any, key string) (mgl64.Vec3, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return mgl64.Vec3{}, protocol.Invalidf("%s is required", key)
	}
	v, err := protocol.Triple(raw, key)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return frame.VectorFrom(key, v)
}

func points(p map[string]any, key string) ([]mgl64.Vec3, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, protocol.Invalidf("%s is required", key)
	}
	rows, err := protocol.Rows(raw, key)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, protocol.Invalidf("%s needs at least 2 points, got %d", key, len(rows))
	}
	out := make([]mgl64.Vec3, len(rows))
	for i, r := range rows {
		if len(r) != 3 {
			return nil, protocol.Invalidf("%s[%d] must have 3 values, got %d", key, i, len(r))
		}
		if out[i], err = frame.VectorFrom(key, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// duplicate returns a copy of o with a fresh id. Geometry is immutable or
// copied; the stored pose is copied as is.
func (d *Document) duplicate(o *Object) *Object {
	dup := *o
	dup.ID = uuid.New()
	dup.Selected = false
	dup.points = append([]mgl64.Vec3(nil), o.points...)
	if o.Attributes != nil {
		dup.Attributes = make(map[string]string, len(o.Attributes))
		for k, v := range o.Attributes {
			dup.Attributes[k] = v
		}
	}
	if o.stored != nil {
		s := *o.stored
		dup.stored = &s
	}
	return &dup
}
