package document

import (
	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/pose"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// DefaultOutlinePoints is the outline sample cap when the request sets none.
const DefaultOutlinePoints = 32

// Summary describes one object in query results.
type Summary struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Category   string            `json:"category"`
	Layer      string            `json:"layer"`
	Color      map[string]int    `json:"color"`
	Visible    bool              `json:"visible"`
	Selected   bool              `json:"selected"`
	Geometry   *GeometrySummary  `json:"geometry,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// GeometrySummary is the geometric part of a Summary. Points are rounded
// to 2 decimals.
type GeometrySummary struct {
	BBox       [][]float64 `json:"bbox"`
	Start      []float64   `json:"start,omitempty"`
	End        []float64   `json:"end,omitempty"`
	Location   []float64   `json:"location,omitempty"`
	PointCount int         `json:"point_count,omitempty"`
	Outline    [][]float64 `json:"outline,omitempty"`
	Pose       pose.Pose   `json:"pose"`
	PoseState  string      `json:"pose_state"`
	OBB        pose.OBB    `json:"obb"`
}

type summaryOptions struct {
	geometry   bool
	attributes bool
	outlineMax int
}

func parseSummaryOptions(params map[string]any) (summaryOptions, error) {
	opts := summaryOptions{geometry: true}
	var err error
	if opts.attributes, err = protocol.OptBool(params, "include_attributes", false); err != nil {
		return opts, err
	}
	n, err := protocol.OptNumber(params, "outline_max_points", DefaultOutlinePoints)
	if err != nil {
		return opts, err
	}
	if n < 0 {
		return opts, protocol.Invalidf("outline_max_points must not be negative")
	}
	opts.outlineMax = int(n)
	return opts, nil
}

func (d *Document) summary(o *Object, opts summaryOptions) Summary {
	s := Summary{
		ID:       o.ID.String(),
		Name:     o.DisplayName(),
		Type:     o.Primitive,
		Category: o.Category.String(),
		Layer:    d.layerName(o.Layer),
		Color:    o.Color.Record(),
		Visible:  o.Visible,
		Selected: o.Selected,
	}
	if opts.attributes && len(o.Attributes) > 0 {
		s.Attributes = o.Attributes
	}
	if !opts.geometry {
		return s
	}

	box := o.Box()
	p, state := d.poseOf(o)
	g := &GeometrySummary{
		BBox:      [][]float64{pose.Vec2(box.Min), pose.Vec2(box.Max)},
		Pose:      p,
		PoseState: state.String(),
		OBB:       pose.Fit(p, o.Hull()),
	}
	switch o.Category {
	case derive.CategoryPoint:
		g.Location = pose.Vec2(o.points[0])
	case derive.CategoryLine:
		g.Start = pose.Vec2(o.points[0])
		g.End = pose.Vec2(o.points[len(o.points)-1])
	case derive.CategoryPolyline, derive.CategoryCurve:
		g.PointCount = len(o.points)
		g.Outline = outline(o.points, opts.outlineMax)
	}
	s.Geometry = g
	return s
}

// outline returns up to limit evenly spaced samples, always including the
// first and last point.
func outline(pts []mgl64.Vec3, limit int) [][]float64 {
	if limit <= 0 || len(pts) == 0 {
		return nil
	}
	if len(pts) <= limit {
		return lo.Map(pts, func(p mgl64.Vec3, _ int) []float64 { return pose.Vec2(p) })
	}
	if limit == 1 {
		return [][]float64{pose.Vec2(pts[0])}
	}
	out := make([][]float64, limit)
	for i := range out {
		out[i] = pose.Vec2(pts[i*(len(pts)-1)/(limit-1)])
	}
	return out
}

func (d *Document) objectInfo(params map[string]any) (any, error) {
	sel, err := protocol.SelectorFrom(params)
	if err != nil {
		return nil, err
	}
	opts, err := parseSummaryOptions(params)
	if err != nil {
		return nil, err
	}
	o, err := d.find(sel)
	if err != nil {
		return nil, err
	}
	return d.summary(o, opts), nil
}

// entryError is reported in place of a summary when one entry of
// get_objects_info cannot be resolved.
type entryError struct {
	Selector protocol.Selector `json:"selector"`
	Error    string            `json:"error"`
}

func (d *Document) objectsInfo(params map[string]any) (any, error) {
	entries, err := protocol.Entries(params, false)
	if err != nil {
		return nil, err
	}
	opts, err := parseSummaryOptions(params)
	if err != nil {
		return nil, err
	}
	sels := make([]protocol.Selector, len(entries))
	err = protocol.Validate(entries, func(i int, e map[string]any) error {
		var err error
		sels[i], err = protocol.SelectorFrom(e)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]any, len(sels))
	for i, sel := range sels {
		o, err := d.find(sel)
		if err != nil {
			out[i] = entryError{Selector: sel, Error: protocol.Message(err)}
			continue
		}
		out[i] = d.summary(o, opts)
	}
	return map[string]any{"objects": out}, nil
}

func (d *Document) selectedObjectsInfo(params map[string]any) (any, error) {
	opts, err := parseSummaryOptions(params)
	if err != nil {
		return nil, err
	}
	out := []Summary{}
	for _, o := range d.objects {
		if o.Selected {
			out = append(out, d.summary(o, opts))
		}
	}
	return map[string]any{"selected_objects": out}, nil
}

func (d *Document) documentInfo(map[string]any) (any, error) {
	objects := d.objects
	if len(objects) > InfoLimit {
		objects = objects[:InfoLimit]
	}
	layers := d.layers
	if len(layers) > InfoLimit {
		layers = layers[:InfoLimit]
	}
	return map[string]any{
		"meta_data": map[string]any{
			"name":            d.name,
			"units":           "millimeters",
			"tolerance":       d.tol,
			"angle_tolerance": d.angleTol,
			"current_layer":   d.layerName(d.current),
		},
		"object_count": len(d.objects),
		"objects": lo.Map(objects, func(o *Object, _ int) Summary {
			return d.summary(o, summaryOptions{geometry: true})
		}),
		"layer_count": len(d.layers),
		"layers":      lo.Map(layers, func(l *Layer, _ int) layerRecord { return l.record() }),
	}, nil
}
