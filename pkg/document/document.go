// Package document is the simulated geometry host: an in-memory CAD
// document of named objects on layers, backed by a kernel.Kernel, that
// executes every host command of the wire protocol.
//
// Each object carries a stored pose next to its geometry. The pose is
// derived from the geometry when the object is created and follows every
// transform applied to it; rebase replaces it without moving geometry and
// reset moves geometry onto it.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/command"
	"github.com/chazu/cadmcp/pkg/derive"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/kernel"
	"github.com/chazu/cadmcp/pkg/pose"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/chazu/cadmcp/pkg/rebase"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultName           = "Untitled"
	DefaultTolerance      = 0.001
	DefaultAngleTolerance = 1.0
	DefaultLayerName      = "Default"
	// InfoLimit caps the objects and layers listed by get_document_info.
	InfoLimit = 300
)

// Layer is a named object container.
type Layer struct {
	ID      uuid.UUID
	Name    string
	Color   command.Color
	Visible bool
	Locked  bool
}

// Object is one document object. Solids have a kernel solid; points and
// curves keep their world samples.
type Object struct {
	ID         uuid.UUID
	Name       string
	Primitive  string
	Category   derive.Category
	Layer      uuid.UUID
	Color      command.Color
	Visible    bool
	Selected   bool
	Attributes map[string]string

	solid  kernel.Solid
	points []mgl64.Vec3

	stored *storedPose
}

// storedPose is the pose bookkeeping kept per object. Snapshot is the
// world bbox at the time the pose was written.
type storedPose struct {
	pose     pose.Pose
	state    rebase.State
	snapshot bounds.Box
}

// DisplayName is the name, or "(unnamed)".
func (o *Object) DisplayName() string {
	if o.Name == "" {
		return "(unnamed)"
	}
	return o.Name
}

// Box returns the world axis-aligned bounding box.
func (o *Object) Box() bounds.Box {
	if o.solid != nil {
		return o.solid.BoundingBox()
	}
	return bounds.FromPoints(o.points)
}

// Hull returns the points an oriented box of the object must contain.
func (o *Object) Hull() []mgl64.Vec3 {
	if o.solid != nil {
		return o.solid.Hull()
	}
	return o.points
}

// Solid returns the kernel solid, nil for points and curves.
func (o *Object) Solid() kernel.Solid {
	return o.solid
}

// Option configures a Document.
type Option func(*Document)

// WithName sets the document name.
func WithName(name string) Option {
	return func(d *Document) { d.name = name }
}

// WithTolerance sets the absolute and angle tolerances.
func WithTolerance(abs, angleDegrees float64) Option {
	return func(d *Document) {
		if abs > 0 {
			d.tol = abs
		}
		if angleDegrees > 0 {
			d.angleTol = angleDegrees
		}
	}
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.log = l
		}
	}
}

type handler func(params map[string]any) (any, error)

// Document is the simulated host state. It is safe for concurrent use;
// commands execute one at a time.
type Document struct {
	k        kernel.Kernel
	name     string
	tol      float64
	angleTol float64
	log      *slog.Logger

	mu       sync.Mutex
	objects  []*Object
	layers   []*Layer
	current  uuid.UUID
	handlers map[string]handler
}

// New returns an empty document with a single default layer.
func New(k kernel.Kernel, opts ...Option) *Document {
	d := &Document{
		k:        k,
		name:     DefaultName,
		tol:      DefaultTolerance,
		angleTol: DefaultAngleTolerance,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	def := &Layer{ID: uuid.New(), Name: DefaultLayerName, Visible: true}
	d.layers = []*Layer{def}
	d.current = def.ID
	d.handlers = d.routes()
	return d
}

// Tolerance returns the document absolute tolerance.
func (d *Document) Tolerance() float64 {
	return d.tol
}

// Commands lists the command types the document executes.
func (d *Document) Commands() []string {
	names := lo.Keys(d.handlers)
	sort.Strings(names)
	return names
}

// Execute runs one command. Errors are *protocol.Error values or wrap one.
func (d *Document) Execute(ctx context.Context, req protocol.Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, protocol.HostErrorf("%s: %v", req.Type, err)
	}
	h, ok := d.handlers[req.Type]
	if !ok {
		return nil, protocol.HostErrorf("unknown command type: %s", req.Type)
	}
	params := req.Params
	if params == nil {
		params = map[string]any{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.log.Debug("execute", "type", req.Type)
	result, err := h(params)
	if err != nil {
		d.log.Debug("command failed", "type", req.Type, "kind", protocol.KindOf(err), "error", err)
		return nil, err
	}
	return result, nil
}

// Objects returns the objects in document order. The slice is a copy; the
// objects are shared and must not be mutated.
func (d *Document) Objects() []*Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Object(nil), d.objects...)
}

func (d *Document) add(o *Object) {
	d.objects = append(d.objects, o)
}

func (d *Document) remove(doomed []*Object) {
	gone := lo.SliceToMap(doomed, func(o *Object) (uuid.UUID, bool) { return o.ID, true })
	d.objects = lo.Reject(d.objects, func(o *Object, _ int) bool { return gone[o.ID] })
}

// find resolves a selector. The id wins when both are given; a name must
// match exactly one object.
func (d *Document) find(sel protocol.Selector) (*Object, error) {
	if sel.ID != "" {
		id, err := uuid.Parse(sel.ID)
		if err != nil {
			return nil, protocol.Invalidf("invalid object id %q", sel.ID)
		}
		o, ok := lo.Find(d.objects, func(o *Object) bool { return o.ID == id })
		if !ok {
			return nil, protocol.HostErrorf("object with ID %s not found", sel.ID)
		}
		return o, nil
	}
	matches := lo.Filter(d.objects, func(o *Object, _ int) bool { return o.Name == sel.Name })
	switch len(matches) {
	case 0:
		return nil, protocol.HostErrorf("object with name %s not found", sel.Name)
	case 1:
		return matches[0], nil
	}
	return nil, protocol.Ambiguousf("multiple objects with name %s found", sel.Name)
}

// findAll resolves id and name lists, failing on the first miss, and
// returns distinct objects in request order.
func (d *Document) findAll(ids, names []string) ([]*Object, error) {
	var out []*Object
	for _, id := range ids {
		o, err := d.find(protocol.Selector{ID: id})
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	for _, name := range names {
		o, err := d.find(protocol.Selector{Name: name})
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return lo.UniqBy(out, func(o *Object) uuid.UUID { return o.ID }), nil
}

func (d *Document) layerByID(id uuid.UUID) *Layer {
	l, _ := lo.Find(d.layers, func(l *Layer) bool { return l.ID == id })
	return l
}

func (d *Document) layerByName(name string) *Layer {
	l, _ := lo.Find(d.layers, func(l *Layer) bool { return l.Name == name })
	return l
}

// layerByValue accepts a layer guid or name.
func (d *Document) layerByValue(v string) *Layer {
	if id, err := uuid.Parse(v); err == nil {
		if l := d.layerByID(id); l != nil {
			return l
		}
	}
	return d.layerByName(v)
}

func (d *Document) layerName(id uuid.UUID) string {
	if l := d.layerByID(id); l != nil {
		return l.Name
	}
	return ""
}

// geometry collects what pose derivation needs to know about o.
func (d *Document) geometry(o *Object) derive.Geometry {
	g := derive.Geometry{Category: o.Category, Box: o.Box()}
	switch o.Category {
	case derive.CategoryLine:
		g.Start, g.End = o.points[0], o.points[len(o.points)-1]
	case derive.CategoryPolyline, derive.CategoryCurve:
		g.Points = o.points
		if plane, ok := kernel.CurvePlane(o.points, d.tol); ok {
			g.Planar = true
			g.Plane = &plane
		}
	case derive.CategoryBrep, derive.CategoryExtrusion, derive.CategoryMesh:
		g.Points = o.solid.Hull()
		if plane, ok := o.solid.WorkingPlane(); ok {
			g.Plane = &plane
		}
	}
	return g
}

// poseOf returns the stored pose of o, bootstrapping or refreshing it from
// the geometry when needed.
//
// A rebased or reset pose is kept as long as the geometry has not moved
// since it was written. A raw pose is kept while it is equivalent to the
// derived one, so relabeled axes from earlier transforms survive.
func (d *Document) poseOf(o *Object) (pose.Pose, rebase.State) {
	derived := derive.Derive(d.geometry(o))
	if s := o.stored; s != nil {
		if s.state != rebase.StateRaw && bounds.Equal(s.snapshot, o.Box(), d.tol) {
			return s.pose, s.state
		}
		if pose.Equivalent(s.pose, derived, d.tol) {
			return s.pose, s.state
		}
	}
	d.store(o, derived, rebase.StateRaw)
	return derived, rebase.StateRaw
}

func (d *Document) store(o *Object, p pose.Pose, state rebase.State) {
	o.stored = &storedPose{pose: p, state: state, snapshot: o.Box()}
}

// transform moves o's geometry with xf and carries the stored pose along.
func (d *Document) transform(o *Object, xf frame.Affine) error {
	if det := xf.Linear.Det(); det > -frame.ZeroTolerance && det < frame.ZeroTolerance {
		return protocol.Geometryf("transform of %s is singular", o.DisplayName())
	}
	before, state := d.poseOf(o)
	if o.solid != nil {
		o.solid = d.k.Transform(o.solid, xf)
	}
	for i, p := range o.points {
		o.points[i] = xf.Apply(p)
	}
	d.store(o, pose.ApplyAffine(before, xf), state)
	return nil
}

func (d *Document) objectRef(o *Object) string {
	return fmt.Sprintf("%s (%s)", o.DisplayName(), o.ID)
}
