package document

import (
	"github.com/chazu/cadmcp/pkg/command"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/pose"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/chazu/cadmcp/pkg/rebase"
	"github.com/samber/lo"
)

// State is the minimal object state editing commands return: the fields
// that changed and their new values.
type State struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Updated       map[string]any `json:"updated"`
	ChangedFields []string       `json:"changed_fields"`
}

type changes struct {
	fields  []string
	updated map[string]any
}

func newChanges() *changes {
	return &changes{updated: make(map[string]any)}
}

func (c *changes) set(field string, v any) {
	if _, ok := c.updated[field]; !ok {
		c.fields = append(c.fields, field)
	}
	c.updated[field] = v
}

// setPose records the stored pose and the position it implies.
func (c *changes) setPose(p pose.Pose, state rebase.State) {
	c.set("pose", p)
	c.set("position", pose.Vec2(p.Translation))
	c.set("pose_state", state.String())
}

func (d *Document) state(o *Object, c *changes) State {
	fields := c.fields
	if fields == nil {
		fields = []string{}
	}
	return State{ID: o.ID.String(), Name: o.DisplayName(), Updated: c.updated, ChangedFields: fields}
}

func (d *Document) modifyObject(params map[string]any) (any, error) {
	m, err := command.ParseModify(params, true)
	if err != nil {
		return nil, err
	}
	o, err := d.find(m.Selector)
	if err != nil {
		return nil, err
	}
	return d.modify(o, m)
}

func (d *Document) modifyObjects(params map[string]any) (any, error) {
	specs, all, err := command.Batch(params, command.ParseModify)
	if err != nil {
		return nil, err
	}
	updates, err := runEach(d, specs, all, func(m command.Modify) protocol.Selector { return m.Selector }, d.modify)
	if err != nil {
		return nil, err
	}
	return map[string]any{"modified": len(updates), "updates": updates}, nil
}

// modify applies attribute changes, then rotation, scale and translation
// about the bbox center the object had before the call.
func (d *Document) modify(o *Object, m command.Modify) (State, error) {
	c := newChanges()
	center := o.Box().Center()

	if m.NewName != "" {
		o.Name = m.NewName
		c.set("name", o.Name)
	}
	if m.NewColor != nil {
		o.Color = *m.NewColor
		c.set("color", o.Color.Record())
	}
	if m.Layer != "" {
		if l := d.layerByValue(m.Layer); l != nil {
			o.Layer = l.ID
			c.set("layer", l.Name)
		} else {
			d.log.Warn("modify: layer not found, keeping current", "layer", m.Layer, "object", d.objectRef(o))
		}
	}
	if m.Visible != nil {
		o.Visible = *m.Visible
		c.set("visible", o.Visible)
	}

	if m.MovesGeometry() {
		xf := frame.Identity()
		if m.Rotation != nil {
			xf = xf.Then(frame.RotationAbout(*m.Rotation, center))
		}
		if m.Scale != nil {
			xf = xf.Then(frame.ScaleAbout(*m.Scale, center))
			c.set("scale", pose.Vec2(*m.Scale))
		}
		if m.Translation != nil {
			xf = xf.Then(frame.Translation(*m.Translation))
		}
		if err := d.transform(o, xf); err != nil {
			return State{}, err
		}
		p, state := d.poseOf(o)
		c.setPose(p, state)
	}
	return d.state(o, c), nil
}

func (d *Document) rotateObject(params map[string]any) (any, error) {
	r, err := command.ParseRotate(params, true)
	if err != nil {
		return nil, err
	}
	o, err := d.find(r.Selector)
	if err != nil {
		return nil, err
	}
	return d.rotate(o, r)
}

func (d *Document) rotateObjects(params map[string]any) (any, error) {
	specs, all, err := command.Batch(params, command.ParseRotate)
	if err != nil {
		return nil, err
	}
	updates, err := runEach(d, specs, all, func(r command.Rotate) protocol.Selector { return r.Selector }, d.rotate)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rotated": len(updates), "updates": updates}, nil
}

// rotate turns o about an explicit world pivot.
func (d *Document) rotate(o *Object, r command.Rotate) (State, error) {
	if err := d.transform(o, frame.RotationAbout(r.Rotation, r.Pivot)); err != nil {
		return State{}, err
	}
	c := newChanges()
	p, state := d.poseOf(o)
	c.setPose(p, state)
	return d.state(o, c), nil
}

func (d *Document) copyObject(params map[string]any) (any, error) {
	spec, err := command.ParseCopy(params)
	if err != nil {
		return nil, err
	}
	return d.copy(spec)
}

func (d *Document) copyObjects(params map[string]any) (any, error) {
	entries, err := protocol.Entries(params, false)
	if err != nil {
		return nil, err
	}
	specs := make([]command.Copy, len(entries))
	err = protocol.Validate(entries, func(i int, e map[string]any) error {
		var err error
		specs[i], err = command.ParseCopy(e)
		return err
	})
	if err != nil {
		return nil, err
	}
	copies, err := protocol.RunBatch(specs, func(_ int, c command.Copy) (Summary, error) {
		return d.copy(c)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(copies))
	for i, s := range copies {
		ids[i] = s.ID
	}
	return map[string]any{"copied": len(copies), "ids": ids}, nil
}

// copy duplicates an object, optionally moved, carrying its pose along.
func (d *Document) copy(spec command.Copy) (Summary, error) {
	src, err := d.find(spec.Selector)
	if err != nil {
		return Summary{}, err
	}
	d.poseOf(src)
	dup := d.duplicate(src)
	if spec.NewName != "" {
		dup.Name = spec.NewName
	}
	if spec.Translation != nil {
		if err := d.transform(dup, frame.Translation(*spec.Translation)); err != nil {
			return Summary{}, err
		}
	}
	d.add(dup)
	d.log.Info("copied object", "from", d.objectRef(src), "to", d.objectRef(dup))
	return d.summary(dup, summaryOptions{geometry: true}), nil
}

func (d *Document) deleteObjects(params map[string]any) (any, error) {
	spec, err := command.ParseDelete(params)
	if err != nil {
		return nil, err
	}
	doomed, err := d.findAll(spec.IDs, spec.Names)
	if err != nil {
		return nil, err
	}
	d.remove(doomed)
	d.log.Info("deleted objects", "count", len(doomed))
	return map[string]any{"count": len(doomed)}, nil
}

// runEach is phase 2 of a batch whose entries were validated up front.
// With all set the single template is applied to every visible object in
// document order; otherwise each entry's selector is resolved as it runs.
func runEach[T any](d *Document, specs []T, all bool, selector func(T) protocol.Selector, apply func(*Object, T) (State, error)) ([]State, error) {
	if all {
		template := specs[0]
		targets := lo.Filter(d.objects, func(o *Object, _ int) bool { return o.Visible })
		return protocol.RunBatch(targets, func(_ int, o *Object) (State, error) {
			return apply(o, template)
		})
	}
	return protocol.RunBatch(specs, func(_ int, spec T) (State, error) {
		o, err := d.find(selector(spec))
		if err != nil {
			return State{}, err
		}
		return apply(o, spec)
	})
}
