package document

import (
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/chazu/cadmcp/pkg/rebase"
)

type rebaseEntry struct {
	sel  protocol.Selector
	spec rebase.RebaseSpec
}

type resetEntry struct {
	sel  protocol.Selector
	spec rebase.ResetSpec
}

func (d *Document) rebaseObject(params map[string]any) (any, error) {
	sel, err := protocol.SelectorFrom(params)
	if err != nil {
		return nil, err
	}
	spec, err := rebase.ParseRebaseSpec(params)
	if err != nil {
		return nil, err
	}
	o, err := d.find(sel)
	if err != nil {
		return nil, err
	}
	return d.rebase(o, rebaseEntry{sel, spec})
}

func (d *Document) rebaseObjects(params map[string]any) (any, error) {
	all, err := protocol.Flag(params, "all")
	if err != nil {
		return nil, err
	}
	entries, err := protocol.Entries(params, all)
	if err != nil {
		return nil, err
	}
	sels, specs, err := rebase.ValidateRebaseBatch(entries, all)
	if err != nil {
		return nil, err
	}
	batch := make([]rebaseEntry, len(specs))
	for i := range specs {
		batch[i] = rebaseEntry{sels[i], specs[i]}
	}
	if all && len(batch) == 0 {
		batch = []rebaseEntry{{}}
	}
	updates, err := runEach(d, batch, all, func(e rebaseEntry) protocol.Selector { return e.sel }, d.rebase)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rebased": len(updates), "updates": updates}, nil
}

// rebase rewrites the stored pose of o. Geometry does not move.
func (d *Document) rebase(o *Object, e rebaseEntry) (State, error) {
	current, _ := d.poseOf(o)
	next := rebase.Rebase(current, o.Box().Center(), e.spec)
	d.store(o, next, rebase.StateRebased)
	d.log.Debug("rebased pose", "object", d.objectRef(o), "mode", e.spec.Mode)

	c := newChanges()
	c.setPose(next, rebase.StateRebased)
	return d.state(o, c), nil
}

func (d *Document) resetObject(params map[string]any) (any, error) {
	sel, err := protocol.SelectorFrom(params)
	if err != nil {
		return nil, err
	}
	spec, err := rebase.ParseResetSpec(params)
	if err != nil {
		return nil, err
	}
	o, err := d.find(sel)
	if err != nil {
		return nil, err
	}
	return d.reset(o, resetEntry{sel, spec})
}

func (d *Document) resetObjects(params map[string]any) (any, error) {
	all, err := protocol.Flag(params, "all")
	if err != nil {
		return nil, err
	}
	entries, err := protocol.Entries(params, all)
	if err != nil {
		return nil, err
	}
	sels, specs, err := rebase.ValidateResetBatch(entries, all)
	if err != nil {
		return nil, err
	}
	batch := make([]resetEntry, len(specs))
	for i := range specs {
		batch[i] = resetEntry{sels[i], specs[i]}
	}
	if all && len(batch) == 0 {
		batch = []resetEntry{{spec: rebase.DefaultResetSpec()}}
	}
	updates, err := runEach(d, batch, all, func(e resetEntry) protocol.Selector { return e.sel }, d.reset)
	if err != nil {
		return nil, err
	}
	return map[string]any{"reset": len(updates), "updates": updates}, nil
}

// reset moves the geometry of o so that its pose becomes the requested one.
func (d *Document) reset(o *Object, e resetEntry) (State, error) {
	current, _ := d.poseOf(o)
	xf, next := rebase.Reset(current, e.spec)
	if err := d.transform(o, xf); err != nil {
		return State{}, err
	}
	d.store(o, next, rebase.StateReset)
	d.log.Debug("reset pose", "object", d.objectRef(o))

	c := newChanges()
	c.setPose(next, rebase.StateReset)
	return d.state(o, c), nil
}
