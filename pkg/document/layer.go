package document

import (
	"github.com/chazu/cadmcp/pkg/command"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type layerRecord struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Color   map[string]int `json:"color"`
	Visible bool           `json:"visible"`
	Locked  bool           `json:"locked"`
	Parent  string         `json:"parent"`
}

func (l *Layer) record() layerRecord {
	return layerRecord{
		ID:      l.ID.String(),
		Name:    l.Name,
		Color:   l.Color.Record(),
		Visible: l.Visible,
		Locked:  l.Locked,
	}
}

// resolveLayer finds the layer a reference names. A guid wins over a name.
func (d *Document) resolveLayer(ref command.LayerRef) (*Layer, error) {
	if ref.GUID != uuid.Nil {
		if l := d.layerByID(ref.GUID); l != nil {
			return l, nil
		}
		return nil, protocol.HostErrorf("layer with GUID %s not found", ref.GUID)
	}
	if l := d.layerByName(ref.Name); l != nil {
		return l, nil
	}
	return nil, protocol.HostErrorf("layer %s not found", ref.Name)
}

func (d *Document) currentLayer(params map[string]any) (any, error) {
	ref, err := command.ParseLayerRef(params)
	if err != nil {
		return nil, err
	}
	if ref.IsZero() {
		return d.layerByID(d.current).record(), nil
	}
	l, err := d.resolveLayer(ref)
	if err != nil {
		if !ref.Create || ref.Name == "" {
			return nil, err
		}
		l = &Layer{ID: uuid.New(), Name: ref.Name, Visible: true}
		d.layers = append(d.layers, l)
		d.log.Info("created layer", "layer", l.Name)
	}
	d.current = l.ID
	return l.record(), nil
}

func (d *Document) deleteLayer(params map[string]any) (any, error) {
	ref, err := command.ParseLayerRef(params)
	if err != nil {
		return nil, err
	}
	if ref.IsZero() {
		return nil, protocol.Invalidf("name or guid is required")
	}
	l, err := d.resolveLayer(ref)
	if err != nil {
		return nil, err
	}
	if l.ID == d.current {
		return nil, protocol.HostErrorf("cannot delete the current layer %s", l.Name)
	}
	if n := lo.CountBy(d.objects, func(o *Object) bool { return o.Layer == l.ID }); n > 0 {
		return nil, protocol.HostErrorf("layer %s still holds %d objects", l.Name, n)
	}
	d.layers = lo.Reject(d.layers, func(x *Layer, _ int) bool { return x.ID == l.ID })
	d.log.Info("deleted layer", "layer", l.Name)
	return map[string]any{"success": true, "message": "Layer " + l.Name + " deleted"}, nil
}

func (d *Document) selectObjects(params map[string]any) (any, error) {
	s, err := command.ParseSelect(params)
	if err != nil {
		return nil, err
	}
	picked, err := d.findAll(s.IDs, s.Names)
	if err != nil {
		return nil, err
	}
	if !s.Add {
		for _, o := range d.objects {
			o.Selected = false
		}
	}
	for _, o := range picked {
		o.Selected = true
	}
	n := lo.CountBy(d.objects, func(o *Object) bool { return o.Selected })
	return map[string]any{"selected": n}, nil
}

func (d *Document) unsupported(kind string) handler {
	return func(map[string]any) (any, error) {
		return nil, protocol.HostErrorf("%s is not supported by the in-memory document", kind)
	}
}
