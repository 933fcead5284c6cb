package document

import (
	"github.com/chazu/cadmcp/pkg/graph"
	"github.com/chazu/cadmcp/pkg/tessellate"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// GraphToleranceFactor scales the document tolerance for contact tests.
const GraphToleranceFactor = 2.0

// connectivityGraph builds the contact graph of the visible solids. The
// graph is computed fresh from the current geometry on every call.
func (d *Document) connectivityGraph(map[string]any) (any, error) {
	solids := lo.Filter(d.objects, func(o *Object, _ int) bool { return o.Visible && o.solid != nil })
	parts := make([]tessellate.Part, len(solids))
	nodes := make([]graph.Node, len(solids))
	for i, o := range solids {
		parts[i] = tessellate.Part{ID: o.ID.String(), Name: o.Name, Solid: o.solid}
		nodes[i] = graph.Node{ID: o.ID.String(), Name: o.DisplayName(), Box: o.Box()}
	}

	tol := d.tol * GraphToleranceFactor
	sampler := tessellate.NewSampler(d.k)
	g := graph.Build(nodes, tol, func(i, j int) (mgl64.Vec3, bool) {
		p, ok, err := sampler.Contact(parts[i], parts[j], tol)
		if err != nil {
			d.log.Warn("contact test failed", "a", nodes[i].Name, "b", nodes[j].Name, "error", err)
			return mgl64.Vec3{}, false
		}
		return p, ok
	})
	d.log.Debug("connectivity graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "truncated", g.Truncated)
	return g, nil
}
