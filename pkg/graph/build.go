package graph

import (
	"sort"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

const (
	// MaxNodes caps the candidates considered; later ones are dropped.
	MaxNodes = 160
	// MinComponentSize is the smallest contact component kept.
	MinComponentSize = 2
	// BroadPhaseFactor scales the tolerance for the bbox pre-check: pairs
	// whose boxes are farther apart than tol*BroadPhaseFactor are never
	// tested for contact.
	BroadPhaseFactor = 4.0
	// NearbyDistanceFactor scales the tolerance for the proximity rule: a
	// node whose box lies within tol*NearbyDistanceFactor of a component's
	// union box joins that component.
	NearbyDistanceFactor = 12.0
)

// ContactFunc runs the exact contact test between candidates i and j and
// returns a representative contact point.
type ContactFunc func(i, j int) (mgl64.Vec3, bool)

// Build assembles the connectivity graph of candidates, in order.
//
// Every pair i<j that survives the broad phase is passed to contact; edges
// are recorded in that loop order. Connected components of at least
// MinComponentSize nodes are kept, and every other node whose box is within
// tol*NearbyDistanceFactor of a kept component's union box (the bbox gap
// distance of bounds.Distance) is attached to the first such component.
// Union boxes are those of the contact components; attachment does not grow
// them. The graph is then filtered to component members and re-indexed.
// When no component qualifies all nodes and edges are returned unfiltered.
func Build(candidates []Node, tol float64, contact ContactFunc) *Graph {
	g := &Graph{Tolerance: tol}
	nodes := candidates
	if len(nodes) > MaxNodes {
		nodes = nodes[:MaxNodes]
		g.Truncated = true
	}
	for i := range nodes {
		n := nodes[i]
		n.Index = i
		g.Nodes = append(g.Nodes, n)
	}
	if len(g.Nodes) == 0 {
		return g
	}

	broad := tol * BroadPhaseFactor
	for i := 0; i < len(g.Nodes); i++ {
		for j := i + 1; j < len(g.Nodes); j++ {
			if bounds.Distance(g.Nodes[i].Box, g.Nodes[j].Box) > broad {
				continue
			}
			if p, ok := contact(i, j); ok {
				g.Edges = append(g.Edges, Edge{A: i, B: j, Point: p})
			}
		}
	}

	comps := components(len(g.Nodes), g.Edges)
	if len(comps) == 0 {
		return g
	}
	attachNearby(g.Nodes, comps, tol*NearbyDistanceFactor)
	return filter(g, comps)
}

// components returns the contact components with at least MinComponentSize
// members, members ascending, components ordered by their first member.
func components(n int, edges []Edge) [][]int {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		ug.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		ug.SetEdge(ug.NewEdge(simple.Node(e.A), simple.Node(e.B)))
	}

	var out [][]int
	for _, cc := range topo.ConnectedComponents(ug) {
		if len(cc) < MinComponentSize {
			continue
		}
		members := make([]int, len(cc))
		for i, node := range cc {
			members[i] = int(node.ID())
		}
		sort.Ints(members)
		out = append(out, members)
	}
	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}

func attachNearby(nodes []Node, comps [][]int, nearby float64) {
	member := make(map[int]bool)
	unions := make([]bounds.Box, len(comps))
	for ci, c := range comps {
		unions[ci] = bounds.Empty()
		for _, i := range c {
			member[i] = true
			unions[ci] = bounds.Union(unions[ci], nodes[i].Box)
		}
	}

	for i, n := range nodes {
		if member[i] {
			continue
		}
		for ci := range comps {
			if bounds.Distance(n.Box, unions[ci]) <= nearby {
				comps[ci] = append(comps[ci], i)
				break
			}
		}
	}
	for _, c := range comps {
		sort.Ints(c)
	}
}

func filter(g *Graph, comps [][]int) *Graph {
	keep := make(map[int]bool)
	for _, c := range comps {
		for _, i := range c {
			keep[i] = true
		}
	}

	remap := make(map[int]int, len(keep))
	var nodes []Node
	for _, n := range g.Nodes {
		if !keep[n.Index] {
			continue
		}
		remap[n.Index] = len(nodes)
		n.Index = len(nodes)
		nodes = append(nodes, n)
	}

	var edges []Edge
	for _, e := range g.Edges {
		a, okA := remap[e.A]
		b, okB := remap[e.B]
		if okA && okB {
			edges = append(edges, Edge{A: a, B: b, Point: e.Point})
		}
	}

	out := make([][]int, len(comps))
	for ci, c := range comps {
		out[ci] = make([]int, len(c))
		for k, i := range c {
			out[ci][k] = remap[i]
		}
	}

	return &Graph{
		Nodes:      nodes,
		Edges:      edges,
		Components: out,
		Tolerance:  g.Tolerance,
		Truncated:  g.Truncated,
	}
}
