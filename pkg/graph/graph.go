package graph

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/pose"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is one visible solid. Index is its position in the graph's node
// list and is reassigned when the graph is filtered.
type Node struct {
	Index int
	ID    string
	Name  string
	Box   bounds.Box
}

// Edge is a contact between nodes A < B at Point.
type Edge struct {
	A, B  int
	Point mgl64.Vec3
}

// Graph is the result of Build. It is computed fresh per request.
type Graph struct {
	Nodes      []Node
	Edges      []Edge
	Components [][]int
	Tolerance  float64

	// Truncated is set when more than MaxNodes candidates were offered.
	Truncated bool
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// Neighbors returns the indices of nodes sharing an edge with i, in edge
// order.
func (g *Graph) Neighbors(i int) []int {
	var out []int
	for _, e := range g.Edges {
		switch i {
		case e.A:
			out = append(out, e.B)
		case e.B:
			out = append(out, e.A)
		}
	}
	return out
}

type wireNode struct {
	I    int    `json:"i"`
	Name string `json:"name"`
	ID   string `json:"id"`
}

type wireGraph struct {
	Nodes      []wireNode `json:"nodes"`
	Edges      [][]any    `json:"edges"`
	Components [][]int    `json:"components"`
	NodeCount  int        `json:"node_count"`
	EdgeCount  int        `json:"edge_count"`
	Tolerance  float64    `json:"tolerance"`
	Truncated  bool       `json:"truncated,omitempty"`
}

// MarshalJSON writes the compact form with edges as [a, b, [x, y, z]] and
// contact points rounded to 2 decimals.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		Nodes:      make([]wireNode, len(g.Nodes)),
		Edges:      make([][]any, len(g.Edges)),
		Components: g.Components,
		NodeCount:  len(g.Nodes),
		EdgeCount:  len(g.Edges),
		Tolerance:  g.Tolerance,
		Truncated:  g.Truncated,
	}
	if w.Components == nil {
		w.Components = [][]int{}
	}
	for i, n := range g.Nodes {
		w.Nodes[i] = wireNode{I: n.Index, Name: n.Name, ID: n.ID}
	}
	for i, e := range g.Edges {
		w.Edges[i] = []any{e.A, e.B, pose.Vec2(e.Point)}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the form written by MarshalJSON. Node boxes are not
// part of the wire form and stay zero.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var w struct {
		Nodes      []wireNode          `json:"nodes"`
		Edges      [][]json.RawMessage `json:"edges"`
		Components [][]int             `json:"components"`
		Tolerance  float64             `json:"tolerance"`
		Truncated  bool                `json:"truncated"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*g = Graph{
		Nodes:      make([]Node, len(w.Nodes)),
		Edges:      make([]Edge, len(w.Edges)),
		Components: w.Components,
		Tolerance:  w.Tolerance,
		Truncated:  w.Truncated,
	}
	for i, n := range w.Nodes {
		g.Nodes[i] = Node{Index: n.I, ID: n.ID, Name: n.Name}
	}
	for i, raw := range w.Edges {
		if len(raw) != 3 {
			return fmt.Errorf("edge %d: want [a, b, [x, y, z]], got %d elements", i, len(raw))
		}
		var e Edge
		var pt []float64
		for j, dst := range []any{&e.A, &e.B, &pt} {
			if err := json.Unmarshal(raw[j], dst); err != nil {
				return fmt.Errorf("edge %d: %w", i, err)
			}
		}
		if len(pt) != 3 {
			return fmt.Errorf("edge %d: contact point has %d values", i, len(pt))
		}
		e.Point = mgl64.Vec3{pt[0], pt[1], pt[2]}
		g.Edges[i] = e
	}
	return nil
}
