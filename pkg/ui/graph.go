package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/cadmcp/pkg/graph"
	"github.com/samber/lo"
)

// PrintGraph renders a connectivity graph: a node table, an edge table and
// the components.
func PrintGraph(g *graph.Graph) {
	PrintHeader("Connectivity")
	PrintKeyValue("nodes", strconv.Itoa(g.NodeCount()))
	PrintKeyValue("edges", strconv.Itoa(g.EdgeCount()))
	PrintKeyValue("tolerance", strconv.FormatFloat(g.Tolerance, 'g', -1, 64))
	if g.Truncated {
		PrintWarning(fmt.Sprintf("more than %d candidates; graph truncated", graph.MaxNodes))
	}
	if g.NodeCount() == 0 {
		PrintInfo("no connected solids")
		return
	}

	names := lo.Map(g.Nodes, func(n graph.Node, _ int) string { return n.Name })

	PrintHeader("Nodes")
	nodes := Table{Widths: []int{4, 24, 36}}
	nodes.Header("#", "Name", "ID")
	for _, n := range g.Nodes {
		nodes.Row(strconv.Itoa(n.Index), n.Name, n.ID)
	}

	if g.EdgeCount() > 0 {
		PrintHeader("Contacts")
		edges := Table{Widths: []int{24, 24, 28}}
		edges.Header("A", "B", "Point")
		for _, e := range g.Edges {
			edges.Row(names[e.A], names[e.B], fmt.Sprintf("%.2f, %.2f, %.2f", e.Point[0], e.Point[1], e.Point[2]))
		}
	}

	PrintHeader("Components")
	for i, c := range g.Components {
		members := lo.Map(c, func(n int, _ int) string { return names[n] })
		PrintStep(fmt.Sprintf("%d: %s", i, strings.Join(members, ", ")))
	}
}

// PrintMatrix prints a 3x3 matrix one row per line.
func PrintMatrix(rows [][]float64) {
	for _, r := range rows {
		cells := lo.Map(r, func(v float64, _ int) string { return fmt.Sprintf("%9.6f", v) })
		PrintInfo("[" + strings.Join(cells, "  ") + "]")
	}
}
