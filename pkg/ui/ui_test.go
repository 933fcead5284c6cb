package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/cadmcp/pkg/graph"
	"github.com/go-gl/mathgl/mgl64"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })
	return &buf
}

func TestPrinters(t *testing.T) {
	buf := capture(t)
	PrintSuccess("created 2 objects")
	PrintError("object with name leg not found")
	PrintKeyValue("host", "tcp://127.0.0.1:1999")

	out := buf.String()
	for _, want := range []string{"✓ created 2 objects", "✗ object with name leg not found", "host: tcp://127.0.0.1:1999"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableCells(t *testing.T) {
	tb := Table{Widths: []int{4, 8}}
	tests := []struct {
		columns []string
		want    string
	}{
		{[]string{"1", "leg"}, "1    │ leg"},
		{[]string{"12", "tabletop-left"}, "12   │ table..."},
		{[]string{"1", "a", "ignored"}, "1    │ a"},
	}
	for _, tt := range tests {
		if got := tb.cells(tt.columns, " │ "); got != tt.want {
			t.Errorf("cells(%v) = %q, want %q", tt.columns, got, tt.want)
		}
	}
}

func TestPrintGraph(t *testing.T) {
	buf := capture(t)
	PrintGraph(&graph.Graph{
		Nodes: []graph.Node{
			{Index: 0, ID: "a1", Name: "left"},
			{Index: 1, ID: "b2", Name: "right"},
		},
		Edges:      []graph.Edge{{A: 0, B: 1, Point: mgl64.Vec3{2, 0.5, 0}}},
		Components: [][]int{{0, 1}},
		Tolerance:  0.02,
	})
	out := buf.String()
	for _, want := range []string{"nodes: 2", "edges: 1", "2.00, 0.50, 0.00", "0: left, right"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintGraphEmpty(t *testing.T) {
	buf := capture(t)
	PrintGraph(&graph.Graph{Truncated: true})
	out := buf.String()
	if !strings.Contains(out, "no connected solids") || !strings.Contains(out, "truncated") {
		t.Errorf("output = %s", out)
	}
}
