package command

import (
	"testing"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var quarterTurnZ = []any{
	[]any{0.0, -1.0, 0.0},
	[]any{1.0, 0.0, 0.0},
	[]any{0.0, 0.0, 1.0},
}

func TestParseModify(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		needSel bool
		wantErr bool
	}{
		{"selector only", map[string]any{"id": "a"}, true, false},
		{"missing selector", map[string]any{"new_name": "x"}, true, true},
		{"template without selector", map[string]any{"new_name": "x"}, false, false},
		{"translation", map[string]any{"name": "a", "translation": []any{1.0, 2.0, 3.0}}, true, false},
		{"short translation", map[string]any{"name": "a", "translation": []any{1.0, 2.0}}, true, true},
		{"zero scale", map[string]any{"name": "a", "scale": []any{1.0, 0.0, 1.0}}, true, true},
		{"matrix", map[string]any{"name": "a", "rotation_matrix": quarterTurnZ}, true, false},
		{"2x3 matrix", map[string]any{"name": "a", "rotation_matrix": []any{[]any{1.0, 0.0, 0.0}, []any{0.0, 1.0, 0.0}}}, true, true},
		{"deprecated euler", map[string]any{"name": "a", "rotation": []any{0.0, 0.0, 1.0}}, true, true},
		{"euler with matrix", map[string]any{"name": "a", "rotation": []any{0.0, 0.0, 1.0}, "rotation_matrix": quarterTurnZ}, true, false},
		{"color out of range", map[string]any{"name": "a", "new_color": []any{0.0, 300.0, 0.0}}, true, true},
		{"fractional color", map[string]any{"name": "a", "new_color": []any{0.5, 3.0, 0.0}}, true, true},
		{"visible not bool", map[string]any{"name": "a", "visible": "yes"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModify(tt.params, tt.needSel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && protocol.KindOf(err) != protocol.InvalidArgument {
				t.Errorf("kind = %v, want InvalidArgument", protocol.KindOf(err))
			}
		})
	}
}

func TestParseModifyInvert(t *testing.T) {
	m, err := ParseModify(map[string]any{
		"id":                     "a",
		"rotation_matrix":        quarterTurnZ,
		"invert_rotation_matrix": true,
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	got := m.Rotation.Mul3x1(mgl64.Vec3{1, 0, 0})
	if !frame.Near(got, mgl64.Vec3{0, -1, 0}, 1e-12) {
		t.Errorf("inverted quarter turn maps x to %v, want [0 -1 0]", got)
	}
	if !m.MovesGeometry() {
		t.Error("a rotation moves geometry")
	}
}

func TestParseRotate(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"complete", map[string]any{"id": "a", "rotation_matrix": quarterTurnZ, "pivot": []any{0.0, 0.0, 0.0}}, false},
		{"missing pivot", map[string]any{"id": "a", "rotation_matrix": quarterTurnZ}, true},
		{"missing matrix", map[string]any{"id": "a", "pivot": []any{0.0, 0.0, 0.0}}, true},
		{"deprecated euler", map[string]any{"id": "a", "rotation": []any{1.0, 0.0, 0.0}, "pivot": []any{0.0, 0.0, 0.0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRotate(tt.params, true)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRotate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDelete(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"confirmed", map[string]any{"confirm": true, "ids": []any{"a"}}, false},
		{"not confirmed", map[string]any{"ids": []any{"a"}}, true},
		{"confirm false", map[string]any{"confirm": false, "names": []any{"a"}}, true},
		{"nothing named", map[string]any{"confirm": true, "ids": []any{" "}}, true},
		{"bad id type", map[string]any{"confirm": true, "ids": []any{1.0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDelete(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDelete() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCreate(t *testing.T) {
	c, err := ParseCreate(map[string]any{
		"type":        "box",
		"name":        "shelf",
		"color":       []any{255.0, 0.0, 0.0},
		"params":      map[string]any{"width": 1.0},
		"translation": []any{0.0, 0.0, 5.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Type != "BOX" || c.Name != "shelf" || *c.Color != (Color{255, 0, 0}) {
		t.Errorf("envelope = %+v", c)
	}
	if c.Modify.Translation == nil || c.Modify.Translation[2] != 5 {
		t.Errorf("placement translation = %v", c.Modify.Translation)
	}

	for _, bad := range []map[string]any{
		{},
		{"type": "BOX", "params": []any{1.0}},
		{"type": "BOX", "attributes": map[string]any{"k": 1.0}},
	} {
		if _, err := ParseCreate(bad); err == nil {
			t.Errorf("ParseCreate(%v) should fail", bad)
		}
	}
}

func TestParseLayerRef(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"empty", map[string]any{}, false},
		{"name", map[string]any{"name": "Walls"}, false},
		{"guid", map[string]any{"guid": id.String()}, false},
		{"blank name", map[string]any{"name": "  "}, true},
		{"bad guid", map[string]any{"guid": "not-a-guid"}, true},
		{"nil guid", map[string]any{"guid": uuid.Nil.String()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayerRef(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLayerRef() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantN   int
		wantAll bool
		wantErr bool
	}{
		{"two entries", map[string]any{"objects": []any{
			map[string]any{"id": "a"}, map[string]any{"name": "b"},
		}}, 2, false, false},
		{"empty list", map[string]any{"objects": []any{}}, 0, false, true},
		{"missing selector", map[string]any{"objects": []any{
			map[string]any{"id": "a"}, map[string]any{"new_name": "b"},
		}}, 0, false, true},
		{"all template", map[string]any{"all": true, "objects": []any{
			map[string]any{"translation": []any{1.0, 0.0, 0.0}},
		}}, 1, true, false},
		{"all with two templates", map[string]any{"all": true, "objects": []any{
			map[string]any{}, map[string]any{},
		}}, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, all, err := Batch(tt.params, ParseModify)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Batch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != tt.wantN || all != tt.wantAll {
				t.Errorf("Batch() = %d entries all=%v, want %d all=%v", len(got), all, tt.wantN, tt.wantAll)
			}
		})
	}
}

func TestBatchErrorNamesEntry(t *testing.T) {
	_, _, err := Batch(map[string]any{"objects": []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "b", "scale": []any{1.0}},
	}}, ParseModify)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got[:11] != "objects[1]:" {
		t.Errorf("error = %q, want objects[1] prefix", got)
	}
}
