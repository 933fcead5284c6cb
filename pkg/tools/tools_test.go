package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	cmd    string
	params map[string]any
}

// recorder records every forwarded command and answers with result or err.
type recorder struct {
	calls  []call
	result string
	err    error
}

func (r *recorder) Send(_ context.Context, cmd string, params map[string]any) (json.RawMessage, error) {
	r.calls = append(r.calls, call{cmd, params})
	if r.err != nil {
		return nil, r.err
	}
	if r.result == "" {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(r.result), nil
}

func callTool(t *testing.T, ts *Toolset, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := ts.handler(name)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", r.Content[0])
	return tc.Text
}

func TestCatalogCoversHostCommands(t *testing.T) {
	ts := New(&recorder{})
	want := []string{
		"copy_object", "copy_objects", "create_object", "create_objects",
		"delete_layer", "delete_objects", "get_connectivity_graph",
		"get_document_info", "get_object_info", "get_objects_info",
		"get_or_set_current_layer", "get_selected_objects_info",
		"invert_rotation_matrix", "modify_object", "modify_objects",
		"open_file", "close_file", "save_file",
		"rebase_object_pose", "rebase_objects_pose",
		"reset_object_pose", "reset_objects_pose",
		"rotate_object", "rotate_objects", "select_objects",
	}
	assert.ElementsMatch(t, want, ts.Names())
	assert.Len(t, ts.ServerTools(), len(want))
}

func TestValidArgumentsAreForwarded(t *testing.T) {
	rec := &recorder{result: `{"rebased":1}`}
	ts := New(rec)
	args := map[string]any{"name": "leg", "z_direction": "-z", "x_direction": "+y"}

	raw, err := ts.Call(context.Background(), "rebase_object_pose", args)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rebased":1}`, string(raw))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "rebase_object_pose", rec.calls[0].cmd)
	assert.Equal(t, args, rec.calls[0].params)
}

func TestInvalidArgumentsNeverReachHost(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]any
	}{
		{"get_object_info", map[string]any{}},
		{"get_object_info", map[string]any{"id": 7.0}},
		{"modify_object", map[string]any{"name": "a", "rotation": []any{0.0, 0.0, 90.0}}},
		{"modify_object", map[string]any{"name": "a", "translation": []any{1.0, 2.0}}},
		{"modify_objects", map[string]any{"objects": []any{}}},
		{"modify_objects", map[string]any{"all": true, "objects": []any{
			map[string]any{"visible": false}, map[string]any{"visible": true},
		}}},
		{"rotate_object", map[string]any{"name": "a", "rotation_matrix": []any{[]any{1.0, 0.0}}}},
		{"delete_objects", map[string]any{"names": []any{"a"}}},
		{"rebase_object_pose", map[string]any{"name": "a", "z_direction": "+x"}},
		{"rebase_objects_pose", map[string]any{"objects": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b", "translation_mode": "centroid"},
		}}},
		{"reset_objects_pose", map[string]any{"objects": []any{
			map[string]any{"name": "a", "target_translation": "origin"},
		}}},
		{"reset_objects_pose", map[string]any{"all": true, "objects": []any{
			map[string]any{"target_translation": []any{1.0, 0.0, 0.0}},
			map[string]any{"target_translation": []any{9.0, 9.0, 9.0}},
		}}},
		{"delete_layer", map[string]any{}},
		{"get_or_set_current_layer", map[string]any{"guid": "not-a-guid"}},
		{"open_file", map[string]any{"file_path": "  "}},
		{"create_object", map[string]any{"name": "shelf"}},
		{"create_objects", map[string]any{"objects": []any{"BOX"}}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			rec := &recorder{}
			_, err := New(rec).Call(context.Background(), tt.tool, tt.args)
			require.Error(t, err)
			assert.Equal(t, protocol.InvalidArgument, protocol.KindOf(err))
			assert.Empty(t, rec.calls)
		})
	}
}

func TestBatchErrorNamesEntry(t *testing.T) {
	_, err := New(&recorder{}).Call(context.Background(), "rebase_objects_pose", map[string]any{
		"objects": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b", "x_direction": "+z"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "objects[1]")
}

func TestInvertRotationIsLocal(t *testing.T) {
	rec := &recorder{}
	ts := New(rec)
	raw, err := ts.Call(context.Background(), "invert_rotation_matrix", map[string]any{
		"rotation_matrix": []any{
			[]any{0.0, -1.0, 0.0},
			[]any{1.0, 0.0, 0.0},
			[]any{0.0, 0.0, 1.0},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rotation_matrix":[[0,1,0],[-1,0,0],[0,0,1]]}`, string(raw))
	assert.Empty(t, rec.calls)

	_, err = ts.Call(context.Background(), "invert_rotation_matrix", map[string]any{})
	assert.Equal(t, protocol.InvalidArgument, protocol.KindOf(err))
}

func TestUnknownTool(t *testing.T) {
	_, err := New(&recorder{}).Call(context.Background(), "explode", nil)
	assert.Equal(t, protocol.InvalidArgument, protocol.KindOf(err))
}

func TestHandlerResults(t *testing.T) {
	rec := &recorder{result: `{"count":2}`}
	ts := New(rec)

	r := callTool(t, ts, "delete_objects", map[string]any{"names": []any{"a", "b"}, "confirm": true})
	assert.False(t, r.IsError)
	assert.JSONEq(t, `{"count":2}`, text(t, r))

	r = callTool(t, ts, "delete_objects", map[string]any{"names": []any{"a"}})
	assert.True(t, r.IsError)
	assert.JSONEq(t, `{"error":"delete blocked: confirm=true is required","kind":"InvalidArgument"}`, text(t, r))
}

func TestHandlerReportsHostErrors(t *testing.T) {
	rec := &recorder{err: protocol.Ambiguousf("multiple objects with name leg found")}
	r := callTool(t, New(rec), "get_object_info", map[string]any{"name": "leg"})
	assert.True(t, r.IsError)
	assert.JSONEq(t, `{"error":"multiple objects with name leg found","kind":"AmbiguousSelector"}`, text(t, r))

	rec.err = &protocol.Error{
		Kind:        protocol.PartialBatchFailure,
		Message:     "objects[2] failed after 2 completed: object with name c not found",
		Completed:   2,
		FailedIndex: 2,
	}
	r = callTool(t, New(rec), "modify_objects", map[string]any{"objects": []any{
		map[string]any{"name": "a", "visible": false},
		map[string]any{"name": "b", "visible": false},
		map[string]any{"name": "c", "visible": false},
	}})
	assert.True(t, r.IsError)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, r)), &body))
	assert.Equal(t, "PartialBatchFailure", body["kind"])
	assert.EqualValues(t, 2, body["completed"])
	assert.EqualValues(t, 2, body["failed_index"])
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(New(&recorder{}), "cadmcp")
	require.NotNil(t, s)
	tools := s.ListTools()
	assert.Len(t, tools, 25)
	assert.Contains(t, tools, "reset_objects_pose")
}
