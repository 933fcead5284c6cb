package tools

import (
	"strings"

	"github.com/chazu/cadmcp/pkg/command"
	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/chazu/cadmcp/pkg/rebase"
	"github.com/mark3labs/mcp-go/mcp"
)

// Shared argument schemas.

func selectorArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("id", mcp.Description("Object id. Wins over name when both are given.")),
		mcp.WithString("name", mcp.Description("Object name. Must match exactly one object.")),
	}
}

func vectorArg(name, desc string) mcp.ToolOption {
	return mcp.WithArray(name, mcp.Description(desc+" [x, y, z]."), mcp.Items(map[string]any{"type": "number"}))
}

func matrixArg() mcp.ToolOption {
	return mcp.WithArray("rotation_matrix",
		mcp.Description("3x3 row-major rotation matrix."),
		mcp.Items(map[string]any{"type": "array", "items": map[string]any{"type": "number"}}),
	)
}

func objectsArg(desc string) mcp.ToolOption {
	return mcp.WithArray("objects", mcp.Description(desc), mcp.Items(map[string]any{"type": "object"}))
}

func allArg() mcp.ToolOption {
	return mcp.WithBoolean("all", mcp.Description("Apply the single template entry in objects (or the defaults) to every visible object."))
}

func modifyArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("new_name", mcp.Description("New object name.")),
		mcp.WithArray("new_color", mcp.Description("New color [r, g, b], 0-255."), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithString("layer", mcp.Description("Target layer name or guid. Unknown layers are ignored.")),
		vectorArg("translation", "World translation"),
		vectorArg("scale", "Scale factors about the bounding box center"),
		matrixArg(),
		mcp.WithBoolean("invert_rotation_matrix", mcp.Description("Apply the inverse of rotation_matrix.")),
		mcp.WithBoolean("visible", mcp.Description("Show or hide the object.")),
	}
}

func rebaseArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("translation_mode", mcp.Enum("pose_t", "bbox_center"),
			mcp.Description("Anchor of the new pose: current pose origin (default) or bounding box center.")),
		mcp.WithString("z_direction", mcp.Enum("+z", "-z"), mcp.Description("World axis for the local Z axis.")),
		mcp.WithString("x_direction", mcp.Enum("+x", "-x", "+y", "-y"), mcp.Description("World axis for the local X axis.")),
	}
}

func resetArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithBoolean("reset_rotation", mcp.Description("Rotate geometry so its local axes align with world axes. Default true.")),
		mcp.WithBoolean("reset_translation", mcp.Description("Move geometry so its pose origin lands on target_translation. Default true.")),
		vectorArg("target_translation", "Target pose origin, default [0, 0, 0]"),
	}
}

func layerArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("name", mcp.Description("Layer name.")),
		mcp.WithString("guid", mcp.Description("Layer guid. Wins over name.")),
	}
}

func join(groups ...[]mcp.ToolOption) []mcp.ToolOption {
	var out []mcp.ToolOption
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Validators.

func selector(args map[string]any) error {
	_, err := protocol.SelectorFrom(args)
	return err
}

func each(parse func(map[string]any) error) func(map[string]any) error {
	return func(args map[string]any) error {
		entries, err := protocol.Entries(args, false)
		if err != nil {
			return err
		}
		return protocol.Validate(entries, func(_ int, e map[string]any) error { return parse(e) })
	}
}

func batch[T any](parse func(map[string]any, bool) (T, error)) func(map[string]any) error {
	return func(args map[string]any) error {
		_, _, err := command.Batch(args, parse)
		return err
	}
}

func ignore[T any](parse func(map[string]any) (T, error)) func(map[string]any) error {
	return func(args map[string]any) error {
		_, err := parse(args)
		return err
	}
}

func withSelector(next func(map[string]any) error) func(map[string]any) error {
	return func(args map[string]any) error {
		if err := selector(args); err != nil {
			return err
		}
		return next(args)
	}
}

func infoOptions(args map[string]any) error {
	if _, err := protocol.OptBool(args, "include_attributes", false); err != nil {
		return err
	}
	n, err := protocol.OptNumber(args, "outline_max_points", 0)
	if err != nil {
		return err
	}
	if n < 0 {
		return protocol.Invalidf("outline_max_points must not be negative")
	}
	return nil
}

func poseBatch(validate func([]map[string]any, bool) error) func(map[string]any) error {
	return func(args map[string]any) error {
		all, err := protocol.Flag(args, "all")
		if err != nil {
			return err
		}
		entries, err := protocol.Entries(args, all)
		if err != nil {
			return err
		}
		return validate(entries, all)
	}
}

func layerRequired(args map[string]any) error {
	ref, err := command.ParseLayerRef(args)
	if err != nil {
		return err
	}
	if ref.IsZero() {
		return protocol.Invalidf("name or guid is required")
	}
	return nil
}

func path(required bool) func(map[string]any) error {
	return func(args map[string]any) error {
		p, err := protocol.OptString(args, "file_path")
		if err != nil {
			return err
		}
		if required && strings.TrimSpace(p) == "" {
			return protocol.Invalidf("file_path is required")
		}
		return nil
	}
}

// invertRotation transposes a rotation matrix. The input is only checked
// for shape: a matrix that is not a rotation is transposed all the same.
func invertRotation(args map[string]any) (any, error) {
	raw, ok := args["rotation_matrix"]
	if !ok || raw == nil {
		return nil, protocol.Invalidf("rotation_matrix is required")
	}
	rows, err := protocol.Matrix3(raw, "rotation_matrix")
	if err != nil {
		return nil, err
	}
	m, err := frame.MatrixFromRows(rows)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rotation_matrix": frame.MatrixRows(frame.Invert(m))}, nil
}

func catalog() []spec {
	return []spec{
		{
			name:        "create_object",
			description: "Create one object. type is POINT, LINE, POLYLINE, CURVE, CIRCLE, ARC, ELLIPSE, BOX, SPHERE or CYLINDER; params holds the primitive fields. Placement fields (translation, scale, rotation_matrix) are applied after creation.",
			options: join([]mcp.ToolOption{
				mcp.WithString("type", mcp.Required(), mcp.Description("Primitive type.")),
				mcp.WithString("name", mcp.Description("Object name.")),
				mcp.WithArray("color", mcp.Description("Color [r, g, b], 0-255."), mcp.Items(map[string]any{"type": "integer"})),
				mcp.WithObject("params", mcp.Description("Primitive fields, e.g. width/length/height for BOX.")),
				mcp.WithObject("attributes", mcp.Description("String user attributes.")),
				vectorArg("translation", "World translation"),
				vectorArg("scale", "Scale factors"),
				matrixArg(),
			}),
			validate: ignore(command.ParseCreate),
		},
		{
			name:        "create_objects",
			description: "Create several objects. Each entry of objects is a create_object record.",
			options:     []mcp.ToolOption{objectsArg("create_object records.")},
			validate:    each(ignore(command.ParseCreate)),
		},
		{
			name:        "get_document_info",
			description: "Document metadata, tolerances, layers and a summary of up to 300 objects.",
		},
		{
			name:        "get_object_info",
			description: "Detailed information about one object, including pose, oriented bounding box and pose state.",
			options: join(selectorArgs(), []mcp.ToolOption{
				mcp.WithBoolean("include_attributes", mcp.Description("Include user attributes.")),
				mcp.WithNumber("outline_max_points", mcp.Description("Maximum outline samples for curves.")),
			}),
			validate: withSelector(infoOptions),
		},
		{
			name:        "get_objects_info",
			description: "Information about several objects. Entries that do not resolve are reported with an error instead of failing the call.",
			options: []mcp.ToolOption{
				objectsArg("Selectors {id} or {name}."),
				mcp.WithBoolean("include_attributes", mcp.Description("Include user attributes.")),
				mcp.WithNumber("outline_max_points", mcp.Description("Maximum outline samples for curves.")),
			},
			validate: func(args map[string]any) error {
				if err := infoOptions(args); err != nil {
					return err
				}
				return each(selector)(args)
			},
		},
		{
			name:        "get_selected_objects_info",
			description: "Information about the selected objects.",
			options:     []mcp.ToolOption{mcp.WithBoolean("include_attributes", mcp.Description("Include user attributes."))},
			validate:    infoOptions,
		},
		{
			name:        "modify_object",
			description: "Rename, recolor, move to a layer, show/hide, or transform one object. Rotation and scale pivot about the bounding box center; order is rotation, scale, translation.",
			options:     join(selectorArgs(), modifyArgs()),
			validate: ignore(func(args map[string]any) (command.Modify, error) {
				return command.ParseModify(args, true)
			}),
		},
		{
			name:        "modify_objects",
			description: "modify_object over a list, validated in full before any change. With all=true the single entry applies to every visible object.",
			options:     []mcp.ToolOption{objectsArg("modify_object records."), allArg()},
			validate:    batch(command.ParseModify),
		},
		{
			name:        "rotate_object",
			description: "Rotate one object about an explicit world pivot.",
			options:     join(selectorArgs(), []mcp.ToolOption{matrixArg(), vectorArg("pivot", "World pivot"), mcp.WithBoolean("invert_rotation_matrix")}),
			validate: ignore(func(args map[string]any) (command.Rotate, error) {
				return command.ParseRotate(args, true)
			}),
		},
		{
			name:        "rotate_objects",
			description: "rotate_object over a list, validated in full before any change.",
			options:     []mcp.ToolOption{objectsArg("rotate_object records."), allArg()},
			validate:    batch(command.ParseRotate),
		},
		{
			name:        "copy_object",
			description: "Duplicate one object, optionally translated and renamed. The copy carries the source pose.",
			options:     join(selectorArgs(), []mcp.ToolOption{vectorArg("translation", "World translation"), mcp.WithString("new_name")}),
			validate:    ignore(command.ParseCopy),
		},
		{
			name:        "copy_objects",
			description: "copy_object over a list.",
			options:     []mcp.ToolOption{objectsArg("copy_object records.")},
			validate:    each(ignore(command.ParseCopy)),
		},
		{
			name:        "delete_objects",
			description: "Delete objects by ids and/or names. Requires confirm=true.",
			options: []mcp.ToolOption{
				mcp.WithArray("ids", mcp.Items(map[string]any{"type": "string"})),
				mcp.WithArray("names", mcp.Items(map[string]any{"type": "string"})),
				mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true.")),
			},
			validate: ignore(command.ParseDelete),
		},
		{
			name:        "rebase_object_pose",
			description: "Rewrite the stored pose of one object without moving geometry.",
			options:     join(selectorArgs(), rebaseArgs()),
			validate:    withSelector(ignore(rebase.ParseRebaseSpec)),
		},
		{
			name:        "rebase_objects_pose",
			description: "rebase_object_pose over a list or, with all=true, every visible object. Every entry is validated before any pose changes.",
			options:     []mcp.ToolOption{objectsArg("rebase_object_pose records."), allArg()},
			validate: poseBatch(func(entries []map[string]any, all bool) error {
				_, _, err := rebase.ValidateRebaseBatch(entries, all)
				return err
			}),
		},
		{
			name:        "reset_object_pose",
			description: "Move one object's geometry so its pose becomes world aligned and/or lands on target_translation.",
			options:     join(selectorArgs(), resetArgs()),
			validate:    withSelector(ignore(rebase.ParseResetSpec)),
		},
		{
			name:        "reset_objects_pose",
			description: "reset_object_pose over a list or, with all=true, every visible object.",
			options:     []mcp.ToolOption{objectsArg("reset_object_pose records."), allArg()},
			validate: poseBatch(func(entries []map[string]any, all bool) error {
				_, _, err := rebase.ValidateResetBatch(entries, all)
				return err
			}),
		},
		{
			name:        "get_connectivity_graph",
			description: "Contact graph of the visible solids: nodes {i, name, id}, edges [i, j, [x, y, z]], components.",
		},
		{
			name:        "get_or_set_current_layer",
			description: "Return the current layer, or switch to the layer given by name or guid. create=true creates a missing named layer.",
			options:     append(layerArgs(), mcp.WithBoolean("create")),
			validate:    ignore(command.ParseLayerRef),
		},
		{
			name:        "delete_layer",
			description: "Delete an empty layer that is not current.",
			options:     layerArgs(),
			validate:    layerRequired,
		},
		{
			name:        "select_objects",
			description: "Select objects by ids and/or names. Without add the previous selection is cleared; an empty call clears it.",
			options: []mcp.ToolOption{
				mcp.WithArray("ids", mcp.Items(map[string]any{"type": "string"})),
				mcp.WithArray("names", mcp.Items(map[string]any{"type": "string"})),
				mcp.WithBoolean("add"),
			},
			validate: ignore(command.ParseSelect),
		},
		{
			name:        "open_file",
			description: "Open a document file on the host.",
			options:     []mcp.ToolOption{mcp.WithString("file_path", mcp.Required())},
			validate:    path(true),
		},
		{
			name:        "close_file",
			description: "Close the current document on the host.",
		},
		{
			name:        "save_file",
			description: "Save the current document, optionally to file_path.",
			options:     []mcp.ToolOption{mcp.WithString("file_path")},
			validate:    path(false),
		},
		{
			name:        "invert_rotation_matrix",
			description: "Transpose a 3x3 rotation matrix. Computed locally; the matrix is only checked for shape.",
			options:     []mcp.ToolOption{matrixArg()},
			local:       invertRotation,
		},
	}
}
