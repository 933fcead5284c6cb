// Package tools is the command layer: one MCP tool per host command. Every
// tool validates its arguments locally and only then forwards them to the
// host, so malformed input never costs a round trip.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/chazu/cadmcp/pkg/hostconn"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
)

// Version is reported to MCP clients.
var Version = "dev"

// spec describes one tool. Tools with local set never reach the host.
type spec struct {
	name        string
	description string
	options     []mcp.ToolOption
	validate    func(args map[string]any) error
	local       func(args map[string]any) (any, error)
}

// Toolset binds the tool specs to a host.
type Toolset struct {
	host  hostconn.Sender
	log   *slog.Logger
	specs map[string]spec
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ts *Toolset) {
		if l != nil {
			ts.log = l
		}
	}
}

// New returns the toolset forwarding to host.
func New(host hostconn.Sender, opts ...Option) *Toolset {
	ts := &Toolset{host: host, log: slog.Default()}
	for _, o := range opts {
		o(ts)
	}
	ts.specs = lo.SliceToMap(catalog(), func(s spec) (string, spec) { return s.name, s })
	return ts
}

// Names lists the tool names, sorted.
func (ts *Toolset) Names() []string {
	names := lo.Keys(ts.specs)
	sort.Strings(names)
	return names
}

// Call validates args for the named tool and runs it. Local tools return
// their result marshaled; forwarded tools return the host's raw result.
func (ts *Toolset) Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	s, ok := ts.specs[name]
	if !ok {
		return nil, protocol.Invalidf("unknown tool %q", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if s.validate != nil {
		if err := s.validate(args); err != nil {
			ts.log.Debug("rejected tool call", "tool", name, "error", err)
			return nil, err
		}
	}
	if s.local != nil {
		result, err := s.local(args)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal result: %w", name, err)
		}
		return raw, nil
	}
	return ts.host.Send(ctx, name, args)
}

// handler adapts Call to an MCP tool handler. Failures are tool-error
// results carrying {"error": message}.
func (ts *Toolset) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := ts.Call(ctx, name, req.GetArguments())
		if err != nil {
			ts.log.Info("tool failed", "tool", name, "kind", protocol.KindOf(err), "error", err)
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	body := map[string]any{"error": err.Error(), "kind": protocol.KindOf(err).String()}
	var e *protocol.Error
	if errors.As(err, &e) && e.Kind == protocol.PartialBatchFailure {
		body["completed"] = e.Completed
		body["failed_index"] = e.FailedIndex
	}
	raw, _ := json.Marshal(body)
	return mcp.NewToolResultError(string(raw))
}

// ServerTools returns the MCP registrations, sorted by name.
func (ts *Toolset) ServerTools() []server.ServerTool {
	return lo.Map(ts.Names(), func(name string, _ int) server.ServerTool {
		s := ts.specs[name]
		opts := append([]mcp.ToolOption{mcp.WithDescription(s.description)}, s.options...)
		return server.ServerTool{Tool: mcp.NewTool(name, opts...), Handler: ts.handler(name)}
	})
}

// NewServer returns an MCP server exposing every tool of ts.
func NewServer(ts *Toolset, name string) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.AddTools(ts.ServerTools()...)
	return s
}

const instructions = `Tools for inspecting and editing a CAD document held by a geometry host.
Objects are addressed by "id" or "name". Every object has a pose (world_from_local
R and t); rebase_*_pose rewrites the pose without moving geometry, reset_*_pose
moves geometry onto a requested pose. Rotations are 3x3 row-major matrices; use
invert_rotation_matrix to undo one. Points and lengths are reported to 2 decimals.`
