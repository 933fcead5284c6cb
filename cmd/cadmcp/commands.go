package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/cadmcp/pkg/document"
	"github.com/chazu/cadmcp/pkg/engine"
	"github.com/chazu/cadmcp/pkg/graph"
	"github.com/chazu/cadmcp/pkg/hostconn"
	"github.com/chazu/cadmcp/pkg/hostserver"
	"github.com/chazu/cadmcp/pkg/kernel/sdfx"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/chazu/cadmcp/pkg/tools"
	"github.com/chazu/cadmcp/pkg/ui"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

func (e *env) dial() (*hostconn.Conn, error) {
	return hostconn.New(e.cfg.Host.Address,
		hostconn.WithTimeout(e.cfg.Host.Timeout),
		hostconn.WithLogger(e.log),
	)
}

func (e *env) toolset(host hostconn.Sender) *tools.Toolset {
	return tools.New(host, tools.WithLogger(e.log))
}

// ServeCmd runs the MCP server on stdio.
type ServeCmd struct{}

func (c *ServeCmd) Run(e *env) error {
	conn, err := e.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	s := tools.NewServer(e.toolset(conn), e.cfg.Server.Name)
	e.log.Info("serving MCP on stdio", "host", conn.Address())
	return server.ServeStdio(s)
}

// HostCmd runs the simulated host.
type HostCmd struct {
	Listen string `help:"TCP listen address (default host.listen)"`
	WS     string `help:"WebSocket listen address; empty disables it (default host.ws)" name:"ws"`
	Scene  string `help:"YAML scene file loaded before serving" type:"existingfile"`
}

func (c *HostCmd) Run(e *env) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc := document.New(
		sdfx.New(sdfx.WithMeshCells(e.cfg.Document.MeshCells)),
		document.WithTolerance(e.cfg.Document.Tolerance, e.cfg.Document.AngleTolerance),
		document.WithLogger(e.log),
	)
	if c.Scene != "" {
		n, err := loadScene(ctx, doc, c.Scene)
		if err != nil {
			return err
		}
		e.log.Info("scene loaded", "file", c.Scene, "objects", n)
	}
	srv := hostserver.New(doc, hostserver.WithLogger(e.log), hostserver.WithTimeout(e.cfg.Host.Timeout))

	listen := firstNonEmpty(c.Listen, e.cfg.Host.Listen)
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listen, err)
	}
	ui.PrintSuccess("host listening on tcp://" + ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ServeTCP(ctx, ln) })

	if ws := firstNonEmpty(c.WS, e.cfg.Host.WS); ws != "" {
		hs := &http.Server{Addr: ws, Handler: srv}
		ui.PrintSuccess("host listening on ws://" + ws)
		g.Go(func() error {
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return hs.Close()
		})
	}
	return g.Wait()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// RunCmd evaluates a script and sends its commands in order.
type RunCmd struct {
	Script string `arg:"" help:"Script file" type:"existingfile"`
	DryRun bool   `help:"Print the planned commands without contacting the host"`
}

func (c *RunCmd) Run(e *env) error {
	src, err := os.ReadFile(c.Script)
	if err != nil {
		return err
	}
	eng := engine.NewEngine(engine.WithTimeout(e.cfg.Script.Timeout))
	plan, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, ee := range evalErrs {
			ui.PrintError(fmt.Sprintf("%s: %s", c.Script, ee.Error()))
		}
		return fmt.Errorf("%s: %d script error(s)", c.Script, len(evalErrs))
	}

	ui.PrintHeader(fmt.Sprintf("%s: %d command(s)", c.Script, len(plan)))
	if c.DryRun {
		for _, req := range plan {
			raw, err := json.Marshal(req.Params)
			if err != nil {
				return err
			}
			ui.PrintStep(req.Type + " " + string(raw))
		}
		return nil
	}

	conn, err := e.dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	return runPlan(context.Background(), e.toolset(conn), plan)
}

// runPlan sends plan through ts and stops at the first failure.
func runPlan(ctx context.Context, ts *tools.Toolset, plan engine.Plan) error {
	for i, req := range plan {
		raw, err := ts.Call(ctx, req.Type, req.Params)
		if err != nil {
			return fmt.Errorf("command %d (%s) failed [%s]: %w", i, req.Type, protocol.KindOf(err), err)
		}
		ui.PrintSuccess(req.Type)
		ui.PrintInfo(string(raw))
	}
	return nil
}

// GraphCmd prints the host's connectivity graph.
type GraphCmd struct {
	JSON bool `help:"Print the raw result" name:"json"`
}

func (c *GraphCmd) Run(e *env) error {
	conn, err := e.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	raw, err := e.toolset(conn).Call(context.Background(), "get_connectivity_graph", nil)
	if err != nil {
		return err
	}
	if c.JSON {
		fmt.Println(string(raw))
		return nil
	}
	var g graph.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return fmt.Errorf("decode graph: %w", err)
	}
	ui.PrintGraph(&g)
	return nil
}

// InvertCmd inverts a rotation matrix locally.
type InvertCmd struct {
	Values []float64 `arg:"" help:"Nine numbers, row-major"`
}

func (c *InvertCmd) Run(e *env) error {
	if len(c.Values) != 9 {
		return fmt.Errorf("want 9 numbers, got %d", len(c.Values))
	}
	rows := make([]any, 3)
	for i := range rows {
		rows[i] = []any{c.Values[3*i], c.Values[3*i+1], c.Values[3*i+2]}
	}
	raw, err := e.toolset(nil).Call(context.Background(), "invert_rotation_matrix", map[string]any{"rotation_matrix": rows})
	if err != nil {
		return err
	}
	var out struct {
		RotationMatrix [][]float64 `json:"rotation_matrix"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	ui.PrintMatrix(out.RotationMatrix)
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("cadmcp " + tools.Version)
	return nil
}
