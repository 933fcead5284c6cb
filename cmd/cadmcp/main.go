// Command cadmcp exposes a CAD document host to MCP clients and ships a
// simulated host for local work.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/chazu/cadmcp/pkg/config"
	"github.com/chazu/cadmcp/pkg/ui"
)

// CLI is the command tree.
type CLI struct {
	Config      string `help:"Config file (default: ./cadmcp.yaml or ~/.config/cadmcp/cadmcp.yaml)" type:"path"`
	HostAddress string `help:"Host address, tcp://host:port or ws://host:port/path. Overrides host.address." name:"host-address"`

	Serve   *ServeCmd   `cmd:"" help:"Run the MCP stdio server forwarding to the host"`
	Host    *HostCmd    `cmd:"" help:"Run the simulated geometry host"`
	Run     *RunCmd     `cmd:"" help:"Run a command script against the host"`
	Graph   *GraphCmd   `cmd:"" help:"Print the connectivity graph of the host document"`
	Invert  *InvertCmd  `cmd:"" help:"Invert a 3x3 rotation matrix given as 9 row-major numbers"`
	Version *VersionCmd `cmd:"" help:"Show version information"`
}

// env is bound into every command's Run method.
type env struct {
	cfg config.Config
	log *slog.Logger
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("cadmcp"),
		kong.Description("CAD command protocol: MCP tools, a simulated host and command scripts"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	if cli.HostAddress != "" {
		cfg.Host.Address = cli.HostAddress
	}
	level, _ := cfg.LogLevel()
	// stdout carries MCP traffic under `serve`.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := ctx.Run(&env{cfg: cfg, log: logger}); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
