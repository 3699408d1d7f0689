package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/internal/core/logging"
	"github.com/biginformatics/openclaw-wagl/internal/mcpserver"
)

type McpCmd struct {
	flags *Flags
}

func NewMcpCmd(flags *Flags) *McpCmd {
	return &McpCmd{flags: flags}
}

func (cmd *McpCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "mcp",
		Usage:       "Serve the memory tools over MCP (stdio)",
		UsageText:   "openclaw-wagl mcp",
		Description: "Starts a Model Context Protocol server on stdin/stdout exposing wagl_recall and wagl_store.",
		Action:      cmd.run,
	})
	return app
}

func (cmd *McpCmd) run(ctx context.Context, _ *cli.Command) error {
	rt, err := cmd.flags.Runtime()
	if err != nil {
		return err
	}

	srv, err := mcpserver.New(mcpserver.Config{
		Executor: rt.Host,
		Version:  cmd.flags.Version,
		Logger:   logging.Component("mcp"),
	})
	if err != nil {
		return err
	}

	return srv.ServeStdio(ctx)
}
