package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/pkg/iojson"
)

type ToolCmd struct {
	flags  *Flags
	fr     *iojson.FileReader[map[string]any]
	callID string
}

func NewToolCmd(flags *Flags) *ToolCmd {
	return &ToolCmd{
		flags: flags,
		fr:    &iojson.FileReader[map[string]any]{},
	}
}

func (cmd *ToolCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tool",
		Usage:     "Execute a memory tool with JSON parameters",
		UsageText: "openclaw-wagl tool <name> [-f params.json]",
		Description: `Reads tool parameters as JSON and prints the tool result as JSON:

  {"content": [{"type": "text", "text": "..."}], "isError": true}

Tool failures are reported with "isError" and exit 0.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
			&cli.StringFlag{
				Name:        "call-id",
				Usage:       "tool call id (generated when empty)",
				Destination: &cmd.callID,
			},
		},
		ShellComplete: ToolNameCompleter(cmd.flags),
		Action:        cmd.run,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered tools and their parameter schemas",
				Action: cmd.list,
			},
		},
	})
	return app
}

func (cmd *ToolCmd) run(ctx context.Context, c *cli.Command) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("tool name is required")
	}

	rt, err := cmd.flags.Runtime()
	if err != nil {
		return err
	}

	params, err := cmd.fr.Read()
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}

	res, err := rt.Host.ExecuteTool(ctx, name, cmd.callID, params)
	if err != nil {
		return err
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, res)
}

type toolInfo struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func (cmd *ToolCmd) list(_ context.Context, c *cli.Command) error {
	rt, err := cmd.flags.Runtime()
	if err != nil {
		return err
	}

	tools := rt.Host.Tools()
	out := make([]toolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolInfo{
			Name:        t.Name,
			Label:       t.Label,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
}
