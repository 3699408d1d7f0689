package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/core/styles"
	"github.com/biginformatics/openclaw-wagl/internal/host"
	"github.com/biginformatics/openclaw-wagl/internal/plugin"
	"github.com/biginformatics/openclaw-wagl/pkg/iojson"
)

const renderWidth = 100

// MemoryCmd provides direct recall and store commands for humans.
type MemoryCmd struct {
	flags  *Flags
	dScore float64
	format string
}

func NewMemoryCmd(flags *Flags) *MemoryCmd {
	return &MemoryCmd{flags: flags}
}

func (cmd *MemoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:        "recall",
			Usage:       "Recall memories matching a query",
			UsageText:   "openclaw-wagl recall <query>",
			Description: "Runs wagl recall and prints the normalized result. Output is rendered as markdown on a terminal.",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "format",
					Usage:       "output format (auto, text, markdown)",
					Value:       "auto",
					Destination: &cmd.format,
				},
			},
			Action: cmd.recall,
		},
		&cli.Command{
			Name:      "store",
			Usage:     "Store a memory",
			UsageText: "openclaw-wagl store [--d-score n] <content>",
			Flags: []cli.Flag{
				&cli.FloatFlag{
					Name:        "d-score",
					Aliases:     []string{"d"},
					Usage:       "sentiment score from -10 to +10",
					Value:       0,
					Destination: &cmd.dScore,
				},
			},
			Action: cmd.store,
		},
	)
	return app
}

func (cmd *MemoryCmd) recall(ctx context.Context, c *cli.Command) error {
	query := strings.Join(c.Args().Slice(), " ")

	res, err := cmd.execute(ctx, plugin.ToolRecall, map[string]any{"query": query})
	if err != nil {
		return err
	}

	text := res.Text()
	if !cmd.markdown(c.Root().Writer) {
		_, err := fmt.Fprintln(c.Root().Writer, text)
		return err
	}

	rendered, err := renderMarkdown(text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.Root().Writer, rendered)
	return err
}

func (cmd *MemoryCmd) store(ctx context.Context, c *cli.Command) error {
	content := strings.Join(c.Args().Slice(), " ")

	params := map[string]any{"content": content}
	if c.IsSet("d-score") {
		params["d_score"] = cmd.dScore
	}

	res, err := cmd.execute(ctx, plugin.ToolStore, params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.Root().Writer, styles.TextSuccessStyle.Render(res.Text()))
	return err
}

// execute runs a tool and turns error results into a command failure.
func (cmd *MemoryCmd) execute(ctx context.Context, name string, params map[string]any) (plugin.ToolResult, error) {
	rt, err := cmd.flags.Runtime()
	if err != nil {
		return plugin.ToolResult{}, err
	}

	res, err := rt.Host.ExecuteTool(ctx, name, "", params)
	if errors.Is(err, host.ErrUnknownTool) && rt.Plugin == nil {
		return res, fmt.Errorf("%s is disabled in %s", config.PluginID, cmd.flags.SettingsPath)
	}
	if err != nil {
		return res, err
	}

	if res.IsError {
		return res, cli.Exit(res.Text(), 1)
	}
	return res, nil
}

func (cmd *MemoryCmd) markdown(w io.Writer) bool {
	switch cmd.format {
	case "markdown":
		return true
	case "text":
		return false
	default:
		return iojson.IsTerminal(w)
	}
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
