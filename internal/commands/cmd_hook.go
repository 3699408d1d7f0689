package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/internal/host"
	"github.com/biginformatics/openclaw-wagl/pkg/iojson"
)

type HookCmd struct {
	flags *Flags
	fr    *iojson.FileReader[json.RawMessage]
}

func NewHookCmd(flags *Flags) *HookCmd {
	return &HookCmd{
		flags: flags,
		fr:    &iojson.FileReader[json.RawMessage]{},
	}
}

func (cmd *HookCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "hook",
		Usage:     "Dispatch a host lifecycle event to the memory plugin",
		UsageText: "openclaw-wagl hook <event> [-f event.json]",
		Description: fmt.Sprintf(`Reads the event payload as JSON and prints the hook result as JSON.

Events: %s

before_agent_start reads {"prompt": "...", "agentId": "...", "sessionKey": "..."}
and prints {"prependContext": "..."} when memory was recalled, otherwise {}.

agent_end reads {"success": true, "messages": [...]} and prints {}.

Memory failures never fail the command; they are logged and the hook
returns {}.`, strings.Join(host.Events(), ", ")),
		Flags:         []cli.Flag{cmd.fr.Flag()},
		ShellComplete: EventNameCompleter(),
		Action:        cmd.run,
	})
	return app
}

func (cmd *HookCmd) run(ctx context.Context, c *cli.Command) error {
	event := c.Args().First()
	if !slices.Contains(host.Events(), event) {
		return fmt.Errorf("unknown event %q (expected one of: %s)", event, strings.Join(host.Events(), ", "))
	}

	rt, err := cmd.flags.Runtime()
	if err != nil {
		return err
	}

	data, err := cmd.fr.Read()
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}

	resp, err := rt.Host.DispatchJSON(ctx, event, data)
	if err != nil {
		return err
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, resp)
}
