package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/internal/host"
)

// staticCompleter returns a ShellCompleteFunc that suggests the names
// returned by list as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func staticCompleter(list func() ([]string, error)) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		names, err := list()
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, name := range names {
			_, _ = fmt.Fprintln(w, name)
		}
	}
}

// ToolNameCompleter suggests the tools registered by the memory plugin.
func ToolNameCompleter(flags *Flags) cli.ShellCompleteFunc {
	return staticCompleter(func() ([]string, error) {
		rt, err := flags.Runtime()
		if err != nil {
			return nil, err
		}

		tools := rt.Host.Tools()
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.Name)
		}
		return names, nil
	})
}

// EventNameCompleter suggests the hook events the host dispatches.
func EventNameCompleter() cli.ShellCompleteFunc {
	return staticCompleter(func() ([]string, error) {
		return host.Events(), nil
	})
}
