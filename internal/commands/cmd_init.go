package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	initcmd "github.com/biginformatics/openclaw-wagl/internal/commands/init"
)

type InitCmd struct {
	flags *Flags
	yes   bool
	force bool
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Write a settings file for the memory plugin with an interactive wizard",
		UsageText: "openclaw-wagl init [options]",
		Description: `Prompts for the wagl database path, recall query, timeout and the
auto-recall and auto-capture switches, then writes the memory-wagl entry
to the settings file.

An existing settings file is backed up to <path>.bak before it is replaced.

Use --yes to accept all defaults without prompts.
Use --force to overwrite an existing settings file.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept defaults without prompting",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing settings",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(_ context.Context, c *cli.Command) error {
	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		SettingsPath: cmd.flags.SettingsPath,
		Yes:          cmd.yes,
		Force:        cmd.force,
		Getenv:       cmd.flags.getenv(),
		Out:          c.Root().ErrWriter,
	})

	err := wizard.Run()
	if errors.Is(err, initcmd.ErrCancelled) {
		return nil
	}
	return err
}
