package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/core/styles"
	"github.com/biginformatics/openclaw-wagl/pkg/iojson"
)

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates the config command group.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config commands to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "show",
				Usage:       "Print the resolved configuration",
				UsageText:   "openclaw-wagl config show [options]",
				Description: "Prints the configuration after applying the settings file, environment variables and defaults.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (yaml, json)",
						Value:       "yaml",
						Destination: &cmd.format,
					},
				},
				Action: cmd.show,
			},
			{
				Name:        "validate",
				Usage:       "Validate the resolved configuration",
				UsageText:   "openclaw-wagl config validate",
				Description: "Validates the configuration, including that the wagl binary resolves and the database directory is usable.",
				Action:      cmd.validate,
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) show(_ context.Context, c *cli.Command) error {
	rt, err := cmd.flags.Resolve()
	if err != nil {
		return err
	}

	if cmd.format == "json" {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, rt.Config)
	}

	enc := yaml.NewEncoder(c.Root().Writer)
	enc.SetIndent(2)
	if err := enc.Encode(rt.Config); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

func (cmd *ConfigCmd) validate(_ context.Context, c *cli.Command) error {
	rt, err := cmd.flags.Resolve()
	if err != nil {
		return err
	}

	w := c.Root().ErrWriter

	err = rt.Config.ValidateDeep()
	if err == nil {
		_, _ = fmt.Fprintln(w, styles.TextSuccessStyle.Render("✔ Configuration is valid"))
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	for _, fe := range fieldErrs {
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", styles.TextErrorStyle.Render("✘"), styles.KeyStyle.Render(fe.Field), fe.Err)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextErrorStyle.Render(fmt.Sprintf("%d error(s) found in %s config", len(fieldErrs), config.PluginID)))
	return cli.Exit("", 1)
}
