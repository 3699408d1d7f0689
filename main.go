package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/internal/commands"
	"github.com/biginformatics/openclaw-wagl/internal/core/logging"
	"github.com/biginformatics/openclaw-wagl/internal/core/styles"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() reads
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{Version: build()}

	app := &cli.Command{
		Name:      "openclaw-wagl",
		Usage:     "wagl-backed long-term memory for OpenClaw agents",
		UsageText: "openclaw-wagl [global options] command [command options]",
		Description: `Recalls memory from a local wagl database before each agent run and
captures a short session note after successful runs.

Host integration:
  openclaw-wagl hook <event>   dispatch before_agent_start / agent_end
  openclaw-wagl tool <name>    run wagl_recall / wagl_store with JSON params
  openclaw-wagl mcp            serve the tools over MCP on stdio

Run 'openclaw-wagl init' to write a settings file and
'openclaw-wagl doctor' to check the setup.`,
		Version:               flags.Version,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("OPENCLAW_WAGL_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("OPENCLAW_WAGL_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to settings file",
				Sources:     cli.EnvVars("OPENCLAW_WAGL_CONFIG"),
				Value:       commands.DefaultSettingsPath(),
				Destination: &flags.SettingsPath,
			},
			&cli.StringFlag{
				Name:        "theme",
				Usage:       "color theme (" + strings.Join(styles.ThemeNames(), ", ") + ")",
				Sources:     cli.EnvVars("OPENCLAW_WAGL_THEME"),
				Value:       styles.DefaultTheme,
				Destination: &flags.Theme,
				Validator: func(name string) error {
					if _, ok := styles.GetPalette(name); !ok {
						return fmt.Errorf("unknown theme %q", name)
					}
					return nil
				},
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			palette, _ := styles.GetPalette(flags.Theme)
			styles.SetTheme(palette)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewHookCmd(flags).Register(app)
	app = commands.NewToolCmd(flags).Register(app)
	app = commands.NewMemoryCmd(flags).Register(app)
	app = commands.NewMcpCmd(flags).Register(app)
	app = commands.NewInitCmd(flags).Register(app)
	app = commands.NewDoctorCmd(flags).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
