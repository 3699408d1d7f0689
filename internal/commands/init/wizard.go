// Package initcmd implements the interactive settings wizard.
package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/core/styles"
)

// ErrCancelled is returned when the user declines to overwrite settings.
var ErrCancelled = errors.New("init cancelled")

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	SettingsPath string
	Yes          bool // skip prompts, use defaults
	Force        bool // overwrite existing settings
	Getenv       config.Getenv
	Out          io.Writer
}

// Answers are the values collected by the wizard.
type Answers struct {
	DBPath      string
	RecallQuery string
	AutoRecall  bool
	AutoCapture bool
	TimeoutMs   string
}

// Wizard collects plugin settings and writes them to the settings file.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	return &Wizard{opts: opts}
}

// Defaults returns the answers used with --yes.
func (w *Wizard) Defaults() Answers {
	cfg := config.DefaultConfig(w.opts.Getenv)
	return Answers{
		DBPath:      cfg.DBPath,
		RecallQuery: cfg.RecallQuery,
		AutoRecall:  cfg.AutoRecall,
		AutoCapture: cfg.AutoCapture,
		TimeoutMs:   strconv.FormatInt(cfg.Timeout.Milliseconds(), 10),
	}
}

// Run executes the wizard.
func (w *Wizard) Run() error {
	path := w.opts.SettingsPath

	if SettingsExist(path) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("settings exist at %s; use --force to overwrite", path)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Settings file already exists").
			Description(path + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			return ErrCancelled
		}
	}

	answers := w.Defaults()
	if !w.opts.Yes {
		if err := w.prompt(&answers); err != nil {
			return err
		}
	}

	return w.Write(answers)
}

// Write backs up any existing settings and writes answers to the settings
// file.
func (w *Wizard) Write(answers Answers) error {
	path := w.opts.SettingsPath

	entry, err := answers.Entry()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	backupPath, err := BackupSettings(path)
	if err != nil {
		return err
	}
	if backupPath != "" {
		_, _ = fmt.Fprintln(w.opts.Out, styles.TextMutedStyle.Render("Backed up settings to: "+backupPath))
	}

	if err := config.WriteSettings(path, entry); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	_, _ = fmt.Fprintln(w.opts.Out, styles.TextSuccessStyle.Render("✔ Wrote "+path))
	_, _ = fmt.Fprintln(w.opts.Out, styles.TextMutedStyle.Render("Run 'openclaw-wagl doctor' to check the setup."))
	return nil
}

// Entry converts answers to a plugin config entry.
func (a Answers) Entry() (config.Entry, error) {
	timeoutMs, err := strconv.Atoi(strings.TrimSpace(a.TimeoutMs))
	if err != nil || timeoutMs <= 0 {
		return config.Entry{}, fmt.Errorf("timeout must be a positive number of milliseconds, got %q", a.TimeoutMs)
	}

	dbPath := strings.TrimSpace(a.DBPath)
	query := strings.TrimSpace(a.RecallQuery)
	autoRecall := a.AutoRecall
	autoCapture := a.AutoCapture

	return config.Entry{
		DBPath:      &dbPath,
		RecallQuery: &query,
		AutoRecall:  &autoRecall,
		AutoCapture: &autoCapture,
		TimeoutMs:   &timeoutMs,
	}, nil
}

func (w *Wizard) prompt(a *Answers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database path").
				Description("wagl database file").
				Value(&a.DBPath).
				Validate(notBlank),
			huh.NewInput().
				Title("Recall query").
				Description("Query recalled before each agent run").
				Value(&a.RecallQuery).
				Validate(notBlank),
			huh.NewInput().
				Title("Timeout (ms)").
				Description("Maximum time a wagl call may take").
				Value(&a.TimeoutMs).
				Validate(positiveInt),
			huh.NewConfirm().
				Title("Recall memory automatically?").
				Description("Prepend recalled memory to the agent context").
				Value(&a.AutoRecall),
			huh.NewConfirm().
				Title("Capture session notes automatically?").
				Description("Store the last assistant reply of successful runs").
				Value(&a.AutoCapture),
		),
	)
	return form.Run()
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("must be a positive integer")
	}
	return nil
}
