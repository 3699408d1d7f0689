package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/core/logging"
	"github.com/biginformatics/openclaw-wagl/internal/host"
	"github.com/biginformatics/openclaw-wagl/internal/plugin"
	"github.com/biginformatics/openclaw-wagl/pkg/executil"
)

const appName = "openclaw-wagl"

type Flags struct {
	LogLevel     string
	LogFile      string
	SettingsPath string
	Theme        string
	Version      string

	// Getenv and Runner replace os.Getenv and the process runner in tests.
	Getenv config.Getenv
	Runner executil.Runner

	once    sync.Once
	runtime *Runtime
	err     error
}

// Runtime is the loaded settings, resolved configuration and plugin host
// shared by the commands of one invocation.
type Runtime struct {
	Settings config.Settings
	Config   config.Config
	Enabled  bool
	Host     *host.Host
	// Plugin is nil when the plugin is disabled in settings.
	Plugin *plugin.Plugin
}

// Runtime loads the settings file and registers the memory plugin with an
// in-process host. It runs once per invocation.
func (f *Flags) Runtime() (*Runtime, error) {
	f.once.Do(func() {
		f.runtime, f.err = f.load()
	})
	return f.runtime, f.err
}

func (f *Flags) load() (*Runtime, error) {
	rt, err := f.Resolve()
	if err != nil {
		return nil, err
	}

	rt.Host = host.New(rt.Settings, logging.Component("host"))

	opts := []plugin.Option{plugin.WithGetenv(f.getenv())}
	if f.Runner != nil {
		opts = append(opts, plugin.WithRunner(f.Runner))
	}

	rt.Plugin, err = rt.Host.RegisterMemory(opts...)
	if err != nil {
		return nil, err
	}

	return rt, nil
}

// Resolve reads the settings file and resolves the plugin configuration
// without validating it or starting a host.
func (f *Flags) Resolve() (*Runtime, error) {
	settings, err := config.LoadSettings(f.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	entry, err := config.EntryFromMap(settings.PluginConfig(config.PluginID))
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return &Runtime{
		Settings: settings,
		Config:   config.Resolve(entry, f.getenv()),
		Enabled:  settings.PluginEnabled(config.PluginID),
	}, nil
}

func (f *Flags) getenv() config.Getenv {
	if f.Getenv == nil {
		return os.Getenv
	}
	return f.Getenv
}

// DefaultSettingsPath returns the default settings file path using
// XDG_CONFIG_HOME.
func DefaultSettingsPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "settings.yaml")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/openclaw-wagl/openclaw-wagl.log
// On Linux: $XDG_STATE_HOME/openclaw-wagl/openclaw-wagl.log (defaults to ~/.local/state/...)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, appName, appName+".log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", appName, appName+".log")
	}

	return filepath.Join(home, ".local", "state", appName, appName+".log")
}
