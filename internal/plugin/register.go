package plugin

import (
	"fmt"
	"os"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/core/logging"
	"github.com/biginformatics/openclaw-wagl/internal/wagl"
	"github.com/biginformatics/openclaw-wagl/pkg/executil"
)

// Option customizes Register.
type Option func(*registerOptions)

type registerOptions struct {
	runner executil.Runner
	getenv config.Getenv
	memory Memory
}

// WithRunner sets the runner used to invoke wagl.
func WithRunner(r executil.Runner) Option {
	return func(o *registerOptions) { o.runner = r }
}

// WithGetenv sets the environment lookup used for configuration fallbacks.
func WithGetenv(getenv config.Getenv) Option {
	return func(o *registerOptions) { o.getenv = getenv }
}

// WithMemory replaces the wagl client entirely.
func WithMemory(m Memory) Option {
	return func(o *registerOptions) { o.memory = m }
}

// Register resolves the plugin configuration from the host, subscribes the
// enabled lifecycle hooks and registers the memory tools.
func Register(api API, opts ...Option) (*Plugin, error) {
	o := registerOptions{getenv: os.Getenv}
	for _, opt := range opts {
		opt(&o)
	}

	entry, err := config.EntryFromMap(api.PluginConfig(config.PluginID))
	if err != nil {
		return nil, fmt.Errorf("read %s config: %w", config.PluginID, err)
	}

	cfg := config.Resolve(entry, o.getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", config.PluginID, err)
	}

	mem := o.memory
	if mem == nil {
		runner := o.runner
		if runner == nil {
			runner = executil.NewProcessRunner()
		}
		zl := logging.Component("wagl")
		mem = wagl.NewClient(runner, wagl.Options{
			Binary:  cfg.Binary,
			DBPath:  cfg.DBPath,
			Env:     cfg.WaglEnv(),
			Timeout: cfg.Timeout,
			Logger:  &zl,
		})
	}

	p := New(cfg, mem, api.Logger())

	if cfg.AutoRecall {
		api.OnBeforeAgentStart(p.BeforeAgentStart)
	}
	if cfg.AutoCapture {
		api.OnAgentEnd(p.AgentEnd)
	}
	for _, tool := range p.Tools() {
		api.RegisterTool(tool)
	}

	if host := api.Logger(); host != nil {
		host.Info(prefixed("registered (db=%s, autoRecall=%t, autoCapture=%t)", cfg.DBPath, cfg.AutoRecall, cfg.AutoCapture))
	}

	return p, nil
}
