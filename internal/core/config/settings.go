package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the subset of the host settings file read by the CLI host.
//
//	plugins:
//	  entries:
//	    memory-wagl:
//	      enabled: true
//	      config: { dbPath: ..., autoRecall: ... }
type Settings struct {
	Plugins PluginsSettings `yaml:"plugins"`
}

// PluginsSettings holds per-plugin entries keyed by plugin id.
type PluginsSettings struct {
	Entries map[string]PluginEntry `yaml:"entries"`
}

// PluginEntry is one plugin's settings block.
type PluginEntry struct {
	Enabled *bool          `yaml:"enabled,omitempty"`
	Config  map[string]any `yaml:"config,omitempty"`
}

// PluginConfig returns the raw config map for the plugin id, or nil.
func (s Settings) PluginConfig(id string) map[string]any {
	if s.Plugins.Entries == nil {
		return nil
	}
	return s.Plugins.Entries[id].Config
}

// PluginEnabled reports whether the plugin id is enabled. Entries without an
// explicit flag are enabled.
func (s Settings) PluginEnabled(id string) bool {
	entry, ok := s.Plugins.Entries[id]
	if !ok || entry.Enabled == nil {
		return true
	}
	return *entry.Enabled
}

// LoadSettings reads a settings file. A missing file yields empty settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings file: %w", err)
	}
	return s, nil
}

// Load reads the settings file at path, resolves the plugin entry against
// getenv and validates the result.
func Load(path string, getenv Getenv) (*Config, error) {
	settings, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}

	entry, err := EntryFromMap(settings.PluginConfig(PluginID))
	if err != nil {
		return nil, err
	}

	cfg := Resolve(entry, getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// WriteSettings writes a settings file containing only the plugin entry.
func WriteSettings(path string, entry Entry) error {
	var cfgMap map[string]any
	data, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfgMap); err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	enabled := true
	settings := Settings{
		Plugins: PluginsSettings{
			Entries: map[string]PluginEntry{
				PluginID: {Enabled: &enabled, Config: cfgMap},
			},
		},
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
