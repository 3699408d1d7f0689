// Package config resolves the memory-wagl plugin settings. Every field is
// resolved with the precedence plugin config entry > environment variable >
// built-in default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// PluginID is the key of the plugin entry in host settings
// (plugins.entries.<id>.config).
const PluginID = "memory-wagl"

// Built-in defaults.
const (
	DefaultBinary      = "wagl"
	DefaultRecallQuery = "who am I, current focus, working rules"
	DefaultTimeout     = 10 * time.Second
)

// Environment variables consulted when the plugin entry leaves a field unset.
const (
	EnvBinary            = "WAGL_BINARY"
	EnvDBPath            = "WAGL_DB_PATH"
	EnvAutoRecall        = "WAGL_AUTO_RECALL"
	EnvAutoCapture       = "WAGL_AUTO_CAPTURE"
	EnvRecallQuery       = "WAGL_RECALL_QUERY"
	EnvTimeout           = "WAGL_TIMEOUT"
	EnvEmbeddingsBaseURL = "WAGL_EMBEDDINGS_BASE_URL"
	EnvEmbeddingsModel   = "WAGL_EMBEDDINGS_MODEL"
	EnvVectorIndexPath   = "WAGL_VECTOR_INDEX_PATH"
)

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

// Entry is the plugin config entry as written in host settings. Nil fields
// fall through to the environment and then to defaults.
type Entry struct {
	Binary            *string  `yaml:"binary,omitempty" json:"binary,omitempty"`
	DBPath            *string  `yaml:"dbPath,omitempty" json:"dbPath,omitempty"`
	AutoRecall        *bool    `yaml:"autoRecall,omitempty" json:"autoRecall,omitempty"`
	AutoCapture       *bool    `yaml:"autoCapture,omitempty" json:"autoCapture,omitempty"`
	RecallQuery       *string  `yaml:"recallQuery,omitempty" json:"recallQuery,omitempty"`
	TimeoutMs         *int     `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty"`
	EmbeddingsBaseURL *string  `yaml:"embeddingsBaseUrl,omitempty" json:"embeddingsBaseUrl,omitempty"`
	EmbeddingsModel   *string  `yaml:"embeddingsModel,omitempty" json:"embeddingsModel,omitempty"`
	VectorIndexPath   *string  `yaml:"vectorIndexPath,omitempty" json:"vectorIndexPath,omitempty"`
	ExcludeAgents     []string `yaml:"excludeAgents,omitempty" json:"excludeAgents,omitempty"`
}

// EntryFromMap decodes a loosely typed plugin config (as handed over by a
// host) into an Entry.
func EntryFromMap(m map[string]any) (Entry, error) {
	var entry Entry
	if len(m) == 0 {
		return entry, nil
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return entry, fmt.Errorf("encode plugin config: %w", err)
	}
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("decode plugin config: %w", err)
	}
	return entry, nil
}

// Config is the resolved plugin configuration. It is built once and passed
// to everything that needs it.
type Config struct {
	Binary            string        `yaml:"binary" json:"binary"`
	DBPath            string        `yaml:"dbPath" json:"dbPath"`
	AutoRecall        bool          `yaml:"autoRecall" json:"autoRecall"`
	AutoCapture       bool          `yaml:"autoCapture" json:"autoCapture"`
	RecallQuery       string        `yaml:"recallQuery" json:"recallQuery"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	EmbeddingsBaseURL string        `yaml:"embeddingsBaseUrl,omitempty" json:"embeddingsBaseUrl,omitempty"`
	EmbeddingsModel   string        `yaml:"embeddingsModel,omitempty" json:"embeddingsModel,omitempty"`
	VectorIndexPath   string        `yaml:"vectorIndexPath,omitempty" json:"vectorIndexPath,omitempty"`
	ExcludeAgents     []string      `yaml:"excludeAgents,omitempty" json:"excludeAgents,omitempty"`
}

// DefaultConfig returns the built-in defaults. The database lives under the
// user's home directory.
func DefaultConfig(getenv Getenv) Config {
	return Config{
		Binary:      DefaultBinary,
		DBPath:      DefaultDBPath(getenv),
		AutoRecall:  true,
		AutoCapture: true,
		RecallQuery: DefaultRecallQuery,
		Timeout:     DefaultTimeout,
	}
}

// DefaultDBPath returns $HOME/.wagl/memory.db.
func DefaultDBPath(getenv Getenv) string {
	return filepath.Join(homeDir(getenv), ".wagl", "memory.db")
}

// Resolve applies entry, then the environment, then defaults. Environment
// values that do not parse are ignored.
func Resolve(entry Entry, getenv Getenv) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := DefaultConfig(getenv)

	cfg.Binary = pickString(entry.Binary, getenv(EnvBinary), cfg.Binary)
	cfg.DBPath = expandHome(pickString(entry.DBPath, getenv(EnvDBPath), cfg.DBPath), getenv)
	cfg.AutoRecall = pickBool(entry.AutoRecall, getenv(EnvAutoRecall), cfg.AutoRecall)
	cfg.AutoCapture = pickBool(entry.AutoCapture, getenv(EnvAutoCapture), cfg.AutoCapture)
	cfg.RecallQuery = pickString(entry.RecallQuery, getenv(EnvRecallQuery), cfg.RecallQuery)
	cfg.EmbeddingsBaseURL = pickString(entry.EmbeddingsBaseURL, getenv(EnvEmbeddingsBaseURL), "")
	cfg.EmbeddingsModel = pickString(entry.EmbeddingsModel, getenv(EnvEmbeddingsModel), "")
	cfg.VectorIndexPath = expandHome(pickString(entry.VectorIndexPath, getenv(EnvVectorIndexPath), ""), getenv)
	cfg.ExcludeAgents = append([]string(nil), entry.ExcludeAgents...)

	switch {
	case entry.TimeoutMs != nil:
		cfg.Timeout = time.Duration(*entry.TimeoutMs) * time.Millisecond
	case getenv(EnvTimeout) != "":
		if d, ok := parseTimeout(getenv(EnvTimeout)); ok {
			cfg.Timeout = d
		}
	}

	return cfg
}

// WaglEnv returns the environment overlay passed to every wagl invocation.
// Unset values are omitted so the ambient environment is left alone.
func (c Config) WaglEnv() map[string]string {
	env := map[string]string{}
	if c.EmbeddingsBaseURL != "" {
		env[EnvEmbeddingsBaseURL] = c.EmbeddingsBaseURL
	}
	if c.EmbeddingsModel != "" {
		env[EnvEmbeddingsModel] = c.EmbeddingsModel
	}
	if c.VectorIndexPath != "" {
		env[EnvVectorIndexPath] = c.VectorIndexPath
	}
	return env
}

// AgentExcluded reports whether agentID matches one of the excludeAgents
// glob patterns. Invalid patterns never match; Validate reports them.
func (c Config) AgentExcluded(agentID string) bool {
	if agentID == "" {
		return false
	}
	for _, pattern := range c.ExcludeAgents {
		if ok, err := doublestar.Match(pattern, agentID); err == nil && ok {
			return true
		}
	}
	return false
}

func pickString(entry *string, env, def string) string {
	if entry != nil && strings.TrimSpace(*entry) != "" {
		return strings.TrimSpace(*entry)
	}
	if v := strings.TrimSpace(env); v != "" {
		return v
	}
	return def
}

func pickBool(entry *bool, env string, def bool) bool {
	if entry != nil {
		return *entry
	}
	if env != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
			return b
		}
	}
	return def
}

// parseTimeout accepts a Go duration ("15s") or a bare millisecond count.
func parseTimeout(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	if ms, err := strconv.Atoi(s); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

func homeDir(getenv Getenv) string {
	if getenv != nil {
		if home := getenv("HOME"); home != "" {
			return home
		}
	}
	home, _ := os.UserHomeDir()
	return home
}

func expandHome(path string, getenv Getenv) string {
	if path == "~" {
		return homeDir(getenv)
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(getenv), path[2:])
	}
	return path
}
