package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
)

// ConfigCheck reports on the settings file and the resolved configuration.
type ConfigCheck struct {
	settingsPath string
	enabled      bool
	cfg          config.Config
}

// NewConfigCheck creates a new configuration check.
func NewConfigCheck(settingsPath string, enabled bool, cfg config.Config) *ConfigCheck {
	return &ConfigCheck{settingsPath: settingsPath, enabled: enabled, cfg: cfg}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	switch _, err := os.Stat(c.settingsPath); {
	case c.settingsPath == "":
		result.Items = append(result.Items, pass("settings", "none, using environment and defaults"))
	case os.IsNotExist(err):
		result.Items = append(result.Items, pass("settings", c.settingsPath+" not found, using environment and defaults"))
	case err != nil:
		result.Items = append(result.Items, fail("settings", err.Error()))
	default:
		result.Items = append(result.Items, pass("settings", c.settingsPath))
	}

	if !c.enabled {
		result.Items = append(result.Items, warn(config.PluginID, "disabled in settings"))
	}

	if err := c.cfg.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.Items = append(result.Items, fail(fe.Field, fe.Err.Error()))
			}
		} else {
			result.Items = append(result.Items, fail("config", err.Error()))
		}
		return result
	}

	result.Items = append(result.Items,
		pass("autoRecall", onOff(c.cfg.AutoRecall)),
		pass("autoCapture", onOff(c.cfg.AutoCapture)),
		pass("timeout", c.cfg.Timeout.String()),
	)

	if len(c.cfg.ExcludeAgents) > 0 {
		result.Items = append(result.Items, pass("excludeAgents", strings.Join(c.cfg.ExcludeAgents, ", ")))
	}

	switch {
	case c.cfg.EmbeddingsBaseURL == "" && c.cfg.EmbeddingsModel == "":
		result.Items = append(result.Items, pass("embeddings", "wagl defaults"))
	case c.cfg.EmbeddingsBaseURL == "" || c.cfg.EmbeddingsModel == "":
		result.Items = append(result.Items, warn("embeddings", "only one of embeddingsBaseUrl and embeddingsModel is set"))
	default:
		result.Items = append(result.Items, pass("embeddings", fmt.Sprintf("%s @ %s", c.cfg.EmbeddingsModel, c.cfg.EmbeddingsBaseURL)))
	}

	return result
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
