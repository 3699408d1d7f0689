package config

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is structurally usable. It does no
// I/O; see ValidateDeep.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if strings.TrimSpace(c.Binary) == "" {
		errs = errs.Append("binary", fmt.Errorf("cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = errs.Append("dbPath", fmt.Errorf("cannot be empty"))
	}
	if c.AutoRecall && strings.TrimSpace(c.RecallQuery) == "" {
		errs = errs.Append("recallQuery", fmt.Errorf("is required when autoRecall is enabled"))
	}
	if c.Timeout <= 0 {
		errs = errs.Append("timeoutMs", fmt.Errorf("must be positive"))
	}
	if c.EmbeddingsBaseURL != "" {
		if u, err := url.Parse(c.EmbeddingsBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = errs.Append("embeddingsBaseUrl", fmt.Errorf("invalid URL %q", c.EmbeddingsBaseURL))
		}
	}
	for i, pattern := range c.ExcludeAgents {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("excludeAgents[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}

	return errs.ToError()
}

// ValidateDeep runs Validate and then checks the binary and database
// location on disk.
func (c *Config) ValidateDeep() error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		criterio.Run("binary", c.Binary, binaryExists),
		criterio.Run("dbPath", filepath.Dir(c.DBPath), isDirectoryOrNotExist),
	)
}

// binaryExists validates that the wagl binary resolves on PATH.
func binaryExists(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // wagl creates it
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
