package doctor

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/biginformatics/openclaw-wagl/pkg/executil"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

const versionTimeout = 5 * time.Second

// BinaryCheck verifies that the wagl binary resolves and answers --version.
type BinaryCheck struct {
	binary string
	runner executil.Runner
}

// NewBinaryCheck creates a new wagl binary check.
func NewBinaryCheck(binary string, runner executil.Runner) *BinaryCheck {
	return &BinaryCheck{binary: binary, runner: runner}
}

func (c *BinaryCheck) Name() string {
	return "wagl"
}

func (c *BinaryCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	path, err := lookPathFunc(c.binary)
	if err != nil {
		result.Items = append(result.Items, fail(c.binary, "not found on PATH (memory recall and capture are disabled)"))
		return result
	}
	result.Items = append(result.Items, pass(c.binary, path))

	res := c.runner.Run(ctx, executil.Request{
		Binary:  path,
		Args:    []string{"--version"},
		Timeout: versionTimeout,
	})
	if err := res.Err(); err != nil {
		result.Items = append(result.Items, warn("version", err.Error()))
		return result
	}

	version := strings.TrimSpace(res.Stdout)
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	result.Items = append(result.Items, pass("version", version))

	return result
}
