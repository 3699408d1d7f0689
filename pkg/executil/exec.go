// Package executil runs external binaries under a timeout and classifies how
// each invocation ended.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

const (
	maxStderrLen = 500

	// DefaultMaxStdout caps captured stdout when ProcessRunner.MaxStdout is
	// unset.
	DefaultMaxStdout = 1 << 20

	// DefaultTimeout applies when a Request does not set one.
	DefaultTimeout = 10 * time.Second

	defaultWaitDelay = 500 * time.Millisecond
)

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are discarded and recorded in truncated.
type limitedWriter struct {
	buf       *bytes.Buffer
	n         int64
	max       int64
	truncated bool
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.n >= w.max {
		w.truncated = true
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
		w.truncated = true
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// Runner executes a single Request and reports its Result.
type Runner interface {
	Run(ctx context.Context, req Request) Result
}

// ProcessRunner runs requests as operating-system processes.
type ProcessRunner struct {
	// WaitDelay bounds how long Run waits for output pipes to close after the
	// process has been killed. Zero uses a short default.
	WaitDelay time.Duration

	// MaxStdout caps the captured stdout in bytes. Zero uses
	// DefaultMaxStdout. Result.StdoutTruncated reports when it was hit.
	MaxStdout int64
}

// NewProcessRunner returns a ProcessRunner with default settings.
func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{}
}

// Run starts the binary with stdin closed, waits for it to exit or for the
// timeout to elapse, and classifies the outcome. Run never returns before the
// process has been reaped and never blocks much past the request timeout.
func (p *ProcessRunner) Run(ctx context.Context, req Request) Result {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	waitDelay := p.WaitDelay
	if waitDelay <= 0 {
		waitDelay = defaultWaitDelay
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxStdout := p.MaxStdout
	if maxStdout <= 0 {
		maxStdout = DefaultMaxStdout
	}

	var stdout, stderr bytes.Buffer
	stdoutW := &limitedWriter{buf: &stdout, max: maxStdout}

	cmd := exec.CommandContext(ctx, req.Binary, req.Argv()...)
	cmd.Dir = req.Dir
	cmd.Env = MergeEnv(os.Environ(), req.Env)
	cmd.Stdin = nil
	cmd.Stdout = stdoutW
	cmd.Stderr = &limitedWriter{buf: &stderr, max: maxStderrLen}
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()

	res := Result{
		Binary:          req.Binary,
		Stdout:          stdout.String(),
		StdoutTruncated: stdoutW.truncated,
		Stderr:          strings.TrimSpace(stderr.String()),
		ExitCode:        exitCode(err),
		Duration:        time.Since(start),
		Timeout:         timeout,
	}
	res.Outcome, res.cause = classify(ctx, err, res.Stderr)

	return res
}

// classify maps the error returned by exec.Cmd.Run onto exactly one Outcome.
// The order matters: a killed process also reports an ExitError, so the
// deadline check runs first.
func classify(ctx context.Context, err error, stderr string) (Outcome, error) {
	if err == nil {
		return OutcomeSuccess, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return OutcomeTimedOut, err
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderrSaysNotFound(stderr) {
			return OutcomeNotFound, err
		}
		return OutcomeFailed, err
	}

	// Output pipes held open by a grandchild after a clean exit.
	if errors.Is(err, exec.ErrWaitDelay) {
		return OutcomeSuccess, nil
	}

	if isLaunchFailure(err) {
		return OutcomeNotFound, err
	}

	return OutcomeFailed, err
}

func isLaunchFailure(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, exec.ErrDot) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

var notFoundMarkers = []string{"not found", "no such file"}

func stderrSaysNotFound(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// MergeEnv returns base with overlay applied on top. Keys present in base are
// replaced in place; new keys are appended in sorted order. base is not
// modified.
func MergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(overlay))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := overlay[key]; ok {
			if !seen[key] {
				out = append(out, key+"="+v)
				seen[key] = true
			}
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overlay[k])
	}

	return out
}

// String renders the request as a shell-like command line for logs.
func (r Request) String() string {
	return fmt.Sprintf("%s %s", r.Binary, strings.Join(r.Argv(), " "))
}
