package executil

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sh(script string) Request {
	return Request{Binary: "sh", Args: []string{"-c", script}, Timeout: 5 * time.Second}
}

func TestProcessRunner_Success(t *testing.T) {
	runner := NewProcessRunner()
	ctx := context.Background()

	t.Run("captures stdout", func(t *testing.T) {
		res := runner.Run(ctx, sh("echo hello"))
		require.Equal(t, OutcomeSuccess, res.Outcome)
		assert.True(t, res.OK())
		assert.NoError(t, res.Err())
		assert.Equal(t, "hello\n", res.Stdout)
		assert.Equal(t, 0, res.ExitCode)
	})

	t.Run("appends db flag pair", func(t *testing.T) {
		req := sh(`printf '%s %s' "$0" "$1"`)
		req.DBPath = "/tmp/memory.db"

		res := runner.Run(ctx, req)
		require.True(t, res.OK())
		assert.Equal(t, "--db /tmp/memory.db", res.Stdout)
	})

	t.Run("stdout cap is reported", func(t *testing.T) {
		capped := &ProcessRunner{MaxStdout: 4}

		res := capped.Run(ctx, sh("printf 0123456789"))
		require.True(t, res.OK())
		assert.Equal(t, "0123", res.Stdout)
		assert.True(t, res.StdoutTruncated)

		res = capped.Run(ctx, sh("printf 0123"))
		assert.Equal(t, "0123", res.Stdout)
		assert.False(t, res.StdoutTruncated)
	})

	t.Run("stdin is closed", func(t *testing.T) {
		res := runner.Run(ctx, Request{Binary: "cat", Timeout: 2 * time.Second})
		require.True(t, res.OK())
		assert.Empty(t, res.Stdout)
	})

	t.Run("stderr on success does not change outcome", func(t *testing.T) {
		res := runner.Run(ctx, sh("echo 'no such file, using defaults' >&2; echo ok"))
		assert.Equal(t, OutcomeSuccess, res.Outcome)
		assert.Equal(t, "no such file, using defaults", res.Stderr)
	})
}

func TestProcessRunner_EnvOverlay(t *testing.T) {
	runner := NewProcessRunner()
	ctx := context.Background()

	req := sh(`printf '%s' "$WAGL_EXEC_TEST_VAR"`)
	req.Env = map[string]string{"WAGL_EXEC_TEST_VAR": "overlay"}

	res := runner.Run(ctx, req)
	require.True(t, res.OK())
	assert.Equal(t, "overlay", res.Stdout)

	_, set := os.LookupEnv("WAGL_EXEC_TEST_VAR")
	assert.False(t, set, "overlay must not leak into the current process")

	res = runner.Run(ctx, sh(`printf '%s' "$WAGL_EXEC_TEST_VAR"`))
	require.True(t, res.OK())
	assert.Empty(t, res.Stdout, "overlay must not leak into later invocations")
}

func TestProcessRunner_NotFound(t *testing.T) {
	runner := NewProcessRunner()
	ctx := context.Background()

	t.Run("missing binary", func(t *testing.T) {
		res := runner.Run(ctx, Request{Binary: "nonexistent-command-12345", Args: []string{"recall", "x"}})
		assert.Equal(t, OutcomeNotFound, res.Outcome)
		assert.ErrorIs(t, res.Err(), ErrNotFound)
		assert.Equal(t, -1, res.ExitCode)
	})

	t.Run("missing absolute path", func(t *testing.T) {
		res := runner.Run(ctx, Request{Binary: "/nonexistent-dir-12345/wagl"})
		assert.Equal(t, OutcomeNotFound, res.Outcome)
	})

	t.Run("stderr marker on failure", func(t *testing.T) {
		res := runner.Run(ctx, sh("echo 'Error: Database NOT FOUND' >&2; exit 1"))
		assert.Equal(t, OutcomeNotFound, res.Outcome)
		assert.ErrorIs(t, res.Err(), ErrNotFound)
	})
}

func TestProcessRunner_Failed(t *testing.T) {
	runner := NewProcessRunner()
	ctx := context.Background()

	t.Run("keeps exit code", func(t *testing.T) {
		res := runner.Run(ctx, sh("echo 'bad flag' >&2; exit 3"))
		require.Equal(t, OutcomeFailed, res.Outcome)
		assert.Equal(t, 3, res.ExitCode)

		var exitErr *ExitError
		require.ErrorAs(t, res.Err(), &exitErr)
		assert.Equal(t, 3, exitErr.Code)
		assert.Contains(t, exitErr.Error(), "code 3")
		assert.Contains(t, exitErr.Error(), "bad flag")
	})

	t.Run("no stderr", func(t *testing.T) {
		res := runner.Run(ctx, sh("exit 2"))
		require.Equal(t, OutcomeFailed, res.Outcome)
		assert.EqualError(t, res.Err(), "sh exited with code 2")
	})

	t.Run("stderr capped", func(t *testing.T) {
		res := runner.Run(ctx, sh("printf '%s' '"+strings.Repeat("A", maxStderrLen*2)+"' >&2; exit 1"))
		require.Equal(t, OutcomeFailed, res.Outcome)
		assert.Len(t, res.Stderr, maxStderrLen)
	})

	t.Run("cancelled parent context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res := runner.Run(cctx, sh("echo never"))
		require.Equal(t, OutcomeFailed, res.Outcome)
		assert.True(t, errors.Is(res.Err(), context.Canceled))
	})
}

func TestProcessRunner_Timeout(t *testing.T) {
	runner := NewProcessRunner()
	ctx := context.Background()

	t.Run("kills slow process", func(t *testing.T) {
		req := sh("sleep 5")
		req.Timeout = 200 * time.Millisecond

		res := runner.Run(ctx, req)
		assert.Equal(t, OutcomeTimedOut, res.Outcome)
		assert.ErrorIs(t, res.Err(), ErrTimedOut)
		assert.Contains(t, res.Err().Error(), "200ms")
		assert.Less(t, res.Duration, 3*time.Second)
	})

	t.Run("kills background children", func(t *testing.T) {
		req := sh("sleep 5 & sleep 5; wait")
		req.Timeout = 200 * time.Millisecond

		start := time.Now()
		res := runner.Run(ctx, req)
		assert.Equal(t, OutcomeTimedOut, res.Outcome)
		assert.Less(t, time.Since(start), 3*time.Second)
	})

	t.Run("default timeout applied", func(t *testing.T) {
		res := runner.Run(ctx, Request{Binary: "true"})
		assert.True(t, res.OK())
		assert.Equal(t, DefaultTimeout, res.Timeout)
	})
}

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name    string
		base    []string
		overlay map[string]string
		want    []string
	}{
		{
			name: "nil overlay returns base",
			base: []string{"A=1"},
			want: []string{"A=1"},
		},
		{
			name:    "replaces existing key in place",
			base:    []string{"A=1", "B=2"},
			overlay: map[string]string{"A": "9"},
			want:    []string{"A=9", "B=2"},
		},
		{
			name:    "appends new keys sorted",
			base:    []string{"A=1"},
			overlay: map[string]string{"Z": "z", "M": "m"},
			want:    []string{"A=1", "M=m", "Z=z"},
		},
		{
			name:    "drops duplicate base entries",
			base:    []string{"A=1", "A=2"},
			overlay: map[string]string{"A": "3"},
			want:    []string{"A=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeEnv(tt.base, tt.overlay))
		})
	}
}

func TestRecordingRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("records requests", func(t *testing.T) {
		r := &RecordingRunner{}

		_ = r.Run(ctx, Request{Binary: "wagl", Args: []string{"recall", "q"}, DBPath: "/db"})
		_ = r.Run(ctx, Request{Binary: "wagl", Args: []string{"put", "--text", "x"}})

		calls := r.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, []string{"recall", "q", "--db", "/db"}, calls[0].Argv())
		assert.Equal(t, "put", calls[1].Args[0])
	})

	t.Run("returns scripted results by subcommand", func(t *testing.T) {
		r := &RecordingRunner{
			Results: map[string]Result{
				"recall": {Stdout: "remembered"},
			},
			Default: Result{Outcome: OutcomeFailed, ExitCode: 1},
		}

		res := r.Run(ctx, Request{Binary: "wagl", Args: []string{"recall", "q"}})
		assert.Equal(t, "remembered", res.Stdout)
		assert.Equal(t, "wagl", res.Binary)

		res = r.Run(ctx, Request{Binary: "wagl", Args: []string{"put"}})
		assert.Equal(t, OutcomeFailed, res.Outcome)
	})

	t.Run("reset clears requests", func(t *testing.T) {
		r := &RecordingRunner{}
		_ = r.Run(ctx, Request{Binary: "wagl"})
		require.Len(t, r.Calls(), 1)

		r.Reset()
		assert.Empty(t, r.Calls())
	})
}
