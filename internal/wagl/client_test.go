package wagl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biginformatics/openclaw-wagl/pkg/executil"
)

func newTestClient(runner executil.Runner, opts Options) *Client {
	nop := zerolog.Nop()
	opts.Logger = &nop
	return NewClient(runner, opts)
}

func TestClient_Recall(t *testing.T) {
	ctx := context.Background()

	t.Run("blank query never spawns", func(t *testing.T) {
		for _, q := range []string{"", "   ", "\n\t"} {
			runner := &executil.RecordingRunner{}
			c := newTestClient(runner, Options{DBPath: "/db"})

			got, err := c.Recall(ctx, q)
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Empty(t, runner.Calls())
		}
	})

	t.Run("builds recall command", func(t *testing.T) {
		runner := &executil.RecordingRunner{
			Results: map[string]executil.Result{
				"recall": {Stdout: `{"canonical":{"name":"Alex"},"related":[{"item":{"text":"likes tea"}}]}`},
			},
		}
		c := newTestClient(runner, Options{
			DBPath:  "/home/me/.wagl/memory.db",
			Env:     map[string]string{"WAGL_EMBEDDINGS_MODEL": "nomic"},
			Timeout: 3 * time.Second,
		})

		got, err := c.Recall(ctx, "  who am I  ")
		require.NoError(t, err)
		assert.Equal(t, "**name:** Alex\n- likes tea", got)

		calls := runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "wagl", calls[0].Binary)
		assert.Equal(t, []string{"recall", "who am I", "--db", "/home/me/.wagl/memory.db"}, calls[0].Argv())
		assert.Equal(t, map[string]string{"WAGL_EMBEDDINGS_MODEL": "nomic"}, calls[0].Env)
		assert.Equal(t, 3*time.Second, calls[0].Timeout)
	})

	t.Run("nothing to inject", func(t *testing.T) {
		runner := &executil.RecordingRunner{
			Results: map[string]executil.Result{"recall": {Stdout: "none\n"}},
		}
		c := newTestClient(runner, Options{})

		got, err := c.Recall(ctx, "anything")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("failure classifications surface as errors", func(t *testing.T) {
		tests := []struct {
			name   string
			result executil.Result
			target error
		}{
			{"not found", executil.Result{Outcome: executil.OutcomeNotFound}, executil.ErrNotFound},
			{"timed out", executil.Result{Outcome: executil.OutcomeTimedOut, Timeout: time.Second}, executil.ErrTimedOut},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner := &executil.RecordingRunner{Default: tt.result}
				c := newTestClient(runner, Options{})

				got, err := c.Recall(ctx, "q")
				assert.ErrorIs(t, err, tt.target)
				assert.Empty(t, got)
			})
		}

		runner := &executil.RecordingRunner{
			Default: executil.Result{Outcome: executil.OutcomeFailed, ExitCode: 2, Stdout: "partial output that is long", Stderr: "boom"},
		}
		c := newTestClient(runner, Options{})
		got, err := c.Recall(ctx, "q")
		var exitErr *executil.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
		assert.Empty(t, got, "stdout of a failed run is never injected")
	})
}

func TestClient_Store(t *testing.T) {
	ctx := context.Background()

	t.Run("blank content never spawns", func(t *testing.T) {
		runner := &executil.RecordingRunner{}
		c := newTestClient(runner, Options{})

		_, err := c.Store(ctx, "  ", 0)
		assert.ErrorIs(t, err, ErrEmptyContent)
		assert.Empty(t, runner.Calls())
	})

	t.Run("builds put command", func(t *testing.T) {
		runner := &executil.RecordingRunner{}
		c := newTestClient(runner, Options{Binary: "/opt/wagl/bin/wagl", DBPath: "/db"})

		receipt, err := c.Store(ctx, "prefers tabs", -2.5)
		require.NoError(t, err)
		assert.Empty(t, receipt.ID)

		calls := runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "/opt/wagl/bin/wagl", calls[0].Binary)
		assert.Equal(t, []string{"put", "--text", "prefers tabs", "--d-score", "-2.5", "--db", "/db"}, calls[0].Argv())
	})

	t.Run("surfaces identifier", func(t *testing.T) {
		tests := []struct {
			stdout string
			want   string
		}{
			{`{"id":"mem_123"}`, "mem_123"},
			{`{"id":42,"ok":true}`, "42"},
			{`{"item":{"id":"nested"}}`, "nested"},
			{`stored`, ""},
			{`{"ok":true}`, ""},
			{`{"id":`, ""},
		}
		for _, tt := range tests {
			runner := &executil.RecordingRunner{Default: executil.Result{Stdout: tt.stdout}}
			c := newTestClient(runner, Options{})

			receipt, err := c.Store(ctx, "content", 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, receipt.ID, tt.stdout)
		}
	})

	t.Run("failure", func(t *testing.T) {
		runner := &executil.RecordingRunner{Default: executil.Result{Outcome: executil.OutcomeNotFound}}
		c := newTestClient(runner, Options{})

		_, err := c.Store(ctx, "content", 0)
		assert.ErrorIs(t, err, executil.ErrNotFound)
	})
}

func TestFormatDScore(t *testing.T) {
	assert.Equal(t, "0", FormatDScore(0))
	assert.Equal(t, "7", FormatDScore(7))
	assert.Equal(t, "-10", FormatDScore(-10))
	assert.Equal(t, "0.25", FormatDScore(0.25))
}

func TestClient_MissingBinary(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(executil.NewProcessRunner(), Options{
		Binary:  "wagl-nonexistent-12345",
		DBPath:  filepath.Join(t.TempDir(), "memory.db"),
		Timeout: 2 * time.Second,
	})

	got, err := c.Recall(ctx, "who am I")
	assert.ErrorIs(t, err, executil.ErrNotFound)
	assert.Empty(t, got)

	_, err = c.Store(ctx, "something worth keeping", 0)
	assert.ErrorIs(t, err, executil.ErrNotFound)
}

func TestClient_FakeBinary(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "wagl")
	script := `#!/bin/sh
case "$1" in
  recall) printf '{"canonical":{"query":"%s"},"related":[{"content":"db=%s"}]}' "$2" "$4" ;;
  put) printf '{"id":"mem-%s"}' "$5" ;;
  *) echo "unknown command" >&2; exit 64 ;;
esac
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	c := newTestClient(executil.NewProcessRunner(), Options{Binary: bin, DBPath: "/tmp/m.db", Timeout: 5 * time.Second})
	ctx := context.Background()

	got, err := c.Recall(ctx, "focus")
	require.NoError(t, err)
	assert.Equal(t, "**query:** focus\n- db=/tmp/m.db", got)

	receipt, err := c.Store(ctx, "note", 3)
	require.NoError(t, err)
	assert.Equal(t, "mem-3", receipt.ID)
}

func TestClient_RecallOversizedOutput(t *testing.T) {
	ctx := context.Background()

	t.Run("truncated result is not injected", func(t *testing.T) {
		runner := &executil.RecordingRunner{
			Results: map[string]executil.Result{
				"recall": {Stdout: `{"canonical":{"name":"Alex"},"related":[{"item":{"text":"xxxx`, StdoutTruncated: true},
			},
		}
		c := newTestClient(runner, Options{DBPath: "/db"})

		got, err := c.Recall(ctx, "focus")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("real binary over the cap", func(t *testing.T) {
		dir := t.TempDir()
		bin := filepath.Join(dir, "wagl")
		script := `#!/bin/sh
printf '{"canonical":{"name":"Alex"},"related":[{"item":{"text":"'
i=0
while [ $i -lt 64 ]; do printf 'xxxxxxxxxxxxxxxx'; i=$((i+1)); done
printf '"}}]}'
`
		require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

		runner := &executil.ProcessRunner{MaxStdout: 256}
		c := newTestClient(runner, Options{Binary: bin, DBPath: "/tmp/m.db", Timeout: 5 * time.Second})

		got, err := c.Recall(ctx, "focus")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
