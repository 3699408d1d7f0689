package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/pkg/executil"
)

type testApp struct {
	flags  *Flags
	runner *executil.RecordingRunner
	stdout bytes.Buffer
	stderr bytes.Buffer
	exit   error
}

func testEnv(key string) string {
	if key == "HOME" {
		return "/home/test"
	}
	return ""
}

func newTestApp(t *testing.T, settings string) *testApp {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	if settings != "" {
		require.NoError(t, os.WriteFile(path, []byte(settings), 0o644))
	}

	runner := &executil.RecordingRunner{}
	return &testApp{
		runner: runner,
		flags: &Flags{
			SettingsPath: path,
			Getenv:       testEnv,
			Runner:       runner,
		},
	}
}

func (a *testApp) run(t *testing.T, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:      appName,
		Writer:    &a.stdout,
		ErrWriter: &a.stderr,
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			a.exit = err
		},
	}
	app = NewHookCmd(a.flags).Register(app)
	app = NewToolCmd(a.flags).Register(app)
	app = NewMemoryCmd(a.flags).Register(app)
	app = NewConfigCmd(a.flags).Register(app)

	return app.Run(context.Background(), append([]string{appName}, args...))
}

func writeJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func decodeStdout(t *testing.T, a *testApp) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(a.stdout.Bytes(), &out))
	return out
}

func TestHookCmd(t *testing.T) {
	t.Run("before_agent_start prints prepend context", func(t *testing.T) {
		a := newTestApp(t, "")
		a.runner.Results = map[string]executil.Result{
			"recall": {Stdout: "plain memory text\n"},
		}

		input := writeJSON(t, map[string]any{"prompt": "plan my day", "agentId": "main"})
		require.NoError(t, a.run(t, "hook", "before_agent_start", "-f", input))

		out := decodeStdout(t, a)
		assert.Equal(t, "## Memory (wagl)\nplain memory text", out["prependContext"])

		calls := a.runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"recall", config.DefaultRecallQuery, "--db", "/home/test/.wagl/memory.db"}, calls[0].Argv())
	})

	t.Run("agent_end captures", func(t *testing.T) {
		a := newTestApp(t, "")
		input := writeJSON(t, map[string]any{
			"success": true,
			"messages": []any{
				map[string]any{"role": "assistant", "content": "Summarized the release notes for the team."},
			},
		})

		require.NoError(t, a.run(t, "hook", "agent_end", "-f", input))
		assert.JSONEq(t, `{}`, a.stdout.String())

		calls := a.runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "put", calls[0].Args[0])
	})

	t.Run("disabled plugin does nothing", func(t *testing.T) {
		a := newTestApp(t, "plugins:\n  entries:\n    memory-wagl:\n      enabled: false\n")
		input := writeJSON(t, map[string]any{"prompt": "plan my day"})

		require.NoError(t, a.run(t, "hook", "before_agent_start", "-f", input))
		assert.JSONEq(t, `{}`, a.stdout.String())
		assert.Empty(t, a.runner.Calls())
	})

	t.Run("unknown event", func(t *testing.T) {
		a := newTestApp(t, "")
		err := a.run(t, "hook", "session_start")
		assert.ErrorContains(t, err, "unknown event")
	})

	t.Run("invalid config fails registration", func(t *testing.T) {
		a := newTestApp(t, "plugins:\n  entries:\n    memory-wagl:\n      config:\n        timeoutMs: -1\n")
		input := writeJSON(t, map[string]any{"prompt": "plan my day"})

		err := a.run(t, "hook", "before_agent_start", "-f", input)
		assert.ErrorContains(t, err, "invalid memory-wagl config")
	})
}

func TestToolCmd(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		a := newTestApp(t, "")
		input := writeJSON(t, map[string]any{"content": "prefers short standups", "d_score": 4})

		require.NoError(t, a.run(t, "tool", "wagl_store", "-f", input, "--call-id", "call-1"))

		out := decodeStdout(t, a)
		assert.Nil(t, out["isError"])

		calls := a.runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"put", "--text", "prefers short standups", "--d-score", "4", "--db", "/home/test/.wagl/memory.db"}, calls[0].Argv())
	})

	t.Run("invalid params are an error result", func(t *testing.T) {
		a := newTestApp(t, "")
		input := writeJSON(t, map[string]any{"content": "x", "d_score": 42})

		require.NoError(t, a.run(t, "tool", "wagl_store", "-f", input))

		out := decodeStdout(t, a)
		assert.Equal(t, true, out["isError"])
		assert.Empty(t, a.runner.Calls())
	})

	t.Run("unknown tool", func(t *testing.T) {
		a := newTestApp(t, "")
		input := writeJSON(t, map[string]any{})

		err := a.run(t, "tool", "wagl_forget", "-f", input)
		assert.ErrorContains(t, err, "unknown tool")
	})

	t.Run("list", func(t *testing.T) {
		a := newTestApp(t, "")
		require.NoError(t, a.run(t, "tool", "list"))

		var tools []toolInfo
		require.NoError(t, json.Unmarshal(a.stdout.Bytes(), &tools))
		require.Len(t, tools, 2)
		assert.Equal(t, "wagl_recall", tools[0].Name)
		assert.Equal(t, "wagl Recall", tools[0].Label)
		assert.Equal(t, "wagl_store", tools[1].Name)
	})
}

func TestMemoryCmd(t *testing.T) {
	t.Run("recall prints text", func(t *testing.T) {
		a := newTestApp(t, "")
		a.runner.Results = map[string]executil.Result{
			"recall": {Stdout: `{"related":[{"content":"likes tea"}]}`},
		}

		require.NoError(t, a.run(t, "recall", "--format", "text", "what", "drinks"))
		assert.Equal(t, "- likes tea\n", a.stdout.String())
		assert.Equal(t, []string{"recall", "what drinks", "--db", "/home/test/.wagl/memory.db"}, a.runner.Calls()[0].Argv())
	})

	t.Run("store failure exits non-zero", func(t *testing.T) {
		a := newTestApp(t, "")
		a.runner.Default = executil.Result{Outcome: executil.OutcomeFailed, ExitCode: 2, Stderr: "db locked"}

		err := a.run(t, "store", "remember", "this")
		require.Error(t, err)

		var exitErr cli.ExitCoder
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitCode())
		assert.Contains(t, exitErr.Error(), "Memory store failed")
	})

	t.Run("store passes d-score only when set", func(t *testing.T) {
		a := newTestApp(t, "")

		require.NoError(t, a.run(t, "store", "--d-score=-2.5", "mixed feelings"))
		assert.Equal(t, []string{"put", "--text", "mixed feelings", "--d-score", "-2.5", "--db", "/home/test/.wagl/memory.db"}, a.runner.Calls()[0].Argv())
	})
}

func TestConfigCmd_Show(t *testing.T) {
	a := newTestApp(t, "plugins:\n  entries:\n    memory-wagl:\n      config:\n        dbPath: /srv/wagl.db\n        autoCapture: false\n")

	require.NoError(t, a.run(t, "config", "show", "--format", "json"))

	out := decodeStdout(t, a)
	assert.Equal(t, "/srv/wagl.db", out["dbPath"])
	assert.Equal(t, false, out["autoCapture"])
	assert.Equal(t, true, out["autoRecall"])
}
