package initcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
)

func testEnv(key string) string {
	if key == "HOME" {
		return "/home/test"
	}
	return ""
}

func TestWizard_YesWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	var out bytes.Buffer

	w := NewWizard(WizardOptions{SettingsPath: path, Yes: true, Getenv: testEnv, Out: &out})
	require.NoError(t, w.Run())

	cfg, err := config.Load(path, func(string) string { return "" })
	require.NoError(t, err)
	assert.Equal(t, "/home/test/.wagl/memory.db", cfg.DBPath)
	assert.Equal(t, config.DefaultRecallQuery, cfg.RecallQuery)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Contains(t, out.String(), path)
}

func TestWizard_ExistingSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins: {}\n"), 0o644))

	t.Run("refuses without force", func(t *testing.T) {
		w := NewWizard(WizardOptions{SettingsPath: path, Yes: true, Getenv: testEnv, Out: &bytes.Buffer{}})
		assert.ErrorContains(t, w.Run(), "--force")
	})

	t.Run("force backs up", func(t *testing.T) {
		w := NewWizard(WizardOptions{SettingsPath: path, Yes: true, Force: true, Getenv: testEnv, Out: &bytes.Buffer{}})
		require.NoError(t, w.Run())

		backup, err := os.ReadFile(path + ".bak")
		require.NoError(t, err)
		assert.Equal(t, "plugins: {}\n", string(backup))
	})
}

func TestAnswers_Entry(t *testing.T) {
	a := Answers{DBPath: " /db ", RecallQuery: "focus", AutoRecall: true, TimeoutMs: "2500"}

	entry, err := a.Entry()
	require.NoError(t, err)
	assert.Equal(t, "/db", *entry.DBPath)
	assert.Equal(t, 2500, *entry.TimeoutMs)
	assert.False(t, *entry.AutoCapture)

	a.TimeoutMs = "soon"
	_, err = a.Entry()
	assert.Error(t, err)
}
