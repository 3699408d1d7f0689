package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemes(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)
	assert.IsIncreasing(t, names)

	_, ok := GetPalette("nope")
	assert.False(t, ok)
}

func TestGlamourStyle_FollowsTheme(t *testing.T) {
	orig := CurrentPalette
	t.Cleanup(func() { SetTheme(orig) })

	p, ok := GetPalette("gruvbox")
	require.True(t, ok)
	SetTheme(p)

	cfg := GlamourStyle()
	require.NotNil(t, cfg.H2.Color)
	assert.Equal(t, p.Primary, *cfg.H2.Color)
	require.NotNil(t, cfg.Strong.Color)
	assert.Equal(t, p.Secondary, *cfg.Strong.Color)
}
