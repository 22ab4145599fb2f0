package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/limiter"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, limiter.Config{MaxChars: 10 * 1024 * 1024, StructuredChars: 800 * 1024}, cfg.Limiter())
	assert.Equal(t, formatter.English, cfg.Locale())
	assert.Equal(t, "n", cfg.Viewer.IDPrefix)
	assert.Equal(t, "jvx-fold", cfg.Viewer.FoldParam)
	assert.Equal(t, []int{1, 2, 3}, cfg.Formatter.CollapseLevels)
	assert.Equal(t, 300*time.Millisecond, DurationOr(cfg.Formatter.Debounce, 0))
	assert.Equal(t, 2*time.Second, DurationOr(cfg.Formatter.ClipboardTimeout, 0))

	p := cfg.HintPolicy()
	assert.Equal(t, 3, p.Retries)
	assert.Equal(t, 200*time.Millisecond, p.Backoff)

	assert.Equal(t, []string{"dark", "light"}, cfg.ThemeNames())
	light, err := cfg.SelectTheme("")
	require.NoError(t, err)
	assert.Equal(t, "#0b7522", light.String)
	assert.Equal(t, "faint italic", light.ANSI.Placeholder)
	palette, err := light.Palette()
	require.NoError(t, err)
	assert.NotNil(t, palette.Key)
}

func TestLoad_UserFileOverridesSubset(t *testing.T) {
	path := writeConfig(t, `
limits:
  structured_chars: 1024
viewer:
  locale: zh
hint:
  retries: 0
theme:
  default: dark
  themes:
    dark:
      key: "#ff0000"
    solar:
      string: "#859900"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*1024*1024, cfg.Limiter().MaxChars)
	assert.Equal(t, 1024, cfg.Limiter().StructuredChars)
	assert.Equal(t, formatter.Chinese, cfg.Locale())
	assert.Equal(t, 0, cfg.HintPolicy().Retries)
	assert.Equal(t, "json", cfg.Log.Format)

	dark, err := cfg.SelectTheme("")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", dark.Key)
	assert.Equal(t, "#ce9178", dark.String, "unset fields keep the default")

	solar, err := cfg.SelectTheme("solar")
	require.NoError(t, err)
	assert.Equal(t, "#859900", solar.String)
	assert.Equal(t, dark.Number, solar.Number, "new themes start from the default theme")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown key", body: "limits:\n  max_bytes: 1\n", want: "max_bytes"},
		{name: "bad locale", body: "viewer:\n  locale: fr\n", want: "viewer.locale"},
		{name: "structured above ceiling", body: "limits:\n  max_chars: 10\n  structured_chars: 20\n", want: "limits"},
		{name: "unknown default theme", body: "theme:\n  default: neon\n", want: `unknown theme "neon"`},
		{name: "bad duration", body: "hint:\n  backoff: soon\n", want: "decode"},
		{name: "bad ansi colour", body: "theme:\n  themes:\n    dark:\n      ansi:\n        key: crimson\n", want: "theme.themes.dark.ansi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_BrokenDefaults(t *testing.T) {
	_, err := Loader{defaultConfig: func() ([]byte, error) { return nil, errors.New("gone") }}.Load("")
	assert.ErrorContains(t, err, "load default config: gone")

	_, err = Loader{defaultConfig: func() ([]byte, error) { return []byte("log:\n  level: info\n"), nil }}.Load("")
	assert.ErrorContains(t, err, "missing required theme defaults")
}

func TestLoad_EmptyUserFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme.Default)
}

func TestThemeSelectionError(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	_, err = cfg.SelectTheme("neon")
	var tse ThemeSelectionError
	require.ErrorAs(t, err, &tse)
	assert.Equal(t, []string{"dark", "light"}, tse.Available)
	assert.Equal(t, "light", tse.DefaultTheme)
}

func TestLookup(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	v, err := cfg.Lookup("limits.max_chars")
	require.NoError(t, err)
	assert.Equal(t, 10485760, v)

	v, err = cfg.Lookup("formatter.debounce")
	require.NoError(t, err)
	assert.Equal(t, "300ms", v)

	v, err = cfg.Lookup("theme.themes.dark.ansi.key")
	require.NoError(t, err)
	assert.Equal(t, "hi-cyan", v)

	all, err := cfg.Lookup("")
	require.NoError(t, err)
	assert.Contains(t, all, "server")

	_, err = cfg.Lookup("limits.max_chars.deeper")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = cfg.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/etc/jvx.yaml", ResolvePath("/etc/jvx.yaml"))

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, "", ResolvePath(""))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "jvx"), 0o755))
	path := filepath.Join(dir, "jvx", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	assert.Equal(t, path, ResolvePath(""))
}

func TestDefaultConfigYAMLIsACopy(t *testing.T) {
	a := DefaultConfigYAML()
	require.NotEmpty(t, a)
	a[0] = 'X'
	assert.NotEqual(t, a[0], DefaultConfigYAML()[0])
}
