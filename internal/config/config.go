// Package config loads jvx configuration. The embedded default_config.yaml is
// the single source of defaults; a user file overrides any subset of it.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/hint"
	"github.com/oakwood-commons/jvx/internal/limiter"
	"github.com/oakwood-commons/jvx/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// ErrUnknownKey is returned by Lookup for a path that names nothing.
var ErrUnknownKey = errors.New("unknown config key")

// DefaultConfigYAML returns a copy of the embedded defaults.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Loader merges a user file over the defaults. The zero value uses the
// embedded defaults.
type Loader struct {
	defaultConfig func() ([]byte, error)
}

// Load is Loader{}.Load.
func Load(path string) (Config, error) {
	return Loader{}.Load(path)
}

// Load reads the defaults and, when path is not empty, the user file at path.
func (l Loader) Load(path string) (Config, error) {
	raw, err := l.defaults()
	if err != nil {
		return Config{}, fmt.Errorf("load default config: %w", err)
	}
	cfg, err := decode(raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode default config: %w", err)
	}
	if cfg.Theme.Default == "" || len(cfg.Theme.Themes) == 0 {
		return Config{}, fmt.Errorf("default config is missing required theme defaults")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		user, err := decode(data)
		if err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
		cfg = merge(cfg, user)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) defaults() ([]byte, error) {
	if l.defaultConfig != nil {
		return l.defaultConfig()
	}
	if len(embeddedDefaultConfig) == 0 {
		return nil, fmt.Errorf("embedded default config is empty")
	}
	return embeddedDefaultConfig, nil
}

func decode(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// ResolvePath returns explicit if set, else the XDG config file when it
// exists, else "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

func merge(base, over Config) Config {
	out := base
	setString(&out.Log.Level, over.Log.Level)
	setString(&out.Log.Format, over.Log.Format)

	setPtr(&out.Limits.MaxChars, over.Limits.MaxChars)
	setPtr(&out.Limits.StructuredChars, over.Limits.StructuredChars)

	setString(&out.Viewer.Locale, over.Viewer.Locale)
	setString(&out.Viewer.IDPrefix, over.Viewer.IDPrefix)
	setString(&out.Viewer.FoldParam, over.Viewer.FoldParam)
	setString(&out.Viewer.ExprParam, over.Viewer.ExprParam)

	setPtr(&out.Formatter.Debounce, over.Formatter.Debounce)
	setPtr(&out.Formatter.TransientStatus, over.Formatter.TransientStatus)
	setPtr(&out.Formatter.ClipboardTimeout, over.Formatter.ClipboardTimeout)
	if len(over.Formatter.CollapseLevels) > 0 {
		out.Formatter.CollapseLevels = over.Formatter.CollapseLevels
	}

	setPtr(&out.Hint.Retries, over.Hint.Retries)
	setPtr(&out.Hint.Backoff, over.Hint.Backoff)

	setString(&out.Server.Addr, over.Server.Addr)
	setPtr(&out.Server.ReadHeaderTimeout, over.Server.ReadHeaderTimeout)
	setPtr(&out.Server.Cache.MaxCost, over.Server.Cache.MaxCost)
	setPtr(&out.Server.Cache.NumCounters, over.Server.Cache.NumCounters)

	setString(&out.Theme.Default, over.Theme.Default)
	if len(over.Theme.Themes) > 0 {
		themes := make(map[string]ThemeConfig, len(base.Theme.Themes)+len(over.Theme.Themes))
		for name, t := range base.Theme.Themes {
			themes[name] = t
		}
		for name, t := range over.Theme.Themes {
			b, ok := themes[name]
			if !ok {
				b = base.Theme.Themes[base.Theme.Default]
			}
			themes[name] = mergeTheme(b, t)
		}
		out.Theme.Themes = themes
	}
	return out
}

func mergeTheme(base, over ThemeConfig) ThemeConfig {
	out := base
	for _, f := range []struct{ dst, src *string }{
		{&out.Background, &over.Background},
		{&out.Text, &over.Text},
		{&out.Key, &over.Key},
		{&out.String, &over.String},
		{&out.Number, &over.Number},
		{&out.Boolean, &over.Boolean},
		{&out.Null, &over.Null},
		{&out.Placeholder, &over.Placeholder},
		{&out.Gutter, &over.Gutter},
		{&out.Guide, &over.Guide},
		{&out.ANSI.Key, &over.ANSI.Key},
		{&out.ANSI.String, &over.ANSI.String},
		{&out.ANSI.Number, &over.ANSI.Number},
		{&out.ANSI.Boolean, &over.ANSI.Boolean},
		{&out.ANSI.Null, &over.ANSI.Null},
		{&out.ANSI.Placeholder, &over.ANSI.Placeholder},
		{&out.ANSI.Gutter, &over.ANSI.Gutter},
	} {
		setString(f.dst, *f.src)
	}
	return out
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setPtr[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	var errs []error
	if err := c.Limiter().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("limits: %w", err))
	}
	if _, err := formatter.LookupLocale(c.Viewer.Locale); err != nil {
		errs = append(errs, fmt.Errorf("viewer.locale: %w", err))
	}
	if c.Hint.Retries != nil && *c.Hint.Retries < 0 {
		errs = append(errs, fmt.Errorf("hint.retries must not be negative"))
	}
	for _, lvl := range c.Formatter.CollapseLevels {
		if lvl < 0 {
			errs = append(errs, fmt.Errorf("formatter.collapse_levels: level %d is negative", lvl))
		}
	}
	if _, err := c.SelectTheme(""); err != nil {
		errs = append(errs, err)
	}
	for _, name := range c.ThemeNames() {
		if _, err := c.Theme.Themes[name].Palette(); err != nil {
			errs = append(errs, fmt.Errorf("theme.themes.%s.ansi: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Limiter returns the size policy.
func (c Config) Limiter() limiter.Config {
	var l limiter.Config
	if c.Limits.MaxChars != nil {
		l.MaxChars = *c.Limits.MaxChars
	}
	if c.Limits.StructuredChars != nil {
		l.StructuredChars = *c.Limits.StructuredChars
	}
	return l
}

// Locale returns the configured locale, English when unset or unknown.
func (c Config) Locale() formatter.Locale {
	l, _ := formatter.LookupLocale(c.Viewer.Locale)
	return l
}

// HintPolicy returns the retry policy for content type hints.
func (c Config) HintPolicy() hint.Policy {
	p := hint.DefaultPolicy()
	if c.Hint.Retries != nil {
		p.Retries = *c.Hint.Retries
	}
	if c.Hint.Backoff != nil {
		p.Backoff = *c.Hint.Backoff
	}
	return p
}

// DurationOr dereferences d, or returns def when d is nil.
func DurationOr(d *time.Duration, def time.Duration) time.Duration {
	if d == nil {
		return def
	}
	return *d
}

// ThemeSelectionError names an unknown theme.
type ThemeSelectionError struct {
	Selected     string
	Available    []string
	DefaultTheme string
}

func (e ThemeSelectionError) Error() string {
	return fmt.Sprintf("unknown theme %q\navailable themes: %v\ndefault theme: %s", e.Selected, e.Available, e.DefaultTheme)
}

// ThemeNames lists the configured themes in order.
func (c Config) ThemeNames() []string {
	names := make([]string, 0, len(c.Theme.Themes))
	for n := range c.Theme.Themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SelectTheme returns the named theme, or the default theme for "".
func (c Config) SelectTheme(name string) (ThemeConfig, error) {
	selected := strings.TrimSpace(name)
	if selected == "" {
		selected = c.Theme.Default
	}
	t, ok := c.Theme.Themes[selected]
	if !ok {
		return ThemeConfig{}, ThemeSelectionError{Selected: selected, Available: c.ThemeNames(), DefaultTheme: c.Theme.Default}
	}
	return t, nil
}

// Palette returns the terminal colours of the theme.
func (t ThemeConfig) Palette() (formatter.Palette, error) {
	a := t.ANSI
	return formatter.ParsePalette(formatter.PaletteSpec{
		Key:         a.Key,
		String:      a.String,
		Number:      a.Number,
		Boolean:     a.Boolean,
		Null:        a.Null,
		Placeholder: a.Placeholder,
		Gutter:      a.Gutter,
	})
}

// Lookup returns the value at a dotted path such as "limits.max_chars" or
// "theme.themes.dark". An empty path returns the whole config.
func (c Config) Lookup(path string) (any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var cur any
	if err := yaml.Unmarshal(data, &cur); err != nil {
		return nil, err
	}
	if path = strings.Trim(path, "."); path == "" {
		return cur, nil
	}
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, path)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, path)
		}
	}
	return cur, nil
}
