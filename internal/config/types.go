package config

import "time"

// Config is the merged configuration: embedded defaults with the user file
// on top.
type Config struct {
	Log       LogConfig       `yaml:"log" json:"log"`
	Limits    LimitsConfig    `yaml:"limits" json:"limits"`
	Viewer    ViewerConfig    `yaml:"viewer" json:"viewer"`
	Formatter FormatterConfig `yaml:"formatter" json:"formatter"`
	Hint      HintConfig      `yaml:"hint" json:"hint"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Theme     ThemeSelection  `yaml:"theme" json:"theme"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// LimitsConfig sizes are in characters.
type LimitsConfig struct {
	MaxChars        *int `yaml:"max_chars,omitempty" json:"max_chars,omitempty"`
	StructuredChars *int `yaml:"structured_chars,omitempty" json:"structured_chars,omitempty"`
}

type ViewerConfig struct {
	Locale    string `yaml:"locale,omitempty" json:"locale,omitempty"`
	IDPrefix  string `yaml:"id_prefix,omitempty" json:"id_prefix,omitempty"`
	FoldParam string `yaml:"fold_param,omitempty" json:"fold_param,omitempty"`
	ExprParam string `yaml:"expr_param,omitempty" json:"expr_param,omitempty"`
}

type FormatterConfig struct {
	Debounce         *time.Duration `yaml:"debounce,omitempty" json:"debounce,omitempty"`
	TransientStatus  *time.Duration `yaml:"transient_status,omitempty" json:"transient_status,omitempty"`
	ClipboardTimeout *time.Duration `yaml:"clipboard_timeout,omitempty" json:"clipboard_timeout,omitempty"`
	CollapseLevels   []int          `yaml:"collapse_levels,omitempty" json:"collapse_levels,omitempty"`
}

type HintConfig struct {
	Retries *int           `yaml:"retries,omitempty" json:"retries,omitempty"`
	Backoff *time.Duration `yaml:"backoff,omitempty" json:"backoff,omitempty"`
}

type ServerConfig struct {
	Addr              string         `yaml:"addr,omitempty" json:"addr,omitempty"`
	ReadHeaderTimeout *time.Duration `yaml:"read_header_timeout,omitempty" json:"read_header_timeout,omitempty"`
	Cache             CacheConfig    `yaml:"cache,omitempty" json:"cache,omitempty"`
}

// CacheConfig sizes the rendered page cache. MaxCost is in bytes.
type CacheConfig struct {
	MaxCost     *int64 `yaml:"max_cost,omitempty" json:"max_cost,omitempty"`
	NumCounters *int64 `yaml:"num_counters,omitempty" json:"num_counters,omitempty"`
}

type ThemeSelection struct {
	Default string                 `yaml:"default,omitempty" json:"default,omitempty"`
	Themes  map[string]ThemeConfig `yaml:"themes,omitempty" json:"themes,omitempty"`
}

// ThemeConfig colours are CSS hex values for the web page and terminal UI.
// ANSI holds attribute names for plain terminal output.
type ThemeConfig struct {
	Background  string     `yaml:"background,omitempty" json:"background,omitempty"`
	Text        string     `yaml:"text,omitempty" json:"text,omitempty"`
	Key         string     `yaml:"key,omitempty" json:"key,omitempty"`
	String      string     `yaml:"string,omitempty" json:"string,omitempty"`
	Number      string     `yaml:"number,omitempty" json:"number,omitempty"`
	Boolean     string     `yaml:"boolean,omitempty" json:"boolean,omitempty"`
	Null        string     `yaml:"null,omitempty" json:"null,omitempty"`
	Placeholder string     `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Gutter      string     `yaml:"gutter,omitempty" json:"gutter,omitempty"`
	Guide       string     `yaml:"guide,omitempty" json:"guide,omitempty"`
	ANSI        ANSIColors `yaml:"ansi,omitempty" json:"ansi,omitempty"`
}

// ANSIColors values are space separated names such as "red" or
// "faint italic".
type ANSIColors struct {
	Key         string `yaml:"key,omitempty" json:"key,omitempty"`
	String      string `yaml:"string,omitempty" json:"string,omitempty"`
	Number      string `yaml:"number,omitempty" json:"number,omitempty"`
	Boolean     string `yaml:"boolean,omitempty" json:"boolean,omitempty"`
	Null        string `yaml:"null,omitempty" json:"null,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Gutter      string `yaml:"gutter,omitempty" json:"gutter,omitempty"`
}
