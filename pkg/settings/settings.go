// Package settings holds build metadata and the per-invocation options shared
// by the jvx commands.
package settings

import "fmt"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "jvx"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
}

// Run holds the options of a single invocation, resolved from flags and the
// config file.
type Run struct {
	MinLogLevel int8
	LogFormat   string
	ConfigFile  string
	Locale      string
	NoColor     bool
	IsQuiet     bool
}

// NewCliParams returns the defaults used before flags are parsed.
func NewCliParams() *Run {
	return &Run{
		LogFormat: "json",
		Locale:    "en",
	}
}
