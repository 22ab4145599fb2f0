package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCliParams(t *testing.T) {
	got := NewCliParams()
	assert.Equal(t, &Run{LogFormat: "json", Locale: "en"}, got)
}

func TestVersionInfoString(t *testing.T) {
	v := VersionInfo{Commit: "abc123", BuildVersion: "v1.2.0", BuildTime: "2026-01-02"}
	assert.Equal(t, "jvx v1.2.0 (commit abc123, built 2026-01-02)", v.String())
}
