package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/pkg/settings"
)

const sampleJSON = `{"name":"jvx","tags":["a","b"],"nested":{"ok":true}}`

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with args, stdin and no terminal.
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := newApp()
	a.isTerminal = func(io.Writer) bool { return false }
	root := newRootCmd(a)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, settings.VersionInformation.String()+"\n", res.stdout)
}

func TestView(t *testing.T) {
	path := writeFile(t, "doc.json", sampleJSON)

	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "file",
			args: []string{"view", path},
			want: "{\n  \"name\": \"jvx\",\n  \"tags\": [\n    \"a\",\n    \"b\"\n  ],\n  \"nested\": {\n    \"ok\": true\n  }\n}\n",
		},
		{
			name:  "stdin",
			stdin: `[1, 2.50, null]`,
			args:  []string{"view"},
			want:  "[\n  1,\n  2.5,\n  null\n]\n",
		},
		{
			name:  "expression",
			stdin: sampleJSON,
			args:  []string{"view", "-", "-e", "_.nested"},
			want:  "{\n  \"ok\": true\n}\n",
		},
		{
			name:  "not json passes through",
			stdin: "hello world\n",
			args:  []string{"view"},
			want:  "hello world\n",
		},
		{
			name:    "parse error",
			stdin:   `{"a": [1, 2}`,
			args:    []string{"view"},
			want:    `{"a": [1, 2}`,
			wantErr: "not valid JSON",
		},
		{
			name:    "bad expression",
			stdin:   sampleJSON,
			args:    []string{"view", "-e", "_["},
			wantErr: "invalid expression",
		},
		{
			name:    "missing file",
			args:    []string{"view", filepath.Join(t.TempDir(), "nope.json")},
			wantErr: "no such file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, tt.stdin, append(tt.args, "--quiet")...)
			if tt.wantErr != "" {
				require.Error(t, res.err)
				assert.Contains(t, res.err.Error(), tt.wantErr)
			} else {
				require.NoError(t, res.err)
			}
			assert.Equal(t, tt.want, res.stdout)
		})
	}
}

func TestView_StreamsInputBeyondReadLimit(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "limits:\n  max_chars: 4\n  structured_chars: 2\n")
	tests := []struct {
		name  string
		input string
	}{
		{"text", strings.Repeat("lorem ipsum ", 20) + "\n"},
		{"json", `[` + strings.Repeat(`"item",`, 30) + `"last"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, tt.input, "--config-file", cfg, "view", "-q")
			require.NoError(t, res.err)
			assert.Equal(t, tt.input, res.stdout)
		})
	}
}

func TestView_Outline(t *testing.T) {
	res := execute(t, sampleJSON, "view", "--outline", "-q")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "nested")
	assert.Contains(t, res.stdout, "ok: true")
	assert.Contains(t, res.stdout, "└──")
}

func TestView_ProgressGoesToStderr(t *testing.T) {
	res := execute(t, sampleJSON, "view")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "formatting JSON")
	assert.NotContains(t, res.stdout, "formatting JSON")
}

func TestFmt_PrintsSnapshotWhenNotATerminal(t *testing.T) {
	path := writeFile(t, "doc.json", sampleJSON)
	res := execute(t, "", "fmt", path, "--width", "100", "--height", "20")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"nested": {`)
	assert.Contains(t, res.stdout, "Input length: 52 characters")
	assert.Len(t, strings.Split(strings.TrimSuffix(res.stdout, "\n"), "\n"), 20)
}

func TestConfigGet(t *testing.T) {
	res := execute(t, "", "config", "get", "limits.max_chars")
	require.NoError(t, res.err)
	assert.Equal(t, "10485760\n", res.stdout)

	res = execute(t, "", "config", "get", "viewer", "-o", "json")
	require.NoError(t, res.err)
	var viewer map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &viewer))
	assert.Equal(t, "jvx-fold", viewer["fold_param"])

	res = execute(t, "", "config", "get", "hint")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "backoff: 200ms")

	res = execute(t, "", "config", "get", "no.such.key")
	assert.ErrorIs(t, res.err, config.ErrUnknownKey)
}

func TestConfigFileOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "viewer:\n  locale: zh\nlimits:\n  max_chars: 100\n  structured_chars: 50\n")
	res := execute(t, "", "--config-file", path, "config", "get", "viewer.locale")
	require.NoError(t, res.err)
	assert.Equal(t, "zh\n", res.stdout)

	res = execute(t, "", "--config-file", path, "--locale", "en", "config", "get", "viewer.locale")
	require.NoError(t, res.err)
	assert.Equal(t, "en\n", res.stdout)

	res = execute(t, "", "--locale", "xx", "version")
	assert.Error(t, res.err)

	bad := writeFile(t, "bad.yaml", "viewer:\n  colour: red\n")
	res = execute(t, "", "--config-file", bad, "version")
	assert.Error(t, res.err)
}

func TestConfigThemes(t *testing.T) {
	res := execute(t, "", "config", "themes")
	require.NoError(t, res.err)
	assert.Equal(t, "  dark\n* light\n", res.stdout)
}

func TestServe_FlagValidation(t *testing.T) {
	res := execute(t, "", "serve")
	assert.Error(t, res.err)

	res = execute(t, "", "serve", "--upstream", "http://x", "--root", ".")
	assert.Error(t, res.err)

	res = execute(t, "", "serve", "--upstream", "not-a-url")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid --upstream")

	res = execute(t, "", "serve", "--root", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "not a directory")
}

func TestServe_StopsWithContext(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := newApp()
	a.isTerminal = func(io.Writer) bool { return false }
	root := newRootCmd(a)
	root.SetOut(io.Discard)
	var errOut bytes.Buffer
	root.SetErr(&errOut)
	root.SetArgs([]string{"--log-level", "error", "serve", "--root", t.TempDir(), "--addr", "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, root.ExecuteContext(ctx))
}
