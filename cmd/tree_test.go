package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"dirtree/pkg/config"
	"dirtree/pkg/dirtree"
	"dirtree/pkg/glob"
	"dirtree/pkg/version"
)

// newTestEnvironment lays out:
//
//	/data/a.txt            5 bytes
//	/data/empty/
//	/data/src/main.go      10 bytes
//	/data/src/vendor/lib.go 3 bytes
func newTestEnvironment(t *testing.T) *Environment {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeTestFile(t, fsys, "/data/a.txt", "hello")
	writeTestFile(t, fsys, "/data/src/main.go", "package m\n")
	writeTestFile(t, fsys, "/data/src/vendor/lib.go", "lib")
	require.NoError(t, fsys.MkdirAll("/data/empty", 0o755))
	require.NoError(t, fsys.MkdirAll("/work", 0o755))

	return &Environment{
		Logger:           zaptest.NewLogger(t),
		Fs:               fsys,
		WorkingDirectory: "/work",
	}
}

func writeTestFile(t *testing.T, fsys afero.Fs, path, contents string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(contents), 0o644))
}

func executeCommand(t *testing.T, env *Environment, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand(env)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decodeTree(t *testing.T, output string) *dirtree.Item {
	t.Helper()
	var item dirtree.Item
	require.NoError(t, json.Unmarshal([]byte(output), &item))
	return &item
}

func names(item *dirtree.Item) []string {
	result := make([]string, 0, len(item.Children))
	for _, child := range item.Children {
		result = append(result, child.Name)
	}
	return result
}

func TestTreeJSON(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data", "--format", "json")
	require.NoError(t, err)

	tree := decodeTree(t, output)
	assert.Equal(t, "data", tree.Name)
	assert.Equal(t, "/data", tree.Path)
	assert.Equal(t, []string{"a.txt", "empty", "src"}, names(tree))
	assert.EqualValues(t, 18, tree.Size)
}

func TestTreeText(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data",
		"--ignore", "*/vendor/", "--include", "*.go", "--color", "never")
	require.NoError(t, err)

	want := strings.Join([]string{
		"/data/ (10b)",
		"├── empty/ (0b)",
		"└── src/ (10b)",
		"    └── main.go (10b)",
		"",
	}, "\n")
	assert.Equal(t, want, output)
}

func TestTreeIncludeBraceAlternatives(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data", "--include", "*.{go,txt}", "--format", "json")
	require.NoError(t, err)

	tree := decodeTree(t, output)
	assert.Equal(t, []string{"a.txt", "empty", "src"}, names(tree))
	assert.EqualValues(t, 18, tree.Size)
}

func TestTreeRepeatedPatternFlags(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data",
		"--ignore", "*/vendor/", "-i", "*/{empty,nothing}/", "--include", "*.go", "--include", "*.txt", "-f", "json")
	require.NoError(t, err)

	tree := decodeTree(t, output)
	assert.Equal(t, []string{"a.txt", "src"}, names(tree))
	assert.Equal(t, []string{"main.go"}, names(tree.Children[1]))
}

func TestTreeTextLayoutFlags(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data", "--dirs-first", "--no-sizes", "--color", "never")
	require.NoError(t, err)

	want := strings.Join([]string{
		"/data/",
		"├── empty/",
		"├── src/",
		"│   ├── vendor/",
		"│   │   └── lib.go",
		"│   └── main.go",
		"└── a.txt",
		"",
	}, "\n")
	assert.Equal(t, want, output)
}

func TestTreeYAMLHideFiles(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data", "--hide-files", "-f", "yaml")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(output), &decoded))
	assert.Equal(t, 0, decoded["size"])
	children := decoded["children"].([]any)
	require.Len(t, children, 2)
	for _, child := range children {
		assert.Equal(t, "directory", child.(map[string]any)["type"])
	}
}

func TestTreeEverythingFilteredOut(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data", "--hide-files", "--hide-empty-dirs", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "null\n", output)
}

func TestTreeConfigFile(t *testing.T) {
	env := newTestEnvironment(t)
	writeTestFile(t, env.Fs, "/work/.dirtree.yaml", "format: json\nignore:\n  - \"*.txt\"\n  - \"*/src/\"\n")

	output, err := executeCommand(t, env, "tree", "/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, names(decodeTree(t, output)))

	// Flags override the file.
	output, err = executeCommand(t, env, "tree", "/data", "--ignore", "*/empty/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "src"}, names(decodeTree(t, output)))
}

func TestTreeExplicitConfigFile(t *testing.T) {
	env := newTestEnvironment(t)
	writeTestFile(t, env.Fs, "/etc/dirtree.yaml", "format: json\nhide_files: true\n")

	output, err := executeCommand(t, env, "--config", "/etc/dirtree.yaml", "tree", "/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "src"}, names(decodeTree(t, output)))

	_, err = executeCommand(t, env, "--config", "/etc/missing.yaml", "tree", "/data")
	assert.Error(t, err)
}

func TestTreeIgnoreFile(t *testing.T) {
	env := newTestEnvironment(t)
	writeTestFile(t, env.Fs, "/patterns", "# vendored code\n*/vendor/\n\n*.txt\n")

	output, err := executeCommand(t, env, "tree", "/data", "--ignore-file", "/patterns", "-f", "json")
	require.NoError(t, err)

	tree := decodeTree(t, output)
	assert.Equal(t, []string{"empty", "src"}, names(tree))
	assert.Equal(t, []string{"main.go"}, names(tree.Children[1]))
}

func TestTreeDiscoverIgnore(t *testing.T) {
	env := newTestEnvironment(t)
	writeTestFile(t, env.Fs, "/.treeignore", "*/empty/\n")
	writeTestFile(t, env.Fs, "/data/.treeignore", "*/.treeignore\n*.txt\n")

	output, err := executeCommand(t, env, "tree", "/data", "--discover-ignore", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"src"}, names(decodeTree(t, output)))
}

func TestTreeNegatedIgnoreLine(t *testing.T) {
	env := newTestEnvironment(t)
	writeTestFile(t, env.Fs, "/patterns", "!keep.txt\n")

	_, err := executeCommand(t, env, "tree", "/data", "--ignore-file", "/patterns")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/patterns:1")
}

func TestTreeOutputFile(t *testing.T) {
	env := newTestEnvironment(t)
	output, err := executeCommand(t, env, "tree", "/data", "-f", "json", "-o", "/out/nested/tree.json")
	require.NoError(t, err)
	assert.Empty(t, output)

	data, err := afero.ReadFile(env.Fs, "/out/nested/tree.json")
	require.NoError(t, err)
	assert.Equal(t, "data", decodeTree(t, string(data)).Name)
}

func TestTreeMultipleRoots(t *testing.T) {
	env := newTestEnvironment(t)
	writeTestFile(t, env.Fs, "/other/a.txt", "longer text")
	writeTestFile(t, env.Fs, "/other/b.txt", "b")

	output, err := executeCommand(t, env, "tree", "/data", "/other", "-f", "json")
	require.NoError(t, err)

	tree := decodeTree(t, output)
	assert.Equal(t, "/data", tree.Path)
	assert.Equal(t, []string{"a.txt", "empty", "src", "b.txt"}, names(tree))
	assert.Equal(t, "/other/a.txt", tree.Children[0].Path)
	assert.EqualValues(t, 11, tree.Children[0].Size)
	assert.EqualValues(t, 11+10+3+1, tree.Size)
}

func TestTreeAsyncMatchesSync(t *testing.T) {
	env := newTestEnvironment(t)
	syncOutput, err := executeCommand(t, env, "tree", "/data", "-f", "json")
	require.NoError(t, err)
	asyncOutput, err := executeCommand(t, env, "tree", "/data", "-f", "json", "--async", "--concurrency", "2")
	require.NoError(t, err)
	assert.JSONEq(t, syncOutput, asyncOutput)
}

func TestTreeErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "invalid pattern", args: []string{"tree", "/data", "--ignore", "[oops"}, wantErr: glob.ErrInvalidPattern},
		{name: "missing root", args: []string{"tree", "/nope"}, wantErr: dirtree.ErrNotFound},
		{name: "unknown format", args: []string{"tree", "/data", "--format", "xml"}, wantErr: config.ErrInvalidSetting},
		{name: "unknown color", args: []string{"tree", "/data", "--color", "rainbow"}, wantErr: config.ErrInvalidSetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, newTestEnvironment(t), tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor(config.ColorAlways, "", &buf))
	assert.False(t, useColor(config.ColorNever, "", &buf))
	assert.False(t, useColor(config.ColorAuto, "", &buf))
	assert.False(t, useColor(config.ColorAuto, "tree.txt", &buf))
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnvironment(t)

	output, err := executeCommand(t, env, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", output)

	output, err = executeCommand(t, env, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output, version.AppName+" version "))
}

func TestDebugFlagLowersLevel(t *testing.T) {
	env := newTestEnvironment(t)
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	env.Level = &level

	_, err := executeCommand(t, env, "version", "--debug")
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, level.Level())
}

func TestRootCommandHasSubcommands(t *testing.T) {
	rootCmd := NewRootCommand(&Environment{})
	var commandNames []string
	for _, c := range rootCmd.Commands() {
		commandNames = append(commandNames, c.Name())
	}
	assert.Contains(t, commandNames, "tree")
	assert.Contains(t, commandNames, "version")
}
