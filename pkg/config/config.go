// Package config resolves dirtree settings from defaults, an optional YAML
// config file, DIRTREE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"dirtree/pkg/dirtree"
	"dirtree/pkg/render"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = ".dirtree.yaml"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "DIRTREE"
)

// Configuration keys.
const (
	KeyHideFiles            = "hide_files"
	KeyHideEmptyDirectories = "hide_empty_directories"
	KeyIgnore               = "ignore"
	KeyInclude              = "include"
	KeyAbsolute             = "absolute"
	KeyFormat               = "format"
	KeyConcurrency          = "concurrency"
	KeyAsync                = "async"
	KeyIgnoreFile           = "ignore_file"
	KeyDiscoverIgnore       = "discover_ignore"
	KeyOutput               = "output"
	KeyColor                = "color"
	KeyNoSizes              = "no_sizes"
	KeyDirsFirst            = "dirs_first"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ErrInvalidSetting is wrapped by Validate failures.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings is the resolved configuration of one run.
type Settings struct {
	HideFiles            bool     `mapstructure:"hide_files"`
	HideEmptyDirectories bool     `mapstructure:"hide_empty_directories"`
	Ignore               []string `mapstructure:"ignore"`
	Include              []string `mapstructure:"include"`
	Absolute             bool     `mapstructure:"absolute"`
	Format               string   `mapstructure:"format"`
	Concurrency          int      `mapstructure:"concurrency"`
	Async                bool     `mapstructure:"async"`
	IgnoreFile           string   `mapstructure:"ignore_file"`
	DiscoverIgnore       bool     `mapstructure:"discover_ignore"`
	Output               string   `mapstructure:"output"`
	Color                string   `mapstructure:"color"`
	NoSizes              bool     `mapstructure:"no_sizes"`
	DirsFirst            bool     `mapstructure:"dirs_first"`
}

// New returns a viper instance with defaults and environment overrides
// registered, reading files from fsys.
func New(fsys afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigType("yaml")

	v.SetDefault(KeyHideFiles, false)
	v.SetDefault(KeyHideEmptyDirectories, false)
	v.SetDefault(KeyIgnore, []string{})
	v.SetDefault(KeyInclude, []string{})
	v.SetDefault(KeyAbsolute, false)
	v.SetDefault(KeyFormat, render.FormatText)
	v.SetDefault(KeyConcurrency, 0)
	v.SetDefault(KeyAsync, false)
	v.SetDefault(KeyIgnoreFile, "")
	v.SetDefault(KeyDiscoverIgnore, false)
	v.SetDefault(KeyOutput, "")
	v.SetDefault(KeyColor, ColorAuto)
	v.SetDefault(KeyNoSizes, false)
	v.SetDefault(KeyDirsFirst, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and returns the resolved settings.
// An explicit path must exist; otherwise FileName in workingDirectory is
// used when present.
func Load(v *viper.Viper, fsys afero.Fs, explicitPath, workingDirectory string) (Settings, error) {
	path, err := resolveConfigPath(fsys, explicitPath, workingDirectory)
	if err != nil {
		return Settings{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading configuration %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(mapstructure.DecodeHookFuncType(patternListHook))); err != nil {
		return Settings{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func resolveConfigPath(fsys afero.Fs, explicitPath, workingDirectory string) (string, error) {
	if explicitPath != "" {
		if !filepath.IsAbs(explicitPath) && workingDirectory != "" {
			explicitPath = filepath.Join(workingDirectory, explicitPath)
		}
		if _, err := fsys.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("configuration %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	localPath := filepath.Join(workingDirectory, FileName)
	info, err := fsys.Stat(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("stat configuration %s: %w", localPath, err)
	case info.IsDir():
		return "", fmt.Errorf("configuration path %s is a directory", localPath)
	}
	return localPath, nil
}

// Validate checks enumerated settings and glob syntax.
func (s Settings) Validate() error {
	switch s.Format {
	case render.FormatText, render.FormatJSON, render.FormatYAML:
	default:
		return fmt.Errorf("%w: format %q (want %s, %s or %s)", ErrInvalidSetting, s.Format, render.FormatText, render.FormatJSON, render.FormatYAML)
	}
	switch s.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color %q (want %s, %s or %s)", ErrInvalidSetting, s.Color, ColorAuto, ColorAlways, ColorNever)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency %d is negative", ErrInvalidSetting, s.Concurrency)
	}
	return s.Options().Validate()
}

// TextOptions converts the settings into text renderer options. Color is
// resolved by the caller, which knows the output stream.
func (s Settings) TextOptions() render.TextOptions {
	return render.TextOptions{
		HideSizes:        s.NoSizes,
		DirectoriesFirst: s.DirsFirst,
	}
}

// Options converts the settings into traversal options.
func (s Settings) Options() dirtree.Options {
	opts := dirtree.Options{
		HideFiles:            s.HideFiles,
		HideEmptyDirectories: s.HideEmptyDirectories,
		IgnoreList:           append([]string(nil), s.Ignore...),
		IncludeOnly:          append([]string(nil), s.Include...),
		Concurrency:          s.Concurrency,
	}
	if s.Absolute {
		opts.PathMode = dirtree.PathModeAbsolute
	}
	return opts
}

var stringSliceType = reflect.TypeOf([]string(nil))

// patternListHook decodes a single string, such as an environment value,
// into a pattern list. Commas separate patterns only outside "{...}" and
// "[...]", so "*.{go,txt},vendor/" is two patterns.
func patternListHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != stringSliceType {
		return data, nil
	}
	return splitPatternList(data.(string)), nil
}

func splitPatternList(value string) []string {
	patterns := []string{}
	braces, inClass := 0, false
	start := 0
	flush := func(end int) {
		if pattern := strings.TrimSpace(value[start:end]); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '{':
			braces++
		case c == '}' && braces > 0:
			braces--
		case c == ',' && braces == 0:
			flush(i)
			start = i + 1
		}
	}
	flush(len(value))
	return patterns
}
