package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"dirtree/pkg/config"
	"dirtree/pkg/dirtree"
	"dirtree/pkg/ignore"
	"dirtree/pkg/render"
)

// flagKeys maps tree flags to configuration keys.
var flagKeys = map[string]string{
	"hide-files":      config.KeyHideFiles,
	"hide-empty-dirs": config.KeyHideEmptyDirectories,
	"ignore":          config.KeyIgnore,
	"include":         config.KeyInclude,
	"absolute":        config.KeyAbsolute,
	"format":          config.KeyFormat,
	"concurrency":     config.KeyConcurrency,
	"async":           config.KeyAsync,
	"ignore-file":     config.KeyIgnoreFile,
	"discover-ignore": config.KeyDiscoverIgnore,
	"output":          config.KeyOutput,
	"color":           config.KeyColor,
	"no-sizes":        config.KeyNoSizes,
	"dirs-first":      config.KeyDirsFirst,
}

func newTreeCommand(env *Environment) *cobra.Command {
	v := config.New(env.Fs)

	treeCmd := &cobra.Command{
		Use:   "tree [paths...]",
		Short: "Print the tree of one or more directories",
		Long: `Walk each path and print the resulting tree. When several paths are given
their trees are merged; entries from later paths win on name collisions.`,
		Example: `  dirtree tree
  dirtree tree ./src --ignore '*/vendor/' --include '*.go' --format json
  dirtree tree /srv/www /usr/local/www --hide-empty-dirs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("error reading flags: %w", err)
			}
			settings, err := config.Load(v, env.Fs, configPath, env.WorkingDirectory)
			if err != nil {
				return err
			}
			return runTree(cmd.Context(), env, cmd.OutOrStdout(), args, settings)
		},
	}

	flags := treeCmd.Flags()
	flags.Bool("hide-files", false, "Omit files, keeping only directories")
	flags.Bool("hide-empty-dirs", false, "Omit directories left without children")
	flags.StringArrayP("ignore", "i", nil, "Glob of paths to skip (repeatable)")
	flags.StringArray("include", nil, "Glob a file path must match to be kept (repeatable)")
	flags.String("ignore-file", "", "File with one ignore glob per line")
	flags.Bool("discover-ignore", false, "Load "+ignore.DefaultFileName+" files from each path and its parents")
	flags.Bool("absolute", false, "Report absolute paths")
	flags.Bool("async", false, "Traverse a single path concurrently")
	flags.Int("concurrency", 0, "Bound on concurrent filesystem calls (0 uses the CPU count)")
	flags.StringP("format", "f", render.FormatText, "Output format: text, json or yaml")
	flags.StringP("output", "o", "", "Write the tree to this file instead of stdout")
	flags.String("color", config.ColorAuto, "Colorize text output: auto, always or never")
	flags.Bool("no-sizes", false, "Omit sizes from text output")
	flags.Bool("dirs-first", false, "List directories before files in text output")

	bindFlags(v, flags)
	return treeCmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

func runTree(ctx context.Context, env *Environment, out io.Writer, paths []string, settings config.Settings) error {
	logger := env.Logger
	startTime := time.Now()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	opts := settings.Options()
	patterns, err := loadIgnorePatterns(env, paths, settings)
	if err != nil {
		return err
	}
	opts.IgnoreList = append(opts.IgnoreList, patterns...)
	logger.Debug("Resolved tree options",
		zap.Strings("paths", paths),
		zap.Int("ignorePatterns", len(opts.IgnoreList)),
		zap.Int("includePatterns", len(opts.IncludeOnly)),
		zap.Stringer("pathMode", opts.PathMode),
	)

	builder := dirtree.NewBuilder(dirtree.NewFileSystem(env.Fs), logger)
	var tree *dirtree.Item
	switch {
	case len(paths) > 1:
		tree, err = builder.BuildAll(ctx, paths, opts)
	case settings.Async:
		tree, err = builder.BuildAsync(ctx, paths[0], opts)
	default:
		tree, err = builder.Build(paths[0], opts)
	}
	if err != nil {
		return fmt.Errorf("failed to build tree: %w", err)
	}
	if tree == nil {
		logger.Warn("Every path was filtered out", zap.Strings("paths", paths))
	}

	files, directories := tree.Count()
	logger.Debug("Built tree",
		zap.Int("files", files),
		zap.Int("directories", directories),
		zap.Duration("duration", time.Since(startTime)),
	)

	textOpts := settings.TextOptions()
	textOpts.Color = useColor(settings.Color, settings.Output, out)
	if settings.Output == "" {
		return render.Render(out, tree, settings.Format, textOpts)
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, tree, settings.Format, textOpts); err != nil {
		return err
	}
	if err := render.WriteFile(env.Fs, settings.Output, buf.Bytes(), logger); err != nil {
		return err
	}
	logger.Info("Successfully wrote tree",
		zap.String("outputFile", settings.Output),
		zap.String("format", settings.Format),
		zap.Int("files", files),
		zap.Int("directories", directories),
	)
	return nil
}

// loadIgnorePatterns returns the patterns of the explicit ignore file
// followed by those of discovered files, each file loaded once.
func loadIgnorePatterns(env *Environment, paths []string, settings config.Settings) ([]string, error) {
	loader := ignore.NewLoader(env.Fs, env.Logger)
	var files []string
	seen := make(map[string]struct{})
	add := func(file string) {
		if _, ok := seen[file]; ok {
			return
		}
		seen[file] = struct{}{}
		files = append(files, file)
	}

	if settings.IgnoreFile != "" {
		add(settings.IgnoreFile)
	}
	if settings.DiscoverIgnore {
		for _, path := range paths {
			discovered, err := loader.Discover(path, ignore.DefaultFileName)
			if err != nil {
				return nil, fmt.Errorf("failed to discover ignore files: %w", err)
			}
			for _, file := range discovered {
				add(file)
			}
		}
	}
	if len(files) == 0 {
		return nil, nil
	}

	patterns, err := loader.LoadAll(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}
	return patterns, nil
}

// useColor resolves the color mode. Auto colors only a terminal stdout.
func useColor(mode, output string, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if output != "" || color.NoColor {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
