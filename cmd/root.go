package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dirtree/pkg/logging"
	"dirtree/pkg/version"
)

// Environment carries the process collaborators shared by every command.
type Environment struct {
	Logger           *zap.Logger
	Level            *zap.AtomicLevel // Adjusted by --debug; nil leaves the level alone.
	Fs               afero.Fs
	WorkingDirectory string
}

// NewRootCommand is the base command when called without any subcommands.
func NewRootCommand(env *Environment) *cobra.Command {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Fs == nil {
		env.Fs = afero.NewOsFs()
	}

	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: "dirtree prints filtered directory trees",
		Long: `dirtree walks one or more directories and prints the resulting tree as
text, JSON or YAML. Files and directories can be hidden, ignored by glob, or
limited to an include list; several roots are merged into one tree.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("error reading flags: %w", err)
			}
			if env.Level != nil {
				logging.SetDebug(*env.Level, debug)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a configuration file (default ./.dirtree.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newTreeCommand(env))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command against the host filesystem. It is
// cancelled on interrupt.
func Execute(logger *zap.Logger, level *zap.AtomicLevel) error {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &Environment{
		Logger:           logger,
		Level:            level,
		Fs:               afero.NewOsFs(),
		WorkingDirectory: workingDirectory,
	}
	return NewRootCommand(env).ExecuteContext(ctx)
}
