package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aryankumar/batchrun/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settingsFile is set by --config
var settingsFile string

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "batchrun",
		Short: "batchrun - run batches of work items concurrently",
		Long: `batchrun executes a batch of independent work items under a chosen
concurrency strategy (cooperative, threads, processes or pipeline) with a
bounded number of items in flight. Every item gets exactly one outcome, in
submission order, whether it succeeds or fails.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(); err != nil {
				return err
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"), viper.GetBool("no-color")))
			if f := viper.ConfigFileUsed(); f != "" {
				slog.Debug("loaded settings", "file", f)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "config", "", "settings file (default is $HOME/.batchrun.yaml)")
	flags.StringP("output", "o", "", "output format (json, yaml, table)")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output and log as JSON")
	flags.Duration("timeout", 0, "deadline passed to payloads (0 means none)")
	flags.IntP("parallel", "p", 5, "maximum number of items in flight")

	for _, name := range []string{"output", "verbose", "no-color", "timeout", "parallel"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newCompletionCmd(),
		newRunCmd(),
		newInitCmd(),
		newWorkerCmd(),
	)

	return rootCmd
}

// loadSettings reads the optional settings file and BATCHRUN_* environment
// variables into viper. A missing default settings file is not an error.
func loadSettings() error {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".batchrun")
	}

	viper.SetEnvPrefix("BATCHRUN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read settings file: %w", err)
		}
	}
	return nil
}

// newLogger builds the process logger: text on w by default, JSON when
// jsonOutput is set, debug level when verbose
func newLogger(w io.Writer, verbose, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// skipInit replaces the root PersistentPreRunE for commands that must not
// read settings or reconfigure logging
func skipInit(cmd *cobra.Command, args []string) error {
	return nil
}
