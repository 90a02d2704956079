// Package cli implements the loxkit command tree.
//
// Each subcommand lives in its own file and is registered on the root
// command here. The global flags (--workspace, --json, --verbose) are
// persistent, so every subcommand sees them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loxkit/internal/config"
	"loxkit/internal/log"
)

// Global flag values bound to the root command's persistent flags.
var (
	workspaceFlag string
	jsonOutput    bool
	verbose       bool
)

// version is stamped at build time via ldflags.
var version = "dev"

// NewRootCommand builds the loxkit command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loxkit",
		Short: "Lox front end and workspace catalog",
		Long: `loxkit parses Lox source into lossless syntax trees and keeps a
searchable catalog of the declarations in a workspace.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "workspace root (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// Flag parse failures are usage errors, not runtime failures
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	rootCmd.AddCommand(NewReplCommand())
	rootCmd.AddCommand(NewTokensCommand())
	rootCmd.AddCommand(NewTreeCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewIndexCommand())
	rootCmd.AddCommand(NewSearchCommand())
	rootCmd.AddCommand(NewSymbolsCommand())
	rootCmd.AddCommand(NewSessionsCommand())

	return rootCmd
}

// configureLogging picks the log level as flag > environment > user config.
func configureLogging() {
	level := os.Getenv("LOXKIT_LOG_LEVEL")
	if level == "" {
		if mgr, err := config.NewManager(); err == nil {
			if cfg, err := mgr.Load(); err == nil {
				level = cfg.LogLevel
			}
		}
	}
	if verbose {
		level = "debug"
	}
	log.Configure(log.Config{Level: level})
}

// Execute runs the command tree and maps errors to exit codes.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		var cliErr *CLIError
		if errors.As(err, &cliErr) {
			if msg := cliErr.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
			}
			os.Exit(int(cliErr.Code))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readSource loads the single optional file argument, or stdin when absent.
// The returned name is used in diagnostic positions.
func readSource(cmd *cobra.Command, args []string) (src, name string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}
