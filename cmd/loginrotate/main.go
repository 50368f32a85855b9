package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/loginrotate/cmd/loginrotate/commands"
	"github.com/systmms/loginrotate/internal/config"
	dserrors "github.com/systmms/loginrotate/internal/errors"
	"github.com/systmms/loginrotate/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()

	if err := run(); err != nil {
		// Rotation failures have already been printed for the operator.
		var reported *commands.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		}
		memguard.Purge()
		os.Exit(1)
	}
	memguard.Purge()
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "loginrotate",
		Short: "Rotate a database login's password",
		Long: `loginrotate reads a connection string and a login name from appsettings.json,
sets a new password for that login (configured or randomly generated) with a
single ALTER statement, and reports the result.

Running loginrotate without a subcommand is the same as 'loginrotate rotate'.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Settings file path (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	commands.BindRotate(rootCmd, cfg)

	rootCmd.AddCommand(
		commands.NewRotateCommand(cfg),
		commands.NewGenerateCommand(cfg),
		commands.NewInitCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
