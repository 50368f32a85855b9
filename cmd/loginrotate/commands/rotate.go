package commands

import (
	"context"
	"database/sql"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/loginrotate/internal/config"
	"github.com/systmms/loginrotate/internal/credential"
	"github.com/systmms/loginrotate/internal/metrics"
	"github.com/systmms/loginrotate/internal/rotator"
	"github.com/systmms/loginrotate/pkg/password"
)

// openDatabase is swapped out in tests.
var openDatabase credential.Opener = sql.Open

// ReportedError marks an error that has already been printed to the
// operator, so main only has to set the exit status.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string {
	return e.Err.Error()
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}

type rotateOptions struct {
	dryRun        bool
	timeout       time.Duration
	metricsFile   string
	legacyShuffle bool
}

func (o *rotateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Validate settings and print the statement without connecting")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Deadline for the database round trip (0 uses the driver default)")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file for the node_exporter textfile collector")
	cmd.Flags().BoolVar(&o.legacyShuffle, "legacy-shuffle", false, "Shuffle generated passwords with the selection bytes instead of fresh randomness")
}

// NewRotateCommand creates the rotate command.
func NewRotateCommand(cfg *config.Config) *cobra.Command {
	opts := &rotateOptions{}

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Change the configured login's password",
		Long: `Change the password of SqlSettings:LoginToUpdate on the server named by
ConnectionStrings:SqlConnection.

When SqlSettings:GenerateRandomPassword is true a 16 character password is
generated and printed once; it is not stored anywhere. Otherwise
SqlSettings:NewPassword is used.

Any setting can be overridden from the environment, for example
LOGINROTATE_SqlSettings__NewPassword.

Examples:
  loginrotate rotate
  loginrotate rotate --config prod.yaml --timeout 30s
  loginrotate rotate --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRotate(cmd, cfg, opts)
		},
	}
	opts.bind(cmd)

	return cmd
}

// BindRotate makes parent run a rotation when invoked without a subcommand.
func BindRotate(parent *cobra.Command, cfg *config.Config) {
	opts := &rotateOptions{}
	opts.bind(parent)
	parent.Args = cobra.NoArgs
	parent.RunE = func(cmd *cobra.Command, args []string) error {
		return runRotate(cmd, cfg, opts)
	}
}

func runRotate(cmd *cobra.Command, cfg *config.Config, opts *rotateOptions) error {
	out := cmd.OutOrStdout()

	if err := cfg.Load(); err != nil {
		rotator.Report(out, err)
		return &ReportedError{Err: err}
	}
	settings, err := cfg.Settings()
	if err != nil {
		rotator.Report(out, err)
		return &ReportedError{Err: err}
	}

	// Missing settings outrank a bad login pattern.
	req := rotator.FromSettings(settings)
	if err := req.Validate(); err != nil {
		rotator.Report(out, err)
		return &ReportedError{Err: err}
	}

	pattern, err := credential.CompileLoginPattern(settings.LoginPattern)
	if err != nil {
		rotator.Report(out, err)
		return &ReportedError{Err: err}
	}

	updater := credential.NewUpdater(cfg.Logger,
		credential.WithOpener(openDatabase),
		credential.WithLoginPattern(pattern),
	)

	var genOpts []password.Option
	if opts.legacyShuffle {
		genOpts = append(genOpts, password.WithLegacyShuffle())
	}

	recorder := metrics.New()
	r := rotator.New(updater,
		rotator.WithOutput(out),
		rotator.WithLogger(cfg.Logger),
		rotator.WithMetrics(recorder),
		rotator.WithGenerator(password.New(genOpts...)),
		rotator.WithDryRun(opts.dryRun),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	runErr := r.Run(ctx, req)

	if opts.metricsFile != "" {
		if err := recorder.WriteTextfile(opts.metricsFile); err != nil {
			cfg.Logger.Warn("Failed to write metrics to %s: %v", opts.metricsFile, err)
		} else {
			cfg.Logger.Debug("Wrote metrics to %s", opts.metricsFile)
		}
	}

	if runErr != nil {
		return &ReportedError{Err: runErr}
	}
	return nil
}
