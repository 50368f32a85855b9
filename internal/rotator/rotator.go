package rotator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/systmms/loginrotate/internal/config"
	"github.com/systmms/loginrotate/internal/credential"
	dserrors "github.com/systmms/loginrotate/internal/errors"
	"github.com/systmms/loginrotate/internal/logging"
	"github.com/systmms/loginrotate/internal/metrics"
	"github.com/systmms/loginrotate/internal/secure"
	"github.com/systmms/loginrotate/internal/validation"
	"github.com/systmms/loginrotate/pkg/password"
)

// CredentialUpdater changes a login's password on the server.
type CredentialUpdater interface {
	ValidateLogin(login string) error
	UpdateLoginPassword(ctx context.Context, target credential.Target, login, newPassword string) (*credential.Result, error)
}

// PasswordGenerator produces random passwords. *password.Generator satisfies it.
type PasswordGenerator interface {
	GenerateBytes(length int) ([]byte, error)
}

// Request is everything one run needs. It is built once from settings and
// consumed by a single Run.
type Request struct {
	ConnectionTarget string
	Provider         string
	LoginName        string
	GeneratePassword bool
	NewPassword      string
	PasswordLength   int
	LoginHost        string
}

// FromSettings builds a Request from loaded configuration.
func FromSettings(s config.Settings) Request {
	return Request{
		ConnectionTarget: s.ConnectionString,
		Provider:         s.Provider,
		LoginName:        s.LoginToUpdate,
		GeneratePassword: s.GenerateRandomPassword,
		NewPassword:      s.NewPassword,
		PasswordLength:   s.PasswordLength,
		LoginHost:        s.LoginHost,
	}
}

// Validate checks the request invariants.
func (r Request) Validate() error {
	var missing []string
	if r.ConnectionTarget == "" {
		missing = append(missing, config.KeyConnection)
	}
	if r.LoginName == "" {
		missing = append(missing, config.KeyLogin)
	}
	if len(missing) > 0 {
		return &dserrors.MissingConfigError{Keys: missing}
	}

	if !r.GeneratePassword && r.NewPassword == "" {
		return &dserrors.MissingPasswordError{Key: config.KeyNewPassword}
	}
	return nil
}

// Rotator validates a request, resolves the password, applies it and
// reports the outcome on its output writer.
type Rotator struct {
	updater   CredentialUpdater
	generator PasswordGenerator
	logger    *logging.Logger
	metrics   *metrics.Recorder
	out       io.Writer
	dryRun    bool
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithGenerator replaces the crypto/rand backed generator.
func WithGenerator(g PasswordGenerator) Option {
	return func(r *Rotator) { r.generator = g }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Rotator) { r.logger = l }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Rotator) { r.metrics = m }
}

// WithOutput sets where status lines are printed (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(r *Rotator) { r.out = w }
}

// WithDryRun validates and prints the statement without connecting.
func WithDryRun(dryRun bool) Option {
	return func(r *Rotator) { r.dryRun = dryRun }
}

// New creates a Rotator around updater.
func New(updater CredentialUpdater, opts ...Option) *Rotator {
	r := &Rotator{
		updater:   updater,
		generator: password.New(),
		logger:    logging.Discard(),
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one rotation. Failures are reported on the output writer
// and returned so the caller can pick an exit status.
func (r *Rotator) Run(ctx context.Context, req Request) error {
	if err := r.rotate(ctx, req); err != nil {
		Report(r.out, err)
		return err
	}
	return nil
}

func (r *Rotator) rotate(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	dialect, err := credential.ResolveDialect(req.Provider, req.ConnectionTarget)
	if err != nil {
		return dserrors.ConfigError{
			Field:      config.KeyProvider,
			Value:      req.Provider,
			Message:    "unsupported database provider",
			Suggestion: "Use sqlserver, postgres, pgx or mysql",
			Err:        err,
		}
	}
	if err := credential.CheckDescriptor(dialect, req.ConnectionTarget); err != nil {
		return dserrors.ConfigError{
			Field:      config.KeyConnection,
			Message:    "connection string is malformed",
			Suggestion: fmt.Sprintf("Check the %s connection string syntax", dialect.ServerName()),
			Err:        errors.New(logging.Redact(err.Error(), []string{req.ConnectionTarget})),
		}
	}
	if err := r.updater.ValidateLogin(req.LoginName); err != nil {
		return err
	}
	r.logger.Debug("Rotating login %q on %s", req.LoginName, dialect.ServerName())

	pw, err := r.resolvePassword(req)
	if err != nil {
		return err
	}
	defer pw.Destroy()
	r.logger.Debug("Resolved a %d character password", pw.Len())

	target := credential.Target{
		Descriptor: req.ConnectionTarget,
		Dialect:    dialect,
		LoginHost:  req.LoginHost,
	}

	if r.dryRun {
		return r.printDryRun(target, req.LoginName)
	}

	start := time.Now()
	var result *credential.Result
	err = pw.Use(func(plaintext []byte) error {
		var err error
		result, err = r.updater.UpdateLoginPassword(ctx, target, req.LoginName, string(plaintext))
		return err
	})
	if err != nil {
		r.metrics.RecordRotation(string(dialect), metrics.StatusFailed, time.Since(start))
		if hint := dserrors.ConnectionSuggestion(dserrors.Cause(err)); hint != "" {
			r.logger.Warn("%s", hint)
		}
		return err
	}
	elapsed := time.Since(start)
	if result != nil && result.Duration > 0 {
		elapsed = result.Duration
	}
	r.metrics.RecordRotation(string(dialect), metrics.StatusSuccess, elapsed)
	r.logger.Debug("Password change on %s took %s", dialect.ServerName(), elapsed)

	fmt.Fprintf(r.out, "Password for SQL login '%s' has been successfully updated.\n", req.LoginName)
	if req.GeneratePassword {
		return pw.Use(func(plaintext []byte) error {
			fmt.Fprintf(r.out, "New generated password: %s\n", plaintext)
			fmt.Fprintln(r.out, "Make sure to securely store this password!")
			return nil
		})
	}
	return nil
}

func (r *Rotator) resolvePassword(req Request) (*secure.Password, error) {
	if !req.GeneratePassword {
		result := validation.NewCredentialValidator(r.logger).ValidateNewCredential(req.NewPassword)
		for _, w := range result.Warnings {
			r.logger.Warn("%s", w)
		}
		return secure.SealString(req.NewPassword), nil
	}

	length := req.PasswordLength
	if length == 0 {
		length = password.DefaultLength
	}
	generated, err := r.generator.GenerateBytes(length)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordGenerated()
	return secure.Seal(generated), nil
}

func (r *Rotator) printDryRun(target credential.Target, login string) error {
	stmt, err := credential.Statement(target.Dialect, login, target.LoginHost, logging.Secret("").String())
	if err != nil {
		return err
	}
	r.metrics.RecordRotation(string(target.Dialect), metrics.StatusDryRun, 0)

	fmt.Fprintf(r.out, "Dry run: would execute on %s:\n", target.Dialect.ServerName())
	fmt.Fprintf(r.out, "  %s\n", stmt)
	return nil
}

// Report prints err and, when present, its direct cause.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if cause := dserrors.Cause(err); cause != nil {
		fmt.Fprintf(w, "Caused by: %v\n", cause)
	}
}
