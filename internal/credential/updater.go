package credential

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	dserrors "github.com/systmms/loginrotate/internal/errors"
	"github.com/systmms/loginrotate/internal/logging"
)

// Target describes where the login lives.
type Target struct {
	// Descriptor is the driver connection string. It carries the admin
	// credentials and is never logged.
	Descriptor string
	Dialect    Dialect

	// LoginHost is the account host part for MySQL ('login'@'host').
	LoginHost string
}

// Result reports a successful password change.
type Result struct {
	Success  bool
	Login    string
	Dialect  Dialect
	Duration time.Duration
}

// Opener opens a database handle. sql.Open satisfies it.
type Opener func(driverName, dataSourceName string) (*sql.DB, error)

// Updater changes a login's password with a single statement.
type Updater struct {
	logger       *logging.Logger
	open         Opener
	loginPattern *regexp.Regexp
}

// Option configures an Updater.
type Option func(*Updater)

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(open Opener) Option {
	return func(u *Updater) {
		u.open = open
	}
}

// WithLoginPattern replaces the default identifier allow-list.
func WithLoginPattern(re *regexp.Regexp) Option {
	return func(u *Updater) {
		if re != nil {
			u.loginPattern = re
		}
	}
}

// NewUpdater creates an Updater using sql.Open and the default allow-list.
func NewUpdater(logger *logging.Logger, opts ...Option) *Updater {
	if logger == nil {
		logger = logging.Discard()
	}
	u := &Updater{
		logger:       logger,
		open:         sql.Open,
		loginPattern: defaultLoginRegexp,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ValidateLogin checks login against the allow-list.
func (u *Updater) ValidateLogin(login string) error {
	if !u.loginPattern.MatchString(login) {
		return dserrors.ConfigError{
			Field:      "SqlSettings:LoginToUpdate",
			Value:      login,
			Message:    fmt.Sprintf("login name does not match the allowed pattern %s", u.loginPattern),
			Suggestion: "Use letters, digits and underscores, or widen SqlSettings:LoginPattern",
		}
	}
	return nil
}

// UpdateLoginPassword connects to target and sets login's password to
// newPassword. The handle is closed before returning on every path. Nothing
// is retried and nothing is rolled back.
func (u *Updater) UpdateLoginPassword(ctx context.Context, target Target, login, newPassword string) (*Result, error) {
	if err := u.ValidateLogin(login); err != nil {
		return nil, err
	}

	stmt, err := Statement(target.Dialect, login, target.LoginHost, newPassword)
	if err != nil {
		return nil, &dserrors.UpdateFailedError{Login: login, Err: err}
	}

	start := time.Now()

	db, err := u.open(target.Dialect.DriverName(), target.Descriptor)
	if err != nil {
		return nil, &dserrors.UpdateFailedError{
			Login: login,
			Err:   fmt.Errorf("failed to open database connection: %w", err),
		}
	}
	defer func() { _ = db.Close() }()

	// Exactly one statement per run; no pool needed.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, &dserrors.UpdateFailedError{
			Login: login,
			Err:   fmt.Errorf("failed to connect to database: %w", err),
		}
	}
	u.logger.Info("Connected to %s successfully.", target.Dialect.ServerName())
	u.logger.Debug("Executing password change for login %q with password %s", login, logging.Secret(newPassword))

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return nil, &dserrors.UpdateFailedError{
			Login: login,
			Err:   fmt.Errorf("failed to execute password change: %w", err),
		}
	}

	return &Result{
		Success:  true,
		Login:    login,
		Dialect:  target.Dialect,
		Duration: time.Since(start),
	}, nil
}
