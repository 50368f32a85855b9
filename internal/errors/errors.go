package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/loginrotate/pkg/password"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// MissingConfigError is returned when the connection target or the login
// name is absent from configuration.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	msg := "Connection string or login name is missing in configuration"
	if len(e.Keys) > 0 {
		msg += fmt.Sprintf(" (missing: %s)", strings.Join(e.Keys, ", "))
	}
	return msg
}

// MissingPasswordError is returned when random generation is disabled and
// no explicit password was configured.
type MissingPasswordError struct {
	Key string
}

func (e *MissingPasswordError) Error() string {
	msg := "New password is not specified in configuration and random generation is disabled"
	if e.Key != "" {
		msg += fmt.Sprintf(" (set %s or enable random generation)", e.Key)
	}
	return msg
}

// UpdateFailedError wraps any connection or execution failure while
// changing a login's password.
type UpdateFailedError struct {
	Login string
	Err   error
}

func (e *UpdateFailedError) Error() string {
	if e.Login == "" {
		return "Failed to update login password"
	}
	return fmt.Sprintf("Failed to update password for SQL login '%s'", e.Login)
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Err
}

// InvalidLengthError is raised by the password generator.
type InvalidLengthError = password.InvalidLengthError

// Cause returns the error directly wrapped by err, or nil.
// Only one level is reported to the user.
func Cause(err error) error {
	if err == nil {
		return nil
	}
	return errors.Unwrap(err)
}

// IsMissingConfig reports whether err is, or wraps, a MissingConfigError.
func IsMissingConfig(err error) bool {
	var target *MissingConfigError
	return errors.As(err, &target)
}

// IsMissingPassword reports whether err is, or wraps, a MissingPasswordError.
func IsMissingPassword(err error) bool {
	var target *MissingPasswordError
	return errors.As(err, &target)
}

// IsUpdateFailed reports whether err is, or wraps, an UpdateFailedError.
func IsUpdateFailed(err error) bool {
	var target *UpdateFailedError
	return errors.As(err, &target)
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	switch err.(type) {
	case UserError, ConfigError, *MissingConfigError, *MissingPasswordError, *UpdateFailedError, *InvalidLengthError:
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "invalid character") || strings.Contains(errStr, "unexpected end of JSON") {
		return ConfigError{
			Message:    "Invalid JSON format",
			Suggestion: "Check for trailing commas and unquoted keys",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}

// ConnectionSuggestion returns a hint for common database failures, or "".
func ConnectionSuggestion(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "login failed"), strings.Contains(errStr, "authentication failed"),
		strings.Contains(errStr, "access denied"):
		return "Check the credentials in the connection string"
	case strings.Contains(errStr, "permission"), strings.Contains(errStr, "must be superuser"),
		strings.Contains(errStr, "not have permission"):
		return "The connecting principal needs ALTER ANY LOGIN (SQL Server), CREATEROLE (PostgreSQL) or CREATE USER (MySQL)"
	case strings.Contains(errStr, "does not exist"), strings.Contains(errStr, "not found"),
		strings.Contains(errStr, "cannot alter the login"):
		return "Verify the login exists on the server"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "The operation timed out. Check your network connection and try again"
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "no such host"):
		return "Unable to connect. Check the server address in the connection string"
	}
	return ""
}
