package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/loginrotate/internal/errors"
	"github.com/systmms/loginrotate/pkg/password"
)

func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Details: Connection timeout")
	assert.Contains(t, errMsg, "Try: Check network connectivity")
}

func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "SqlSettings:GenerateRandomPassword",
		Value:      "maybe",
		Message:    "value is not a boolean",
		Suggestion: "Use true or false",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "SqlSettings:GenerateRandomPassword")
	assert.Contains(t, errMsg, "maybe")
	assert.Contains(t, errMsg, "value is not a boolean")
	assert.Contains(t, errMsg, "Use true or false")
}

func TestMissingConfigError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("validate: %w", &errors.MissingConfigError{Keys: []string{"SqlSettings:LoginToUpdate"}})

	assert.True(t, errors.IsMissingConfig(err))
	assert.False(t, errors.IsMissingPassword(err))
	assert.Contains(t, err.Error(), "login name is missing")
	assert.Contains(t, err.Error(), "SqlSettings:LoginToUpdate")
}

func TestMissingPasswordError(t *testing.T) {
	t.Parallel()

	err := &errors.MissingPasswordError{Key: "SqlSettings:NewPassword"}

	assert.True(t, errors.IsMissingPassword(err))
	assert.Contains(t, err.Error(), "random generation is disabled")
	assert.Contains(t, err.Error(), "SqlSettings:NewPassword")
}

func TestUpdateFailedErrorCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("login not found")
	err := &errors.UpdateFailedError{Login: "app_user", Err: cause}

	assert.True(t, errors.IsUpdateFailed(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to update password for SQL login 'app_user'", err.Error())
	assert.Equal(t, cause, errors.Cause(err))
}

func TestCauseIsOneLevel(t *testing.T) {
	t.Parallel()

	root := stderrors.New("root")
	mid := fmt.Errorf("mid: %w", root)
	top := &errors.UpdateFailedError{Login: "app_user", Err: mid}

	assert.Equal(t, mid, errors.Cause(top))
	assert.Nil(t, errors.Cause(root))
	assert.Nil(t, errors.Cause(nil))
}

func TestInvalidLengthAlias(t *testing.T) {
	t.Parallel()

	_, err := password.Generate(2)

	var target *errors.InvalidLengthError
	require.True(t, stderrors.As(err, &target))
	assert.Equal(t, 2, target.Length)
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"nil stays nil", nil, ""},
		{"yaml", fmt.Errorf("parse: %w", stderrors.New("yaml: line 3: mapping values are not allowed")), "Invalid YAML format"},
		{"json", stderrors.New("invalid character '}' looking for beginning of object key string"), "Invalid JSON format"},
		{"permission", stderrors.New("open appsettings.json: permission denied"), "Permission denied"},
		{"typed error kept", &errors.MissingPasswordError{}, "random generation is disabled"},
		{"unknown kept", stderrors.New("something else"), "something else"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.SimplifyError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Contains(t, got.Error(), tt.contains)
		})
	}
}

func TestConnectionSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		contains string
	}{
		{stderrors.New("mssql: Login failed for user 'sa'."), "credentials"},
		{stderrors.New("pq: role \"ghost\" does not exist"), "login exists"},
		{stderrors.New("Error 1227: Access denied; you need the CREATE USER privilege"), "credentials"},
		{stderrors.New("pq: must be superuser to alter superuser roles"), "CREATEROLE"},
		{stderrors.New("dial tcp 10.0.0.1:1433: connect: connection refused"), "server address"},
		{stderrors.New("context deadline exceeded"), "timed out"},
	}

	for _, tt := range tests {
		assert.Contains(t, errors.ConnectionSuggestion(tt.err), tt.contains, tt.err.Error())
	}
	assert.Empty(t, errors.ConnectionSuggestion(stderrors.New("weird")))
	assert.Empty(t, errors.ConnectionSuggestion(nil))
}
