package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/systmms/loginrotate/internal/logging"
	"github.com/systmms/loginrotate/pkg/password"
)

// CredentialValidator checks operator-supplied passwords against the policy
// the generator guarantees. Findings are advisory: the configured value is
// still used verbatim.
type CredentialValidator struct {
	logger    *logging.Logger
	minLength int
}

// NewCredentialValidator creates a new credential validator
func NewCredentialValidator(logger *logging.Logger) *CredentialValidator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CredentialValidator{
		logger:    logger,
		minLength: password.DefaultLength,
	}
}

// ValidationResult contains the result of a validation
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateNewCredential validates an explicit password before rotation.
// Only an empty value is invalid.
func (v *CredentialValidator) ValidateNewCredential(value string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "New password is empty")
		return result
	}

	if n := len([]rune(value)); n < v.minLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("New password has %d characters; generated passwords use %d", n, v.minLength))
	}

	if missing := missingClasses(value); len(missing) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("New password has no %s characters", strings.Join(missing, ", ")))
	}

	if strings.TrimFunc(value, unicode.IsSpace) != value {
		result.Warnings = append(result.Warnings, "New password starts or ends with whitespace")
	}

	v.logger.Debug("Validated new password %s: %d warning(s)", logging.Secret(value), len(result.Warnings))
	return result
}

// missingClasses uses Unicode categories rather than the generator's
// alphabets, so characters the generator avoids (I, O, l, 0, 1) still count.
func missingClasses(value string) []string {
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			special = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, password.ClassUpper.String())
	}
	if !lower {
		missing = append(missing, password.ClassLower.String())
	}
	if !digit {
		missing = append(missing, password.ClassDigit.String())
	}
	if !special {
		missing = append(missing, password.ClassSpecial.String())
	}
	return missing
}
