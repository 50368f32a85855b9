package credential

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	dserrors "github.com/systmms/loginrotate/internal/errors"
)

// DefaultLoginPattern is the identifier allow-list applied to login names.
const DefaultLoginPattern = `^[A-Za-z0-9_]+$`

var defaultLoginRegexp = regexp.MustCompile(DefaultLoginPattern)

// CompileLoginPattern compiles a configured allow-list. An empty expression
// yields the default pattern.
func CompileLoginPattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return defaultLoginRegexp, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, dserrors.ConfigError{
			Field:      "SqlSettings:LoginPattern",
			Value:      expr,
			Message:    "invalid regular expression",
			Suggestion: "Use Go regexp syntax, for example " + DefaultLoginPattern,
			Err:        err,
		}
	}
	return re, nil
}

// EscapeQuotes doubles every single quote so s stays inside a '...' literal.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Statement builds the administrative statement that sets login's password.
//
// Logins are identifiers and cannot be bound as parameters in any of the
// supported dialects, so values are quoted into the text. Quote doubling is
// a mitigation only; callers validate login against an allow-list first.
func Statement(d Dialect, login, host, newPassword string) (string, error) {
	switch d {
	case SQLServer:
		name := strings.ReplaceAll(EscapeQuotes(login), "]", "]]")
		return fmt.Sprintf("ALTER LOGIN [%s] WITH PASSWORD = '%s'", name, EscapeQuotes(newPassword)), nil
	case Postgres, PGX:
		return fmt.Sprintf("ALTER ROLE %s WITH PASSWORD %s", pq.QuoteIdentifier(login), pq.QuoteLiteral(newPassword)), nil
	case MySQL:
		if host == "" {
			host = "%"
		}
		return fmt.Sprintf("ALTER USER '%s'@'%s' IDENTIFIED BY '%s'",
			escapeMySQL(login), escapeMySQL(host), escapeMySQL(newPassword)), nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// MySQL treats backslash as an escape inside string literals by default.
func escapeMySQL(s string) string {
	return EscapeQuotes(strings.ReplaceAll(s, `\`, `\\`))
}
