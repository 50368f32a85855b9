package credential

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/microsoft/go-mssqldb/msdsn"

	// database/sql drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
)

// Dialect selects the driver and the ALTER statement syntax.
type Dialect string

const (
	SQLServer Dialect = "sqlserver"
	Postgres  Dialect = "postgres"
	PGX       Dialect = "pgx"
	MySQL     Dialect = "mysql"
)

// provider names accepted in configuration
var dialectMap = map[string]Dialect{
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        PGX,
	"mysql":      MySQL,
	"mariadb":    MySQL,
}

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	return string(d)
}

// ServerName is the product name used in status output.
func (d Dialect) ServerName() string {
	switch d {
	case SQLServer:
		return "SQL Server"
	case Postgres, PGX:
		return "PostgreSQL"
	case MySQL:
		return "MySQL"
	default:
		return string(d)
	}
}

// ParseDialect maps a provider name from configuration to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialectMap[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(dialectMap))
		for k := range dialectMap {
			names = append(names, k)
		}
		sort.Strings(names)
		return "", fmt.Errorf("unsupported database provider %q (supported: %s)", name, strings.Join(names, ", "))
	}
	return d, nil
}

// InferDialect guesses the dialect from the shape of a connection descriptor.
// ADO-style "Server=...;" strings and anything unrecognized map to SQL Server.
func InferDialect(descriptor string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(descriptor))

	switch {
	case strings.HasPrefix(lower, "sqlserver://"):
		return SQLServer
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("), strings.Contains(lower, "@/"):
		return MySQL
	case strings.Contains(lower, "host=") && !strings.Contains(lower, ";"):
		return Postgres
	default:
		return SQLServer
	}
}

// ResolveDialect uses provider when set and falls back to inference.
func ResolveDialect(provider, descriptor string) (Dialect, error) {
	if strings.TrimSpace(provider) != "" {
		return ParseDialect(provider)
	}
	return InferDialect(descriptor), nil
}

// CheckDescriptor parses the descriptor with the driver's own parser so a
// malformed string is reported before any network traffic.
func CheckDescriptor(d Dialect, descriptor string) error {
	var err error
	switch d {
	case SQLServer:
		_, err = msdsn.Parse(descriptor)
	case Postgres:
		lower := strings.ToLower(descriptor)
		if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
			_, err = pq.ParseURL(descriptor)
		}
	case PGX:
		_, err = pgx.ParseConfig(descriptor)
	case MySQL:
		_, err = mysql.ParseDSN(descriptor)
	default:
		return fmt.Errorf("unsupported dialect %q", d)
	}
	if err != nil {
		return fmt.Errorf("invalid %s connection string: %w", d.ServerName(), err)
	}
	return nil
}
