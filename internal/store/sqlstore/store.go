// Package sqlstore implements store.Store on database/sql for SQLite, MySQL
// and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/profilehue/profilehue-server/internal/store"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var (
	//go:embed schema_sqlite.sql
	schemaSQLite string
	//go:embed schema_mysql.sql
	schemaMySQL string
	//go:embed schema_postgres.sql
	schemaPostgres string
)

// timeLayout is fixed width so that string comparison in SQL orders the
// same as time comparison.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Config selects the driver and data source.
type Config struct {
	Driver string
	DSN    string // File path for sqlite
}

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	name        string
	schema      string
	pragmas     []string
	numbered    bool // $1, $2 placeholders instead of ?
	upsertStart string
	upsertSet   func(col string) string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:   DriverSQLite,
		schema: schemaSQLite,
		pragmas: []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA busy_timeout=5000",
		},
		upsertStart: "ON CONFLICT(handle) DO UPDATE SET ",
		upsertSet:   func(col string) string { return col + " = excluded." + col },
	},
	DriverMySQL: {
		name:        DriverMySQL,
		schema:      schemaMySQL,
		upsertStart: "ON DUPLICATE KEY UPDATE ",
		upsertSet:   func(col string) string { return col + " = VALUES(" + col + ")" },
	},
	DriverPostgres: {
		name:        DriverPostgres,
		schema:      schemaPostgres,
		numbered:    true,
		upsertStart: "ON CONFLICT(handle) DO UPDATE SET ",
		upsertSet:   func(col string) string { return col + " = excluded." + col },
	},
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// upsert returns the conflict clause that overwrites cols for an existing handle.
func (d dialect) upsert(cols []string) string {
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = d.upsertSet(col)
	}
	return d.upsertStart + strings.Join(sets, ", ")
}

// Store provides SQL-backed persistence for analyses.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to the database, configures it and applies the schema.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s: empty DSN", cfg.Driver)
	}

	db, err := sql.Open(d.name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}

	if d.name == DriverSQLite {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)
	}
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range d.pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	for _, stmt := range splitStatements(d.schema) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("database opened", "driver", d.name)

	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.ErrUnavailable.WithCause(err)
	}
	return nil
}

// Driver returns the name of the driver in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// splitStatements splits a schema file on ";" and drops empty statements.
// Schema files must not contain ";" inside literals.
func splitStatements(schema string) []string {
	parts := strings.Split(schema, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			stmts = append(stmts, p)
		}
	}
	return stmts
}

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
