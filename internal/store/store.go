// Package store persists credentials and incident reports in a SQL database.
// SQLite (modernc.org/sqlite) is the default; PostgreSQL is reached through
// the pgx stdlib driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/couchcryptid/incident-report-service/internal/store/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect selects placeholder syntax and the migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "pgx"
)

// Store owns the database handle. It is created once at startup and closed at
// shutdown.
type Store struct {
	db          *sql.DB
	dialect     Dialect
	Credentials *CredentialRepository
	Reports     *ReportRepository
}

// Open connects to the database named by driver ("sqlite" or "pgx") and dsn,
// verifies the connection and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect := Dialect(driver)
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite allows one writer; a single connection also keeps an
		// in-memory database alive for the life of the handle.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := New(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

// New wraps an existing handle without running migrations.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:          db,
		dialect:     dialect,
		Credentials: NewCredentialRepository(db, dialect),
		Reports:     NewReportRepository(db, dialect),
	}
}

// Migrate applies the embedded migrations for the store's dialect and logs
// each applied version through the default slog logger.
func (s *Store) Migrate(ctx context.Context) error {
	dir, dialect := "sqlite", goose.DialectSQLite3
	if s.dialect == DialectPostgres {
		dir, dialect = "postgres", goose.DialectPostgres
	}
	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return err
	}
	logger := slog.Default().With("component", "migrate")
	provider, err := goose.NewProvider(dialect, s.db, fsys,
		goose.WithDisableGlobalRegistry(true),
		goose.WithLogger(gooseLogger{logger}),
	)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// gooseLogger routes goose's printf-style output to slog.
type gooseLogger struct{ l *slog.Logger }

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites '?' placeholders as $1, $2, ... for PostgreSQL.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
