package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

const pgUniqueViolation = "23505"

// Querier is the read/write surface shared by *sqlx.DB, *sqlx.Conn and *sqlx.Tx.
// Queries are written with '?' placeholders and passed through Rebind.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	Rebind(query string) string
}

// DB wraps a sqlx pool for SQLite or Postgres.
type DB struct {
	Client *sqlx.DB
	driver string
}

// Open connects to the database and verifies the connection. For SQLite the
// dsn is a file path; WAL, a busy timeout and foreign keys are enabled unless
// the caller passes its own query string.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		path, _, _ := strings.Cut(dsn, "?")
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create db dir")
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
		}
	case DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping db")
	}
	return &DB{Client: db, driver: driver}, nil
}

// Driver returns the database/sql driver name in use.
func (d *DB) Driver() string { return d.driver }

// Healthy reports whether the pool can reach the database.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Session is one pooled connection held for a single unit of work.
type Session struct {
	*sqlx.Conn
}

// WithSession checks a connection out of the pool, hands it to fn and returns
// it to the pool on every exit path.
func (d *DB) WithSession(ctx context.Context, fn func(*Session) error) error {
	conn, err := d.Client.Connx(ctx)
	if err != nil {
		return errors.Wrap(err, "open session")
	}
	defer conn.Close()
	return fn(&Session{Conn: conn})
}

// InTx runs fn inside a transaction on the session's connection. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Session) InTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// IsUniqueViolation reports whether err came from a unique index rejecting a row.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
