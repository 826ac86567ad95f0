// Package store persists users, sessions, progress, review items, locks,
// challenges and question reports in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/logger"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	log *logger.Logger
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func Open(dsn string) (*Store, error) {
	return OpenWithLogger(dsn, nil)
}

// OpenWithLogger is Open with a logger for recoverable read problems.
func OpenWithLogger(dsn string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, drv: drv, log: log.With("component", "store")}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Users returns the user profile repository.
func (s *Store) Users() *UserRepo { return &UserRepo{db: s.db} }

// Progress returns the per-unit progress repository.
func (s *Store) Progress() *ProgressRepo { return &ProgressRepo{db: s.db} }

// Sessions returns the session store.
func (s *Store) Sessions() *SessionRepo { return &SessionRepo{db: s.db, log: s.log} }

// Reviews returns the review queue repository.
func (s *Store) Reviews() *ReviewRepo { return &ReviewRepo{db: s.db} }

// Locks returns the administrator lock repository.
func (s *Store) Locks() *LockRepo { return &LockRepo{db: s.db} }

// Invites returns the challenge repository.
func (s *Store) Invites() *InviteRepo { return &InviteRepo{db: s.db} }

// Flags returns the question report repository.
func (s *Store) Flags() *FlagRepo { return &FlagRepo{db: s.db} }

// applyPragmas configures SQLite for a single-process server.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// builder returns a SQLite statement builder.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// exec runs a built statement.
func exec(ctx context.Context, db execer, q interface{ Query() (string, []any) }) (sql.Result, error) {
	query, args := q.Query()
	return db.ExecContext(ctx, query, args...)
}

// inTx runs fn in a transaction, rolling back on error.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return tx.Commit()
}

// DefaultDBPath resolves the database file path in priority order:
// 1. CASSINI_DB environment variable
// 2. $XDG_DATA_HOME/cassini/cassini.db
// 3. ~/.local/share/cassini/cassini.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("CASSINI_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "cassini", "cassini.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
