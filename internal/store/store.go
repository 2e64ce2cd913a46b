// Package store persists firms and their evaluation documents. Each firm owns
// one ScoresData document; edits touch one factor at a time and always hand
// back the whole updated document.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/schema"
)

// Backend names a supported database.
type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
	MySQL    Backend = "mysql"
)

// ParseBackend accepts the common spellings of each backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported database backend %q", s)
	}
}

func (b Backend) driverName() string {
	switch b {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// Config selects and tunes the database.
type Config struct {
	Backend Backend
	// DSN is a file path for sqlite, a connection string otherwise.
	DSN string
	// PingRetries bounds the exponential backoff while waiting for the server.
	PingRetries uint64
}

// Store is the SQL-backed evaluation store.
type Store struct {
	db      *sql.DB
	backend Backend
	schema  *schema.Schema
	logger  logging.Logger
	now     func() time.Time
}

// Open connects, waits for the database to answer, runs migrations and
// returns a ready Store. The Store owns the connection.
func Open(ctx context.Context, cfg Config, sch *schema.Schema, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	db, err := Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Backend == "" {
		cfg.Backend = SQLite
	}
	if err := Migrate(ctx, db, cfg.Backend, -1, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, cfg.Backend, sch, logger)
}

// Connect opens the configured database and waits until it answers. It does
// not migrate.
func Connect(ctx context.Context, cfg Config, logger logging.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.Backend == "" {
		cfg.Backend = SQLite
	}
	dsn := cfg.DSN
	if cfg.Backend == SQLite {
		if dsn == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(cfg.Backend.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Backend, err)
	}
	if cfg.Backend == SQLite {
		// One writer avoids "database is locked" under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	if err := pingWithBackoff(ctx, db, cfg, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", cfg.Backend, err)
	}
	return db, nil
}

// New wraps an already migrated database.
func New(db *sql.DB, backend Backend, sch *schema.Schema, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if sch == nil {
		return nil, fmt.Errorf("schema is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		db:      db,
		backend: backend,
		schema:  sch,
		logger:  logger.With(logging.Field{Key: "component", Value: "store"}),
		now:     time.Now,
	}, nil
}

// Schema returns the schema documents are validated against.
func (s *Store) Schema() *schema.Schema { return s.schema }

// Backend reports which database is in use.
func (s *Store) Backend() Backend { return s.backend }

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func pingWithBackoff(ctx context.Context, db *sql.DB, cfg Config, logger logging.Logger) error {
	retries := cfg.PingRetries
	if cfg.Backend == SQLite {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	return backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, b, func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying",
			logging.Field{Key: "backend", Value: string(cfg.Backend)},
			logging.Field{Key: "wait", Value: wait.String()},
			logging.Err(err))
	})
}

// sqliteDSN appends the pragmas every connection should run with.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// rebind rewrites ? placeholders for backends that number them.
func (s *Store) rebind(query string) string {
	if s.backend != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

func (s *Store) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		s.logger.Warn("tx rollback failed", logging.Err(err))
	}
}
