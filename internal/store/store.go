// Package store is the SQLite-backed data collaborator: it persists
// performance records and rating edges and serves them to the engine.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepcoach/internal/engine"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// pragmas are applied to every connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Store owns the database handle and hands out repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
	now func() time.Time
}

// Open connects to the SQLite database at dsn, applies the pragmas and
// creates the tables.
func Open(dsn string) (*Store, error) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(ctx, drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(ctx, db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, seq: seq, now: time.Now}, nil
}

// withPragmas appends the connection pragmas to dsn in the form the
// modernc driver understands.
func withPragmas(dsn string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Records returns the performance record repository.
func (s *Store) Records() *RecordRepo {
	return &RecordRepo{drv: s.drv, seq: s.seq, now: s.now}
}

// Ratings returns the rating edge repository.
func (s *Store) Ratings() *RatingRepo {
	return &RatingRepo{drv: s.drv, seq: s.seq, now: s.now}
}

// Source returns the store as the engine's data source.
func (s *Store) Source() engine.DataSource {
	return source{records: s.Records(), ratings: s.Ratings()}
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PREPCOACH_DB environment variable
// 2. $XDG_DATA_HOME/prepcoach/prepcoach.db
// 3. ~/.local/share/prepcoach/prepcoach.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PREPCOACH_DB"); p != "" {
		return p, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "prepcoach", "prepcoach.db"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
