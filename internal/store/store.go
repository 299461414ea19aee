package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bisa-app/factcheck/internal/model"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no matching result exists
	ErrNotFound = errors.New("fact-check not found")

	// ErrPendingExists is returned by Create when the post already has a PENDING run
	ErrPendingExists = errors.New("pending fact-check already exists for post")

	// ErrNotPending is returned by Finish when the run is missing or already final
	ErrNotPending = errors.New("fact-check is not pending")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ResultStore persists fact-check runs. History is append-only; the latest
// pointer only ever moves to a COMPLETED run.
type ResultStore interface {
	// Create inserts a PENDING run. At most one PENDING run may exist per post.
	Create(ctx context.Context, r *model.FactCheckResult) error

	// Finish moves a PENDING run to its final state. A COMPLETED run
	// becomes the post's latest result in the same step.
	Finish(ctx context.Context, r *model.FactCheckResult) error

	// Latest returns the most recent COMPLETED run
	Latest(ctx context.Context, postID string) (*model.FactCheckResult, error)

	// History returns runs of any status, newest first. Pages start at 0.
	History(ctx context.Context, postID string, page, size int) ([]*model.FactCheckResult, error)

	// Pending returns the post's PENDING run
	Pending(ctx context.Context, postID string) (*model.FactCheckResult, error)

	Close() error
}

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg model.StoreConfig) (ResultStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil

	case "sqlite":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("open store: sqlite requires a dsn")
		}
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// One writer avoids SQLITE_BUSY under concurrent runs
		db.SetMaxOpenConns(1)
		return openSQL(ctx, db, DialectSQLite)

	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("open store: postgres requires a dsn")
		}
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return openSQL(ctx, db, DialectPostgres)

	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: memory, sqlite, postgres)", cfg.Driver)
	}
}

func openSQL(ctx context.Context, db *sql.DB, dialect Dialect) (ResultStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// normalizePage clamps paging arguments to sane values
func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
