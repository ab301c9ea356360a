// Package cache keeps LLM analyses in a local SQLite file so repeated
// requests for the same page do not call the model again.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Options configures the analysis cache.
type Options struct {
	// TTL is how long an analysis stays valid. Zero keeps entries forever.
	TTL time.Duration

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

func DefaultOptions() Options {
	return Options{
		TTL:       7 * 24 * time.Hour,
		EnableWAL: true,
	}
}

// SQLiteCache stores analyses keyed by page URL and model name.
type SQLiteCache struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string, opts Options) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	c := &SQLiteCache{db: db, path: path, ttl: opts.TTL, now: time.Now}
	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		url TEXT NOT NULL,
		model TEXT NOT NULL,
		analysis TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (url, model)
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	`
	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the cached analysis. A miss or an expired entry is reported
// with ok=false and no error.
func (c *SQLiteCache) Get(ctx context.Context, url, model string) (string, bool, error) {
	var (
		analysis  string
		createdAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT analysis, created_at FROM analyses WHERE url = ? AND model = ?`,
		url, model,
	).Scan(&analysis, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read analysis: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(0, createdAt)) > c.ttl {
		return "", false, nil
	}
	return analysis, true, nil
}

// Put stores or replaces the analysis.
func (c *SQLiteCache) Put(ctx context.Context, url, model, analysis string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO analyses (url, model, analysis, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url, model) DO UPDATE SET
			analysis = excluded.analysis,
			created_at = excluded.created_at
	`, url, model, analysis, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *SQLiteCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).UnixNano()
	res, err := c.db.ExecContext(ctx, `DELETE FROM analyses WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune analyses: %w", err)
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) Path() string {
	return c.path
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
