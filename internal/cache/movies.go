package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/adorostkar/gorate/internal/model"
)

// MovieCache stores looked-up movie metadata in SQLite so a rescan does not
// repeat the same API requests. Entries older than the TTL are ignored.
type MovieCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// DefaultPath is $XDG_CACHE_HOME/gorate/movies.db.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(dir, "gorate", "movies.db"), nil
}

func NewMovieCache(path string, ttl time.Duration) (*MovieCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create movie cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open movie cache: %w", err)
	}
	c := &MovieCache{db: db, ttl: ttl, now: time.Now}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *MovieCache) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS movie_info (
		title_key TEXT NOT NULL,
		year INTEGER NOT NULL,
		data TEXT NOT NULL,
		stored_utc INTEGER NOT NULL,
		PRIMARY KEY (title_key, year)
	)`)
	if err != nil {
		return fmt.Errorf("migrate movie cache: %w", err)
	}
	return nil
}

func (c *MovieCache) Close() error {
	return c.db.Close()
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Get returns the cached entry for title and year if it is younger than
// the TTL.
func (c *MovieCache) Get(ctx context.Context, title string, year int) (model.Movie, bool, error) {
	var (
		data   string
		stored int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT data, stored_utc FROM movie_info WHERE title_key = ? AND year = ?`,
		titleKey(title), year,
	).Scan(&data, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, false, nil
	}
	if err != nil {
		return model.Movie{}, false, fmt.Errorf("read movie cache: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(stored, 0)) >= c.ttl {
		return model.Movie{}, false, nil
	}

	var m model.Movie
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return model.Movie{}, false, fmt.Errorf("decode cached movie %q: %w", title, err)
	}
	return m, true, nil
}

// Store upserts m under the scanned title and year it was looked up with.
func (c *MovieCache) Store(ctx context.Context, title string, year int, m model.Movie) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode movie %q: %w", title, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO movie_info (title_key, year, data, stored_utc) VALUES (?, ?, ?, ?)
		ON CONFLICT(title_key, year) DO UPDATE SET data = excluded.data, stored_utc = excluded.stored_utc`,
		titleKey(title), year, string(data), c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write movie cache: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *MovieCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM movie_info WHERE stored_utc <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune movie cache: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of stored entries, expired or not.
func (c *MovieCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movie_info`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movie cache: %w", err)
	}
	return n, nil
}
