package fetch

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// Cache stores page bodies in a sqlite file, keyed by URL, with a TTL.
type Cache struct {
	db  *sql.DB
	TTL time.Duration
	now func() time.Time
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, TTL: ttl, now: time.Now}, nil
}

// Get returns the cached body for url. Expired entries are removed and
// reported as missing.
func (c *Cache) Get(url string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64
	err := c.db.QueryRow(`SELECT body, fetched_at FROM responses WHERE url = ?`, url).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}

	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.TTL {
		if _, err := c.db.Exec(`DELETE FROM responses WHERE url = ?`, url); err != nil {
			return nil, false, fmt.Errorf("evicting cache entry: %w", err)
		}
		return nil, false, nil
	}

	return body, true, nil
}

// Set stores body for url, replacing any previous entry.
func (c *Cache) Set(url string, body []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO responses (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *Cache) CleanExpired() (int, error) {
	cutoff := c.now().Add(-c.TTL).Unix()
	res, err := c.db.Exec(`DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleaning cache: %w", err)
	}
	return int(n), nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM responses`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Size returns the number of cached entries
func (c *Cache) Size() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
