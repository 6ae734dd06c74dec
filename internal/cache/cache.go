// Package cache stores per-file line counts in SQLite so unchanged files
// can be skipped on the next run.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/chmouel/sniffy/internal/model"
)

// Entry is a cached classification result.
type Entry struct {
	Language string
	Stats    model.FileStats
}

// Cache is a SQLite backed result cache. It is safe for concurrent use.
type Cache struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, dbPath: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	_, err := c.db.Exec(`
	CREATE TABLE IF NOT EXISTS file_stats (
		path TEXT NOT NULL,
		mode TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime_ns INTEGER NOT NULL,
		language TEXT NOT NULL,
		blank INTEGER NOT NULL,
		comment INTEGER NOT NULL,
		code INTEGER NOT NULL,
		PRIMARY KEY (path, mode)
	);`)
	return err
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the entry for path in the given classification mode. It
// misses when the file size or modification time changed since Put.
func (c *Cache) Get(path, mode string, size, mtimeNS int64) (Entry, bool, error) {
	var (
		e            Entry
		cSize, cTime int64
	)
	err := c.db.QueryRow(
		`SELECT size, mtime_ns, language, blank, comment, code FROM file_stats WHERE path = ? AND mode = ?`,
		path, mode,
	).Scan(&cSize, &cTime, &e.Language, &e.Stats.Blank, &e.Stats.Comment, &e.Stats.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache lookup %s: %w", path, err)
	}
	if cSize != size || cTime != mtimeNS {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put stores the entry for path.
func (c *Cache) Put(path, mode string, size, mtimeNS int64, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO file_stats (path, mode, size, mtime_ns, language, blank, comment, code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		path, mode, size, mtimeNS, e.Language, e.Stats.Blank, e.Stats.Comment, e.Stats.Code,
	)
	if err != nil {
		return fmt.Errorf("cache store %s: %w", path, err)
	}
	return nil
}

// Prune deletes entries whose path is not in seen and returns how many
// rows were removed.
func (c *Cache) Prune(seen map[string]bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT DISTINCT path FROM file_stats`)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("cache prune: %w", err)
		}
		if !seen[p] {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	removed := 0
	for _, p := range stale {
		res, err := tx.Exec(`DELETE FROM file_stats WHERE path = ?`, p)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("cache prune %s: %w", p, err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return removed, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM file_stats`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
