package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
)

// ErrMiss is returned by Get when no fresh entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Entry describes a cached tree listing.
type Entry struct {
	Key        string    `json:"key"`
	Provider   string    `json:"provider"`
	Target     string    `json:"target"`
	SHA        string    `json:"sha"`
	EntryCount int       `json:"entry_count"`
	Truncated  bool      `json:"truncated"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Cache stores fetched tree payloads in sqlite.
type Cache struct {
	db      *sql.DB
	dataDir string
	now     func() time.Time
}

// Open opens (creating if needed) the cache database in dataDir.
func Open(dataDir string) (*Cache, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "trees.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	c := &Cache{
		db:      db,
		dataDir: dataDir,
		now:     time.Now,
	}

	if err := c.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	return c, nil
}

// init creates the database schema
func (c *Cache) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tree_cache (
		key TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		target TEXT NOT NULL,
		sha TEXT,
		payload TEXT NOT NULL,
		entry_count INTEGER NOT NULL,
		truncated BOOLEAN NOT NULL DEFAULT 0,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tree_cache_provider ON tree_cache(provider);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Put stores payload under key, replacing any previous entry.
func (c *Cache) Put(key, provider, target string, payload *codebase.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO tree_cache (key, provider, target, sha, payload, entry_count, truncated, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.Exec(query, key, provider, target, payload.SHA, string(data), len(payload.Tree), payload.Truncated, c.now().UTC())
	return err
}

// Get returns the payload cached under key. Entries older than maxAge are
// treated as missing; maxAge <= 0 accepts any age.
func (c *Cache) Get(key string, maxAge time.Duration) (*codebase.Payload, error) {
	var data string
	var fetchedAt time.Time
	err := c.db.QueryRow(`SELECT payload, fetched_at FROM tree_cache WHERE key = ?`, key).Scan(&data, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	if maxAge > 0 && c.now().Sub(fetchedAt) > maxAge {
		return nil, ErrMiss
	}

	var payload codebase.Payload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal cached payload: %w", err)
	}
	return &payload, nil
}

// List returns all cached entries, most recent first.
func (c *Cache) List() ([]*Entry, error) {
	query := `
	SELECT key, provider, target, sha, entry_count, truncated, fetched_at
	FROM tree_cache ORDER BY fetched_at DESC
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		e := &Entry{}
		var sha sql.NullString
		if err := rows.Scan(&e.Key, &e.Provider, &e.Target, &sha, &e.EntryCount, &e.Truncated, &e.FetchedAt); err != nil {
			return nil, err
		}
		e.SHA = sha.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	_, err := c.db.Exec(`DELETE FROM tree_cache WHERE key = ?`, key)
	return err
}

// Clear removes every entry and reports how many were removed.
func (c *Cache) Clear() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM tree_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (c *Cache) Close() error {
	return c.db.Close()
}
