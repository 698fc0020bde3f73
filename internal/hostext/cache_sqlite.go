package hostext

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// CacheDB is the single-file backend of the precompiled-bytecode cache
// (spec §6 "Persisted state"): one sqlite database holding every
// module's serialized artifact, keyed by module name plus source hash —
// the same key CacheManifest uses for the directory-of-files layout.
// It uses modernc.org/sqlite, the teacher's own cgo-free SQLite driver
// (a direct go.mod dependency reached through its ext build-plugin
// surface rather than imported by the teacher's core), through the
// standard database/sql interface. An embedder picks whichever layout
// suits its deployment: a cache directory a build system can inspect
// file by file (CacheManifest), or one artifact database it can ship
// whole (CacheDB).
type CacheDB struct {
	db *sql.DB
}

// OpenCacheDB opens (creating if needed) the artifact database at path.
func OpenCacheDB(path string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS modules (
		name        TEXT NOT NULL,
		source_hash TEXT NOT NULL,
		bytecode    BLOB NOT NULL,
		PRIMARY KEY (name, source_hash)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache db: %w", err)
	}
	return &CacheDB{db: db}, nil
}

// Put stores (or replaces) a module's serialized artifact. artifact is
// the byte stream compiler.Serialize produced; the cache never inspects
// it.
func (c *CacheDB) Put(module, sourceHash string, artifact []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO modules (name, source_hash, bytecode) VALUES (?, ?, ?)`,
		module, sourceHash, artifact)
	if err != nil {
		return fmt.Errorf("cache db: put %s@%s: %w", module, sourceHash, err)
	}
	return nil
}

// Get fetches a module's cached artifact. A miss (the module was never
// cached, or was cached under a different source hash) is reported via
// the bool, not as an error.
func (c *CacheDB) Get(module, sourceHash string) ([]byte, bool, error) {
	row := c.db.QueryRow(
		`SELECT bytecode FROM modules WHERE name = ? AND source_hash = ?`,
		module, sourceHash)
	var blob []byte
	switch err := row.Scan(&blob); err {
	case nil:
		return blob, true, nil
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("cache db: get %s@%s: %w", module, sourceHash, err)
	}
}

// Close releases the underlying database handle.
func (c *CacheDB) Close() error { return c.db.Close() }
