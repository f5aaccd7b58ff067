package matrix

import (
	"database/sql"
	"encoding/binary"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache persists routing matrices in a local sqlite file so repeated runs on
// the same problem skip regenerating them. Load happens at initialization only.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS matrix_profiles (
    name      TEXT PRIMARY KEY,
    size      INTEGER NOT NULL,
    distances BLOB NOT NULL,
    durations BLOB NOT NULL,
    saved_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open matrix cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init matrix cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Load fetches a profile by name. The second return is false on a cache miss.
func (c *Cache) Load(name string) (*Profile, bool, error) {
	var size int
	var distBlob, durBlob []byte
	err := c.db.QueryRow(`SELECT size, distances, durations FROM matrix_profiles WHERE name = ?`, name).
		Scan(&size, &distBlob, &durBlob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	p, err := NewProfile(size, decodeTable(distBlob), decodeTable(durBlob))
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Store upserts a profile.
func (c *Cache) Store(name string, p *Profile) error {
	_, err := c.db.Exec(
		`INSERT INTO matrix_profiles (name, size, distances, durations) VALUES (?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET size=excluded.size, distances=excluded.distances, durations=excluded.durations, saved_at=CURRENT_TIMESTAMP`,
		name, p.Size, encodeTable(p.Distances), encodeTable(p.Durations))
	return err
}

func encodeTable(vals []int64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return buf
}

func decodeTable(buf []byte) []int64 {
	vals := make([]int64, len(buf)/8)
	for i := range vals {
		vals[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vals
}
