package texture2c

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/Decompollaborate/texture2c/buffer"
)

// Cache stores encoded textures keyed by the SHA-1 of the source image and
// the settings that affect the encoded bytes. Compressed entries hold Yaz0
// data.
type Cache struct {
	db *sql.DB
}

// NewCache opens or creates the cache database at file.
func NewCache(file string) (*Cache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS texture (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, format TEXT NOT NULL, resize_w INTEGER NOT NULL, resize_h INTEGER NOT NULL, compressed INTEGER NOT NULL, data BLOB NOT NULL, tlut BLOB, UNIQUE(sha1, format, resize_w, resize_h, compressed))"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cache: create table")
	}

	return &Cache{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached result for sum encoded with cfg, or nil if there
// is none.
func (c *Cache) Get(sum string, cfg Config) (*Result, error) {
	var data, tlut []byte
	switch err := c.db.QueryRow("SELECT data, tlut FROM texture WHERE sha1 = ? AND format = ? AND resize_w = ? AND resize_h = ? AND compressed = ?", sum, cfg.Format.String(), cfg.Resize.X, cfg.Resize.Y, cfg.Compress).Scan(&data, &tlut); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		r := &Result{Texture: new(buffer.Buffer)}
		if err := r.Texture.UnmarshalBinary(data); err != nil {
			return nil, errors.Wrap(err, "cache: texture")
		}
		if len(tlut) > 0 {
			r.TLUT = new(buffer.Buffer)
			if err := r.TLUT.UnmarshalBinary(tlut); err != nil {
				return nil, errors.Wrap(err, "cache: tlut")
			}
		}
		return r, nil
	default:
		return nil, errors.Wrap(err, "cache: query")
	}
}

// Put stores r as the result of encoding sum with cfg.
func (c *Cache) Put(sum string, cfg Config, r *Result) error {
	data, err := r.Texture.MarshalBinary()
	if err != nil {
		return err
	}

	var tlut []byte
	if r.TLUT != nil {
		if tlut, err = r.TLUT.MarshalBinary(); err != nil {
			return err
		}
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO texture (sha1, format, resize_w, resize_h, compressed, data, tlut) VALUES (?, ?, ?, ?, ?, ?, ?)", sum, cfg.Format.String(), cfg.Resize.X, cfg.Resize.Y, cfg.Compress, data, tlut); err != nil {
		return errors.Wrap(err, "cache: insert")
	}

	return nil
}
