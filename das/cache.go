package das

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/hepkit/hepkit/util/fsutil"
)

// queryBucket maps query key -> cachedResult
var queryBucket = []byte("das-queries")

type cachedResult struct {
	Fetched time.Time `json:"fetched"`
	Output  string    `json:"output"`
}

// Cache stores dasgoclient output in a BoltDB file.
type Cache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewCache opens (creating if needed) the cache database at path.
// Entries older than ttl are ignored.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := fsutil.EnsurePath(path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: time.Second * 5,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(queryBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached output for key, if present and fresh.
func (c *Cache) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	var res cachedResult
	found := false
	c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(queryBucket).Get([]byte(key))
		if b == nil {
			return nil
		}
		if err := json.Unmarshal(b, &res); err != nil {
			return nil
		}
		found = c.ttl <= 0 || c.now().Sub(res.Fetched) < c.ttl
		return nil
	})
	return res.Output, found
}

// Put stores output for key.
func (c *Cache) Put(key, output string) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(cachedResult{Fetched: c.now(), Output: output})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(queryBucket).Put([]byte(key), b)
	})
}

// Purge removes all cached entries.
func (c *Cache) Purge() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(queryBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(queryBucket)
		return err
	})
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
