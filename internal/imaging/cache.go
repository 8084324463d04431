package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Cache stores derived bytes by key. A miss is reported with ok=false and a
// nil error.
type Cache interface {
	Get(key string) (data []byte, f Format, ok bool, err error)
	Put(key string, data []byte, f Format) error
}

// BadgerCache is a Cache backed by a badger key-value store.
type BadgerCache struct {
	db *badger.DB
}

// OpenBadgerCache opens (or creates) a cache in dir. An empty dir opens an
// in-memory store.
func OpenBadgerCache(dir string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open derivative cache: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

// value layout: format name, a zero byte, encoded image bytes.
func encodeValue(data []byte, f Format) []byte {
	out := make([]byte, 0, len(f)+1+len(data))
	out = append(out, f...)
	out = append(out, 0)
	return append(out, data...)
}

func decodeValue(v []byte) ([]byte, Format, error) {
	i := bytes.IndexByte(v, 0)
	if i < 0 {
		return nil, "", errors.New("corrupt cache entry")
	}
	f, err := ParseFormat(string(v[:i]))
	if err != nil {
		return nil, "", err
	}
	return v[i+1:], f, nil
}

// Get returns the cached derivative for key.
func (c *BadgerCache) Get(key string) ([]byte, Format, bool, error) {
	var (
		data []byte
		f    Format
	)
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			d, ff, err := decodeValue(val)
			if err != nil {
				return err
			}
			data = append([]byte(nil), d...)
			f = ff
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return data, f, true, nil
}

// Put stores a derivative under key.
func (c *BadgerCache) Put(key string, data []byte, f Format) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeValue(data, f))
	})
}

// Close closes the underlying store.
func (c *BadgerCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// CacheKey identifies the derivative of an original at a height.
func CacheKey(key string, height int) string {
	return key + ":" + strconv.Itoa(height)
}

// CachedDeriver memoizes another Deriver through a Cache. Cache failures are
// logged and fall through to a fresh derivation.
type CachedDeriver struct {
	next  Deriver
	cache Cache
}

// NewCachedDeriver wraps next with cache.
func NewCachedDeriver(next Deriver, cache Cache) *CachedDeriver {
	return &CachedDeriver{next: next, cache: cache}
}

// Derive returns a cached derivative when present, otherwise derives and stores it.
func (d *CachedDeriver) Derive(ctx context.Context, key string, original []byte, height int) ([]byte, Format, error) {
	ck := CacheKey(key, height)
	logger := zerolog.Ctx(ctx)

	data, f, ok, err := d.cache.Get(ck)
	if err != nil {
		logger.Warn().Err(err).Str("cache_key", ck).Msg("derivative cache read failed")
	}
	if ok {
		return data, f, nil
	}

	data, f, err = d.next.Derive(ctx, key, original, height)
	if err != nil {
		return nil, "", err
	}
	if err := d.cache.Put(ck, data, f); err != nil {
		logger.Warn().Err(err).Str("cache_key", ck).Msg("derivative cache write failed")
	}
	return data, f, nil
}
