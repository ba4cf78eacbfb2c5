package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/storage/database"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of entries kept by the read cache when the
// caller does not pick one.
const DefaultCacheSize = 4096

// Base is the committed ledger state, backed by a key-value database with an
// LRU read cache in front of it. Writes only happen through Commit.
type Base struct {
	db database.DB

	mu    sync.RWMutex
	cache *lru.Cache[[keylet.KeySize]byte, []byte]

	hits   uint64
	misses uint64
}

// CacheStats reports read cache effectiveness.
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// NewBase wraps db. A non-positive cacheSize selects DefaultCacheSize.
func NewBase(db database.DB, cacheSize int) (*Base, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[keylet.KeySize]byte, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Base{db: db, cache: cache}, nil
}

func cacheKey(k keylet.Keylet) [keylet.KeySize]byte {
	var ck [keylet.KeySize]byte
	copy(ck[:], k.Bytes())
	return ck
}

// Read returns the committed entry at k, or (nil, nil) when absent.
func (b *Base) Read(ctx context.Context, k keylet.Keylet) ([]byte, error) {
	ck := cacheKey(k)

	b.mu.Lock()
	if data, ok := b.cache.Get(ck); ok {
		b.hits++
		b.mu.Unlock()
		return data, nil
	}
	b.misses++
	b.mu.Unlock()

	data, err := b.db.Read(ctx, k.Bytes())
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", k.Type, err)
	}

	b.mu.Lock()
	b.cache.Add(ck, data)
	b.mu.Unlock()
	return data, nil
}

// Exists reports whether an entry is committed at k.
func (b *Base) Exists(ctx context.Context, k keylet.Keylet) (bool, error) {
	data, err := b.Read(ctx, k)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// ForEach calls fn for every committed entry of type t in key order until
// fn returns false.
func (b *Base) ForEach(ctx context.Context, t keylet.Type, fn func(k keylet.Keylet, data []byte) bool) error {
	start, end := keylet.Range(t)
	it, err := b.db.Iterator(ctx, start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		k, ok := keylet.FromBytes(it.Key())
		if !ok {
			continue
		}
		if !fn(k, it.Value()) {
			break
		}
	}
	return it.Error()
}

// Commit writes changes as one atomic batch and refreshes the cache.
// Cache-only changes are skipped.
func (b *Base) Commit(ctx context.Context, changes []Change) error {
	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		switch c.Action {
		case ActionInsert, ActionModify:
			ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: c.Keylet.Bytes(), Value: c.Data})
		case ActionErase:
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: c.Keylet.Bytes()})
		}
	}
	if len(ops) == 0 {
		return nil
	}

	if err := b.db.Batch(ctx, ops); err != nil {
		// the batch may or may not have landed; drop anything we cached
		b.mu.Lock()
		for _, c := range changes {
			b.cache.Remove(cacheKey(c.Keylet))
		}
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	for _, c := range changes {
		switch c.Action {
		case ActionInsert, ActionModify:
			b.cache.Add(cacheKey(c.Keylet), c.Data)
		case ActionErase:
			b.cache.Remove(cacheKey(c.Keylet))
		}
	}
	b.mu.Unlock()
	return nil
}

// Stats returns read cache counters.
func (b *Base) Stats() CacheStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return CacheStats{Size: b.cache.Len(), Hits: b.hits, Misses: b.misses}
}

// Reader returns a Reader over committed state bound to ctx.
func (b *Base) Reader(ctx context.Context) Reader {
	return committed{ctx: ctx, base: b}
}

type committed struct {
	ctx  context.Context
	base *Base
}

func (c committed) Read(k keylet.Keylet) ([]byte, error) {
	return c.base.Read(c.ctx, k)
}

func (c committed) Exists(k keylet.Keylet) (bool, error) {
	return c.base.Exists(c.ctx, k)
}
