package lookup

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache keeps recently resolved records in memory in front of another
// CacheStore. The inner store stays the source of truth.
type LRUCache struct {
	inner CacheStore
	items *lru.Cache[string, Metadata]
}

func NewLRUCache(inner CacheStore, size int) (*LRUCache, error) {
	items, err := lru.New[string, Metadata](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUCache{inner: inner, items: items}, nil
}

func (c *LRUCache) GetByISBN13(ctx context.Context, isbn13 string) (Metadata, bool, error) {
	if m, ok := c.items.Get(isbn13); ok {
		return m, true, nil
	}
	m, ok, err := c.inner.GetByISBN13(ctx, isbn13)
	if err != nil || !ok {
		return m, ok, err
	}
	c.items.Add(isbn13, m)
	return m, true, nil
}

func (c *LRUCache) Upsert(ctx context.Context, m Metadata) error {
	if err := c.inner.Upsert(ctx, m); err != nil {
		c.items.Remove(m.ISBN13)
		return err
	}
	c.items.Add(m.ISBN13, m)
	return nil
}

func (c *LRUCache) Len() int {
	return c.items.Len()
}
