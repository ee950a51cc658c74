package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a CacheStore backed by a map.
type memoryStore struct {
	mu   sync.Mutex
	rows map[string]Metadata
	gets int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[string]Metadata)}
}

func (s *memoryStore) GetByISBN13(_ context.Context, isbn13 string) (Metadata, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	m, ok := s.rows[isbn13]
	return m, ok, nil
}

func (s *memoryStore) Upsert(_ context.Context, m Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[m.ISBN13] = m
	return nil
}

func TestLRUCacheReadsThrough(t *testing.T) {
	inner := newMemoryStore()
	inner.rows["9780306406157"] = Metadata{Candidate: Candidate{ISBN13: "9780306406157", Title: "Cosmos"}}

	c, err := NewLRUCache(inner, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		m, ok, err := c.GetByISBN13(context.Background(), "9780306406157")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Cosmos", m.Title)
	}
	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, 1, c.Len())

	_, ok, err := c.GetByISBN13(context.Background(), "9791000000008")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCacheUpsertReplacesEntry(t *testing.T) {
	inner := newMemoryStore()
	c, err := NewLRUCache(inner, 2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, Metadata{Candidate: Candidate{ISBN13: "9780306406157", Title: "old"}}))
	require.NoError(t, c.Upsert(ctx, Metadata{Candidate: Candidate{ISBN13: "9780306406157", Title: "new"}}))

	m, ok, err := c.GetByISBN13(ctx, "9780306406157")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", m.Title)
	assert.Equal(t, 0, inner.gets)
	assert.Len(t, inner.rows, 1)
}

func TestLRUCacheEvicts(t *testing.T) {
	inner := newMemoryStore()
	c, err := NewLRUCache(inner, 1)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, Metadata{Candidate: Candidate{ISBN13: "9780306406157"}}))
	require.NoError(t, c.Upsert(ctx, Metadata{Candidate: Candidate{ISBN13: "9791000000008"}}))
	assert.Equal(t, 1, c.Len())

	_, ok, err := c.GetByISBN13(ctx, "9780306406157")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, inner.gets)
}

func TestLRUCacheDropsEntryWhenInnerWriteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockCacheStore(ctrl)
	c, err := NewLRUCache(inner, 4)
	require.NoError(t, err)

	ctx := context.Background()
	m := Metadata{Candidate: Candidate{ISBN13: "9780306406157", Title: "Cosmos"}}

	inner.EXPECT().Upsert(gomock.Any(), m).Return(nil)
	require.NoError(t, c.Upsert(ctx, m))
	assert.Equal(t, 1, c.Len())

	inner.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	assert.Error(t, c.Upsert(ctx, m))
	assert.Equal(t, 0, c.Len())
}

func TestNewLRUCacheRejectsBadSize(t *testing.T) {
	_, err := NewLRUCache(newMemoryStore(), 0)
	assert.Error(t, err)
}
