package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/domain"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Search(query string, docs []domain.Document, maxHits int) []domain.Hit {
	r.calls++
	return []domain.Hit{{Rank: 1, Score: 1, Chunk: domain.Chunk{SourceID: docs[0].ID, Text: query}}}
}

var docs = []domain.Document{{
	ID:               "d1",
	Title:            "Doc",
	Text:             "engine failure caused by overheating",
	Processed:        true,
	IncludeInContext: true,
}}

func TestCachedRetriever_HitsCache(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	first := r.Search("engine", docs, 6)
	second := r.Search("engine", docs, 6)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)

	r.Search("engine", docs, 3)
	assert.Equal(t, 2, inner.calls, "hit limit is part of the key")
}

func TestCachedRetriever_DocumentChangesMiss(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	r.Search("engine", docs, 6)

	edited := []domain.Document{docs[0]}
	edited[0].IncludeInContext = false
	r.Search("engine", edited, 6)

	edited[0].IncludeInContext = true
	edited[0].Text += " again"
	r.Search("engine", edited, 6)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedRetriever_ReturnsCopies(t *testing.T) {
	r := NewCachedRetriever(&countingRetriever{}, NewQueryCache(10, time.Minute))

	first := r.Search("engine", docs, 6)
	first[0].Rank = 99
	second := r.Search("engine", docs, 6)
	assert.Equal(t, 1, second[0].Rank)
}

func TestQueryCache_Expiry(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.put("k", []domain.Hit{{Rank: 1}})
	_, ok := c.get("k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)

	c.put("a", nil)
	c.put("b", nil)
	c.get("a")
	c.put("c", nil)

	_, okA := c.get("a")
	_, okB := c.get("b")
	_, okC := c.get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestQueryCache_Invalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.put("a", nil)
	c.Invalidate()
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_ConcurrentUseStaysBounded(t *testing.T) {
	c := NewQueryCache(2, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (g+i)%5)
				if _, ok := c.get(key); !ok {
					c.put(key, nil)
				}
			}
		}(g)
	}
	wg.Wait()

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.LessOrEqual(t, len(c.entries), 2)
	assert.Len(t, c.order, len(c.entries))
}
