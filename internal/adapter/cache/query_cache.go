package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"cortex/internal/domain"
	"cortex/internal/port"
)

// QueryCache is an LRU of search results with a time to live.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	hits      []domain.Hit
	timestamp time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey hashes the query, the hit limit and everything about the
// documents that can change a ranking.
func cacheKey(query string, maxHits int, docs []domain.Document) string {
	h := sha256.New()
	var n [8]byte
	writeString := func(s string) {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	writeString(query)
	binary.BigEndian.PutUint64(n[:], uint64(maxHits))
	h.Write(n[:])
	for _, doc := range docs {
		writeString(doc.ID)
		writeString(doc.Title)
		writeString(doc.Text)
		flags := byte(0)
		if doc.Processed {
			flags |= 1
		}
		if doc.IncludeInContext {
			flags |= 2
		}
		h.Write([]byte{flags})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// get looks up and touches the entry under one write lock, so order and
// entries always hold the same keys.
func (c *QueryCache) get(key string) ([]domain.Hit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}
	c.moveToEnd(key)
	return entry.hits, true
}

func (c *QueryCache) put(key string, hits []domain.Hit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{hits: hits, timestamp: c.now()}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{hits: hits, timestamp: c.now()}
	c.order = append(c.order, key)
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedRetriever serves repeated searches over an unchanged library from
// the cache. The engine itself never keeps hits between calls; this
// decorator does, which is only safe because any edit to a document's id,
// title, text or flags changes the key. Results are therefore identical to
// an uncached search.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

var _ port.Retriever = (*CachedRetriever)(nil)

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(query string, docs []domain.Document, maxHits int) []domain.Hit {
	key := cacheKey(query, maxHits, docs)
	if hits, hit := r.cache.get(key); hit {
		return clone(hits)
	}

	hits := r.retriever.Search(query, docs, maxHits)
	r.cache.put(key, clone(hits))
	return hits
}

func clone(hits []domain.Hit) []domain.Hit {
	out := make([]domain.Hit, len(hits))
	copy(out, hits)
	return out
}
