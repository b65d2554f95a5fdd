package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"casebase/internal/domain"
	"casebase/internal/port"
)

// QueryCache holds retrievals keyed by query vector. Entries from an older
// base generation are never served; Invalidate starts a new generation.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	baseGen uint64
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	retrieval domain.Retrieval
	timestamp time.Time
	baseGen   uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query domain.Vector) string {
	h := sha256.New()
	var buf [8]byte
	for _, x := range query {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(query domain.Vector) (domain.Retrieval, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return domain.Retrieval{}, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.baseGen != c.baseGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return domain.Retrieval{}, false
	}

	c.moveToEnd(key)
	c.hits++
	return cloneRetrieval(entry.retrieval), true
}

func (c *QueryCache) Put(query domain.Vector, r domain.Retrieval) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	entry := &cacheEntry{
		retrieval: cloneRetrieval(r),
		timestamp: time.Now(),
		baseGen:   c.baseGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Call it whenever the case base changes.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.baseGen++
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *QueryCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
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

func cloneRetrieval(r domain.Retrieval) domain.Retrieval {
	out := domain.Retrieval{
		Results: make([]domain.MetricResult, len(r.Results)),
	}
	copy(out.Results, r.Results)
	if len(r.Warnings) > 0 {
		out.Warnings = append([]string(nil), r.Warnings...)
	}
	return out
}

// CachedRetriever serves repeated queries against an unchanged base from
// the cache. The owner must call Invalidate on the cache when the base changes.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(base port.CaseBase, query domain.Vector) (domain.Retrieval, error) {
	if res, hit := r.cache.Get(query); hit {
		return res, nil
	}

	res, err := r.retriever.Retrieve(base, query)
	if err != nil {
		return domain.Retrieval{}, err
	}

	r.cache.Put(query, res)
	return res, nil
}

var _ port.Retriever = (*CachedRetriever)(nil)
