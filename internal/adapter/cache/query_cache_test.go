package cache

import (
	"testing"
	"time"

	"casebase/internal/domain"
	"casebase/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Retrieve(base port.CaseBase, query domain.Vector) (domain.Retrieval, error) {
	r.calls++
	return domain.Retrieval{Results: []domain.MetricResult{{Metric: "euclidean", Label: "flu"}}}, nil
}

func TestCachedRetrieverHitsAndInvalidation(t *testing.T) {
	inner := &countingRetriever{}
	c := NewQueryCache(8, time.Minute)
	r := NewCachedRetriever(inner, c)

	q := domain.Vector{1, 0, 0}
	_, err := r.Retrieve(nil, q)
	require.NoError(t, err)
	got, err := r.Retrieve(nil, q)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "flu", got.Results[0].Label)

	c.Invalidate()
	_, err = r.Retrieve(nil, q)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestQueryCacheEvictsOldest(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	a, b, d := domain.Vector{1, 0}, domain.Vector{0, 1}, domain.Vector{1, 1}

	c.Put(a, domain.Retrieval{})
	c.Put(b, domain.Retrieval{})
	c.Put(d, domain.Retrieval{})

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get(a)
	assert.False(t, ok)
	_, ok = c.Get(d)
	assert.True(t, ok)
}

func TestQueryCacheReturnsCopies(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	q := domain.Vector{1, 0}
	c.Put(q, domain.Retrieval{Results: []domain.MetricResult{{Label: "flu"}}})

	got, ok := c.Get(q)
	require.True(t, ok)
	got.Results[0].Label = "changed"

	again, _ := c.Get(q)
	assert.Equal(t, "flu", again.Results[0].Label)
}

func TestQueryCacheTTL(t *testing.T) {
	c := NewQueryCache(2, time.Nanosecond)
	q := domain.Vector{1}
	c.Put(q, domain.Retrieval{})
	time.Sleep(time.Millisecond)

	_, ok := c.Get(q)
	assert.False(t, ok)
}
