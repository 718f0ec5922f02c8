package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqlsink/internal/relational"
)

func table(t *testing.T, name string) *relational.TableDescriptor {
	t.Helper()
	td, err := relational.NewBuilder().
		SchemaName("public").
		TableName(name).
		Column(relational.NewColumn("id", "integer")).
		KeyColumn("id").
		Build()
	require.NoError(t, err)
	return td
}

func TestNewTableCacheWithCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{name: "positive capacity", capacity: 10, expected: 10},
		{name: "zero capacity defaults to default", capacity: 0, expected: DefaultTableCacheCapacity},
		{name: "negative capacity defaults to default", capacity: -1, expected: DefaultTableCacheCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTableCacheWithCapacity(tt.capacity)
			require.NotNil(t, c)
			assert.Equal(t, tt.expected, c.capacity)
		})
	}
}

func TestTableCache_GetSet(t *testing.T) {
	c := NewTableCache()
	orders := table(t, "orders")

	got, ok := c.Get(orders.ID())
	assert.Nil(t, got)
	assert.False(t, ok)

	c.Set(orders.ID(), orders)
	got, ok = c.Get(orders.ID())
	require.True(t, ok)
	assert.Same(t, orders, got)

	// Unquoted identifiers share an entry regardless of case.
	got, ok = c.Get(relational.NewTableID("", "PUBLIC", "Orders"))
	require.True(t, ok)
	assert.Same(t, orders, got)

	// A quoted identifier is a different table.
	_, ok = c.Get(orders.ID().Quoted(true))
	assert.False(t, ok)

	replacement := table(t, "orders")
	c.Set(orders.ID(), replacement)
	got, _ = c.Get(orders.ID())
	assert.Same(t, replacement, got)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(3), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.InDelta(t, 0.6, stats.HitRate, 0.0001)
}

func TestTableCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTableCacheWithCapacity(2)
	a, b, d := table(t, "a"), table(t, "b"), table(t, "d")

	c.Set(a.ID(), a)
	c.Set(b.ID(), b)
	_, _ = c.Get(a.ID())
	c.Set(d.ID(), d)

	_, ok := c.Get(b.ID())
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get(a.ID())
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestTableCache_InvalidateAndClear(t *testing.T) {
	c := NewTableCache()
	a, b := table(t, "a"), table(t, "b")
	c.Set(a.ID(), a)
	c.Set(b.ID(), b)

	assert.True(t, c.Invalidate(a.ID()))
	assert.False(t, c.Invalidate(a.ID()))
	_, ok := c.Get(a.ID())
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Invalidations)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
}

func TestTableCache_Concurrent(t *testing.T) {
	c := NewTableCacheWithCapacity(8)
	tables := make([]*relational.TableDescriptor, 16)
	for i := range tables {
		tables[i] = table(t, fmt.Sprintf("t%d", i))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				td := tables[(g+i)%len(tables)]
				if _, ok := c.Get(td.ID()); !ok {
					c.Set(td.ID(), td)
				}
				if i%50 == 0 {
					c.Invalidate(td.ID())
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 8)
}
