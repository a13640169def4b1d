package memory

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New(3, WithEvictCallback(func(k string, _ int) { evicted = append(evicted, k) }))

	c.Add("A", 1)
	c.Add("B", 2)
	c.Add("C", 3)
	_, ok := c.Get("A")
	require.True(t, ok)
	c.Add("D", 4)

	assert.Equal(t, []string{"B"}, evicted)
	assert.False(t, c.Contains("B"))
	for _, k := range []string{"A", "C", "D"} {
		assert.True(t, c.Contains(k), k)
	}
	assert.Equal(t, []string{"C", "A", "D"}, c.Keys())
}

func TestCacheOverwriteResetsRecency(t *testing.T) {
	c := New[string, int](2)
	c.Add("A", 1)
	c.Add("B", 2)
	c.Add("A", 10)
	c.Add("C", 3)

	v, ok := c.Peek("A")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.False(t, c.Contains("B"))
}

func TestCachePeekDoesNotTouchRecency(t *testing.T) {
	c := New[string, int](2)
	c.Add("A", 1)
	c.Add("B", 2)
	_, _ = c.Peek("A")
	c.Add("C", 3)

	assert.False(t, c.Contains("A"))
	assert.True(t, c.Contains("B"))
}

func TestCacheSetMaxShrinksOldestFirst(t *testing.T) {
	c := New[int, int](5)
	for i := 0; i < 5; i++ {
		c.Add(i, i)
	}
	c.Get(0)
	c.SetMax(2)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []int{4, 0}, c.Keys())
	assert.InDelta(t, 100.0, c.PercentageUsed(), 0.001)

	c.SetMax(0)
	assert.Zero(t, c.Len())
	c.Add(9, 9)
	assert.Zero(t, c.Len())
	assert.Zero(t, c.PercentageUsed())
}

// TestCacheMatchesModel replays random operations against a slice based
// model of LRU order.
func TestCacheMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := New[int, int](4)
	order := []int{} // oldest first
	maxSize := 4

	touch := func(k int) {
		if i := slices.Index(order, k); i >= 0 {
			order = slices.Delete(order, i, i+1)
		}
		order = append(order, k)
	}

	for step := 0; step < 2000; step++ {
		k := rng.Intn(10)
		switch rng.Intn(5) {
		case 0, 1:
			c.Add(k, step)
			if maxSize > 0 {
				touch(k)
			}
		case 2:
			_, ok := c.Get(k)
			require.Equal(t, slices.Contains(order, k), ok)
			if ok {
				touch(k)
			}
		case 3:
			maxSize = 1 + rng.Intn(6)
			c.SetMax(maxSize)
		case 4:
			c.Remove(k)
			if i := slices.Index(order, k); i >= 0 {
				order = slices.Delete(order, i, i+1)
			}
		}
		if len(order) > maxSize {
			order = order[len(order)-maxSize:]
		}
		require.LessOrEqual(t, c.Len(), c.Max())
		require.Equal(t, order, c.Keys(), "step %d", step)
	}
}

func TestGigabytesToBytes(t *testing.T) {
	assert.Equal(t, Gigabyte, GigabytesToBytes(1))
	assert.Equal(t, Gigabyte/2, GigabytesToBytes(0.5))
	assert.Zero(t, GigabytesToBytes(-1))
	assert.InDelta(t, 2.0, BytesToGigabytes(2*Gigabyte), 0.0001)
	assert.Equal(t, "1.0 GiB", FormatSize(Gigabyte))
}
