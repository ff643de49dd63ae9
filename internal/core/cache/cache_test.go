package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// loader 计数回源次数
func loader(calls *int, v *item, err error) func(context.Context) (*item, error) {
	return func(context.Context) (*item, error) {
		*calls++
		return v, err
	}
}

func TestLoadJSONMissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	hits := testutil.ToFloat64(lookups.WithLabelValues(resultHit))
	misses := testutil.ToFloat64(lookups.WithLabelValues(resultMiss))

	calls := 0
	load := loader(&calls, &item{ID: "1", Name: "bar"}, nil)

	got, err := LoadJSON(ctx, c, "item:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "bar", got.Name)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("fitness:item:1"))
	assert.Equal(t, time.Minute, mr.TTL("fitness:item:1"))

	got, err = LoadJSON(ctx, c, "item:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, &item{ID: "1", Name: "bar"}, got)
	assert.Equal(t, 1, calls, "second read is served from redis")

	assert.Equal(t, hits+1, testutil.ToFloat64(lookups.WithLabelValues(resultHit)))
	assert.Equal(t, misses+1, testutil.ToFloat64(lookups.WithLabelValues(resultMiss)))
}

func TestLoadJSONCorruptEntryFallsBackToLoad(t *testing.T) {
	c, mr := newTestCache(t)
	corrupt := testutil.ToFloat64(lookups.WithLabelValues(resultCorrupt))
	require.NoError(t, mr.Set("fitness:item:2", "{not json"))

	calls := 0
	got, err := LoadJSON(context.Background(), c, "item:2", time.Minute, loader(&calls, &item{ID: "2"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)
	assert.Equal(t, 1, calls)
	assert.False(t, mr.Exists("fitness:item:2"), "corrupt entry is dropped")
	assert.Equal(t, corrupt+1, testutil.ToFloat64(lookups.WithLabelValues(resultCorrupt)))
}

func TestLoadErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("db down")

	calls := 0
	_, err := LoadJSON(context.Background(), c, "item:3", time.Minute, loader(&calls, nil, boom))
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("fitness:item:3"))

	_, err = LoadJSON(context.Background(), c, "item:3", time.Minute, loader(&calls, nil, boom))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDelEvicts(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("fitness:a", "1"))
	require.NoError(t, mr.Set("fitness:b", "2"))

	require.NoError(t, c.Del(ctx, "a", "b"))
	assert.False(t, mr.Exists("fitness:a"))
	assert.False(t, mr.Exists("fitness:b"))
	assert.NoError(t, c.Del(ctx))
	assert.NoError(t, c.Ping(ctx))
}

func TestNilCacheAlwaysLoads(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	assert.False(t, c.Enabled())

	calls := 0
	for range 2 {
		got, err := LoadJSON(ctx, c, "item:4", time.Minute, loader(&calls, &item{ID: "4"}, nil))
		require.NoError(t, err)
		assert.Equal(t, "4", got.ID)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.Del(ctx, "item:4"))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestUnreachableRedisFallsBackToLoad(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	calls := 0
	got, err := LoadJSON(context.Background(), c, "item:5", time.Minute, loader(&calls, &item{ID: "5"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "5", got.ID)
	assert.Equal(t, 1, calls)
	assert.Error(t, c.Ping(context.Background()))
}
