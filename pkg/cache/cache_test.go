package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/cache"
	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/storage/kv"
)

// testTotals 测试用的结构体.
type testTotals struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

func newCache(t *testing.T, prefix string) (*cache.Cache, kv.KVStore) {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), configs.KVConfig{Type: "memory"})
	require.NoError(t, err)

	return cache.NewCache(store, prefix), store
}

func TestGetSet(t *testing.T) {
	c, store := newCache(t, "stats:")
	ctx := context.Background()

	_, err := cache.Get[testTotals](ctx, c, "totals")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	want := testTotals{Users: 3, Files: 10}
	require.NoError(t, cache.Set(ctx, c, "totals", want, 0))

	got, err := cache.Get[testTotals](ctx, c, "totals")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// 键带前缀存储
	ok, err := store.Exists(ctx, "stats:totals")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(ctx, "totals")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "totals"))

	ok, err = c.Exists(ctx, "totals")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetBadPayload(t *testing.T) {
	c, store := newCache(t, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "broken", []byte("{not json"), 0))

	_, err := cache.Get[testTotals](ctx, c, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestGetOrSet(t *testing.T) {
	c, _ := newCache(t, "stats:")
	ctx := context.Background()

	var calls atomic.Int32

	getter := func() (testTotals, error) {
		calls.Add(1)
		return testTotals{Users: 1}, nil
	}

	v, err := cache.GetOrSet(ctx, c, "totals", getter, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.Users)

	v, err = cache.GetOrSet(ctx, c, "totals", getter, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.Users)
	assert.EqualValues(t, 1, calls.Load())

	_, err = cache.GetOrSet(ctx, c, "other", func() (testTotals, error) {
		return testTotals{}, errors.New("store down")
	}, time.Minute)
	assert.EqualError(t, err, "store down")

	ok, err := c.Exists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSetConcurrent(t *testing.T) {
	c, _ := newCache(t, "")
	ctx := context.Background()

	var (
		calls atomic.Int32
		wg    sync.WaitGroup
	)

	release := make(chan struct{})

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := cache.GetOrSet(ctx, c, "totals", func() (testTotals, error) {
				calls.Add(1)
				<-release

				return testTotals{Files: 7}, nil
			}, time.Minute)
			assert.NoError(t, err)
			assert.EqualValues(t, 7, v.Files)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestClear(t *testing.T) {
	c, store := newCache(t, "stats:")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, c, "a", 1, 0))
	require.NoError(t, cache.Set(ctx, c, "b", 2, 0))
	require.NoError(t, store.Set(ctx, "ref:x", []byte("keep"), 0))

	require.NoError(t, c.Clear(ctx))

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"ref:x"}, keys)
}
