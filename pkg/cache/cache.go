// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 sonic 序列化为 JSON，支持 TTL. 机器人用它缓存统计汇总与下载引用映射.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "stats:")
//
//	totals, err := cache.GetOrSet(ctx, c, "totals", func() (model.Totals, error) {
//		return record.Totals(ctx, store)
//	}, 30*time.Second)
//
// 错误处理:
//   - 未命中返回 kv.ErrKeyNotFound
//   - GetOrSet 在读取失败时回退到 getter，写回失败不影响返回值
//   - 同一键的并发 GetOrSet 只调用一次 getter
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/filterbot/pkg/internal/storage/kv"
	nlog "github.com/yeisme/filterbot/pkg/log"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例，所有键带 prefix 前缀.
func NewCache(kvStore kv.KVStore, prefix string) *Cache {
	return &Cache{
		kvStore: kvStore,
		prefix:  prefix,
	}
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并写回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	value, err := Get[T](ctx, c, key)
	if err == nil {
		return value, nil
	}

	if !errors.Is(err, kv.ErrKeyNotFound) {
		nlog.Logger().Debug().Err(err).Str("key", key).Msg("cache read failed, falling back to source")
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		fresh, err := getter()
		if err != nil {
			return fresh, err
		}

		if setErr := Set(ctx, c, key, fresh, ttl); setErr != nil {
			nlog.Logger().Warn().Err(setErr).Str("key", key).Msg("cache write failed")
		}

		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

// Clear 删除该前缀下的全部键.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, c.prefix+"*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
