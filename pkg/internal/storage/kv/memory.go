package kv

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/yeisme/filterbot/pkg/configs"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期数据在读取时惰性清除.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ configs.KVConfig) (KVStore, error) {
	return &MemoryKV{now: time.Now}, nil
}

// load 读取并解包，过期键会被删除.
func (m *MemoryKV) load(key string) ([]byte, bool, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, false, nil
	}

	raw, ok := value.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("invalid value type for key: %s", key)
	}

	v, expired, _, err := decodeWithTTL(raw, m.now())
	if err != nil {
		return nil, false, err
	}

	if expired {
		m.data.CompareAndDelete(key, value)
		return nil, false, nil
	}

	return v, true, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok, err := m.load(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	result := make([]byte, len(v))
	copy(result, v)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	wrapped, _, err := encodeWithTTL(data, ttl, m.now())
	if err != nil {
		return err
	}

	m.data.Store(key, wrapped)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := m.load(key)
	return ok, err
}

// Keys 获取匹配 glob 模式的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var candidates []string

	m.data.Range(func(key, _ any) bool {
		if k, ok := key.(string); ok {
			candidates = append(candidates, k)
		}

		return true
	})

	keys := make([]string, 0, len(candidates))

	for _, k := range candidates {
		if matched, _ := path.Match(pattern, k); !matched {
			continue
		}

		if _, ok, _ := m.load(k); ok {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// Ping 内存实现总是可用.
func (m *MemoryKV) Ping(context.Context) error { return nil }

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
