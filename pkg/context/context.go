// Package context 拓展上下文功能，将存储资源集成到上下文中，供 HTTP 处理器使用.
package context

import (
	"context"

	"github.com/yeisme/filterbot/pkg/internal/storage"
	kvc "github.com/yeisme/filterbot/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filterbot/pkg/internal/storage/mq"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetStore 从 context 中获取记录存储.
func GetStore(ctx context.Context) record.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetStore()
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) kvc.KVStore {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}
