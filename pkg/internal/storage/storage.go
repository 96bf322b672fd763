// Package storage 聚合机器人使用的存储资源：记录存储（MongoDB 或 SQL）、KV 与消息队列.
//
// Example:
//
//	mgr, err := storage.Init(ctx, configs.GetConfig())
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close(ctx)
//
//	rec, err := mgr.Store.FindOne(ctx, record.FieldFileID, id)
package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm/logger"

	"github.com/yeisme/filterbot/pkg/configs"
	dbc "github.com/yeisme/filterbot/pkg/internal/storage/db"
	kvc "github.com/yeisme/filterbot/pkg/internal/storage/kv"
	mongoc "github.com/yeisme/filterbot/pkg/internal/storage/mongo"
	mqc "github.com/yeisme/filterbot/pkg/internal/storage/mq"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	nlog "github.com/yeisme/filterbot/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	Store record.Store
	KV    kvc.KVStore
	MQ    *mqc.Client
}

// Init 按配置连接记录存储、KV 与 MQ，并确保索引存在.
// 任一组件失败时已创建的资源会被释放.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m.Store = store

	if err := m.Store.EnsureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	if m.KV, err = kvc.NewKVStore(ctx, cfg.KV); err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("init kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx, cfg.MQ); err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("init mq: %w", err)
	}

	nlog.Logger().Info().
		Str("store", m.Store.Kind()).
		Str("kv", cfg.KV.Type).
		Str("mq", string(m.MQ.Kind())).
		Msg("storage manager initialized")

	return m, nil
}

// NewStore 按 store.type 创建记录存储.
func NewStore(ctx context.Context, cfg *configs.AppConfig) (record.Store, error) {
	switch cfg.Store.Type {
	case configs.StoreTypeSQL:
		level := logger.Warn
		if cfg.Server.Debug {
			level = logger.Info
		}

		client, err := dbc.New(ctx, cfg.Store.SQL, dbc.Options{Metrics: cfg.Metrics.Enabled, LogLevel: level})
		if err != nil {
			return nil, err
		}

		return dbc.NewStore(client), nil
	case configs.StoreTypeMongo, "":
		return mongoc.New(ctx, cfg.Store.Mongo)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}

// GetStore 获取记录存储.
func (m *Manager) GetStore() record.Store {
	return m.Store
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() kvc.KVStore {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 依次关闭 MQ、KV 与记录存储.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.Store != nil {
		errs = append(errs, m.Store.Close(ctx))
	}

	return errors.Join(errs...)
}
