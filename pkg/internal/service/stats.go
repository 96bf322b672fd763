package service

import (
	"context"
	"time"

	"github.com/yeisme/filterbot/pkg/cache"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

const totalsKey = "totals"

// StatsService 提供用户、文件、会话总数与运行时长.
// 总数经 KV 缓存 ttl 时长，避免管理员反复刷新时压到存储.
type StatsService struct {
	store     record.Store
	cache     *cache.Cache
	ttl       time.Duration
	startedAt time.Time
	now       func() time.Time
}

// NewStatsService 创建统计服务，c 为 nil 时每次直接查询存储.
func NewStatsService(store record.Store, c *cache.Cache, ttl time.Duration, startedAt time.Time) *StatsService {
	return &StatsService{
		store:     store,
		cache:     c,
		ttl:       ttl,
		startedAt: startedAt.UTC(),
		now:       time.Now,
	}
}

// Totals 返回汇总计数.
func (s *StatsService) Totals(ctx context.Context) (model.Totals, error) {
	if s.cache == nil || s.ttl <= 0 {
		return record.Totals(ctx, s.store)
	}

	return cache.GetOrSet(ctx, s.cache, totalsKey, func() (model.Totals, error) {
		return record.Totals(ctx, s.store)
	}, s.ttl)
}

// Refresh 丢弃缓存后重新统计.
func (s *StatsService) Refresh(ctx context.Context) (model.Totals, error) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, totalsKey)
	}

	return s.Totals(ctx)
}

// StartedAt 返回启动时间（UTC）.
func (s *StatsService) StartedAt() time.Time { return s.startedAt }

// Uptime 返回运行时长.
func (s *StatsService) Uptime() time.Duration { return s.now().Sub(s.startedAt) }

// Render 渲染统计消息.
func (s *StatsService) Render(ctx context.Context, refresh bool) (Reply, error) {
	var (
		t   model.Totals
		err error
	)

	if refresh {
		t, err = s.Refresh(ctx)
	} else {
		t, err = s.Totals(ctx)
	}

	if err != nil {
		return Reply{}, err
	}

	return Reply{Text: StatsText(t, s.startedAt, s.now()), Keyboard: StatsKeyboard()}, nil
}
