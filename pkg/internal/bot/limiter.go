package bot

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/yeisme/filterbot/pkg/configs"
)

// Limiter 按用户的令牌桶限流. 只跟踪最近活跃的用户，空闲超过 idle_ttl 的用户被淘汰.
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *expirable.LRU[int64, *rate.Limiter]
}

// NewLimiter 按配置创建限流器，未启用时返回 nil，nil 限流器放行所有请求.
func NewLimiter(cfg configs.RateLimitConfig) *Limiter {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return nil
	}

	size := cfg.MaxUsers
	if size <= 0 {
		size = configs.DefaultRateLimitMaxUsers
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limit:    rate.Limit(cfg.RPS),
		burst:    burst,
		limiters: expirable.NewLRU[int64, *rate.Limiter](size, nil, cfg.IdleTTL),
	}
}

// Allow 判断 userID 当前是否可以继续发送更新.
func (l *Limiter) Allow(userID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()

	lim, ok := l.limiters.Get(userID)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(userID, lim)
	}

	l.mu.Unlock()

	return lim.Allow()
}

// Tracked 返回当前跟踪的用户数.
func (l *Limiter) Tracked() int {
	if l == nil {
		return 0
	}

	return l.limiters.Len()
}
