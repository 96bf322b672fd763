package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// 默认用户限流配置.
	DefaultRateLimitEnabled  = true
	DefaultRateLimitRPS      = 1.0
	DefaultRateLimitBurst    = 5
	DefaultRateLimitMaxUsers = 10000
	DefaultRateLimitIdleTTL  = 10 * time.Minute
)

// RateLimitConfig 按用户的更新限流配置.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"       rule:"min=0"` // 每个用户每秒允许的更新数
	Burst   int     `mapstructure:"burst"     rule:"min=1"` // 突发容量
	// MaxUsers 同时跟踪的用户数上限，超出后淘汰最久未活跃的用户.
	MaxUsers int           `mapstructure:"max_users" rule:"min=1"`
	IdleTTL  time.Duration `mapstructure:"idle_ttl"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.max_users", DefaultRateLimitMaxUsers)
	v.SetDefault("rate_limit.idle_ttl", DefaultRateLimitIdleTTL)
}
