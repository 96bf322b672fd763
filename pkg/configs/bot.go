package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBotWorkers       = 200 // 并发处理更新的最大 goroutine 数
	DefaultBotUpdateTimeout = 60  // 长轮询超时时间（秒）
	DefaultBotStartRetries  = 3   // 启动时遇到限流的最大重试次数
	DefaultBotShareBaseURL  = "https://t.me"
)

// BotConfig 机器人配置.
type BotConfig struct {
	Token          string  `mapstructure:"token"            rule:"required"`
	Username       string  `mapstructure:"username"`
	Admins         []int64 `mapstructure:"admins"`
	LogChannelID   int64   `mapstructure:"log_channel_id"`
	FilesChannelID int64   `mapstructure:"files_channel_id"`
	AutoIndex      bool    `mapstructure:"auto_index"`
	Workers        int     `mapstructure:"workers"          rule:"min=1,max=10000"`
	UpdateTimeout  int     `mapstructure:"update_timeout"   rule:"min=0,max=600"`
	StartRetries   int     `mapstructure:"start_retries"    rule:"min=0,max=10"`
	ShareBaseURL   string  `mapstructure:"share_base_url"   rule:"omitempty,url"`
	Debug          bool    `mapstructure:"debug"`
}

// IsAdmin 判断用户是否为管理员.
func (c *BotConfig) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}

	return false
}

// GetUpdateTimeout 返回长轮询超时时间.
func (c *BotConfig) GetUpdateTimeout() time.Duration {
	return time.Duration(c.UpdateTimeout) * time.Second
}

func (c *BotConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.username", "")
	v.SetDefault("bot.admins", []int64{})
	v.SetDefault("bot.log_channel_id", 0)
	v.SetDefault("bot.files_channel_id", 0)
	v.SetDefault("bot.auto_index", true)
	v.SetDefault("bot.workers", DefaultBotWorkers)
	v.SetDefault("bot.update_timeout", DefaultBotUpdateTimeout)
	v.SetDefault("bot.start_retries", DefaultBotStartRetries)
	v.SetDefault("bot.share_base_url", DefaultBotShareBaseURL)
	v.SetDefault("bot.debug", false)
}
