package configs

import (
	"time"

	"github.com/spf13/viper"
)

// SearchMode 搜索策略.
type SearchMode string

const (
	// SearchModeAuto 启动时探测文本索引，存在则使用全文检索.
	SearchModeAuto SearchMode = "auto"
	// SearchModeText 强制使用全文检索.
	SearchModeText SearchMode = "text"
	// SearchModeSubstring 强制使用不区分大小写的子串匹配.
	SearchModeSubstring SearchMode = "substring"

	DefaultChatResultLimit   = 10
	DefaultInlineResultLimit = 50
	DefaultStatsCacheTTL     = 30 * time.Second
	DefaultSearchTimeout     = 10 * time.Second
)

// SearchConfig 搜索与结果展示配置.
type SearchConfig struct {
	Mode              SearchMode    `mapstructure:"mode"                rule:"oneof=auto text substring"`
	ChatResultLimit   int           `mapstructure:"chat_result_limit"   rule:"min=1,max=10"`
	InlineResultLimit int           `mapstructure:"inline_result_limit" rule:"min=1,max=50"`
	Timeout           time.Duration `mapstructure:"timeout"`
	// RefTTL 长 file_id 映射在 KV 中的保留时间，0 表示永久保留.
	RefTTL        time.Duration `mapstructure:"ref_ttl"`
	StatsCacheTTL time.Duration `mapstructure:"stats_cache_ttl"`
}

func (c *SearchConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("search.mode", SearchModeAuto)
	v.SetDefault("search.chat_result_limit", DefaultChatResultLimit)
	v.SetDefault("search.inline_result_limit", DefaultInlineResultLimit)
	v.SetDefault("search.timeout", DefaultSearchTimeout)
	v.SetDefault("search.ref_ttl", 0)
	v.SetDefault("search.stats_cache_ttl", DefaultStatsCacheTTL)
}
