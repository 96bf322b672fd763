package configs

import (
	"github.com/spf13/viper"
)

// KVConfig 键值存储配置，用于长引用映射与统计缓存.
type KVConfig struct {
	Type  string        `mapstructure:"type"  rule:"oneof=memory redis"`
	Redis RedisKVConfig `mapstructure:"redis"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr      string `mapstructure:"addr"       rule:"hostname_port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"         rule:"min=0,max=15"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.key_prefix", "filterbot:")
}
