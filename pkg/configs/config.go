// Package configs 管理应用程序配置，包括机器人、记录存储、缓存和队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Bot.Username)
//
// Example accessing store config:
//
//	config := configs.GetConfig()
//	if config.Store.Type == configs.StoreTypeMongo {
//		fmt.Println("Mongo URI:", config.Store.Mongo.URI)
//	}
//
// 环境变量使用 FILTERBOT_ 前缀覆盖（如 FILTERBOT_BOT_TOKEN），
// 同时兼容旧部署使用的 BOT_TOKEN、MONGO_DB_URI、ADMINS 等变量.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yeisme/filterbot/pkg/rule"
)

// AppVersion 应用版本号，构建时可通过 -ldflags 覆盖.
var AppVersion = "1.0.0"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Bot            BotConfig            `mapstructure:"bot"`             // BotConfig 机器人配置
		Store          StoreConfig          `mapstructure:"store"`           // StoreConfig 记录存储配置
		Search         SearchConfig         `mapstructure:"search"`          // SearchConfig 搜索与展示配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 健康检查服务配置
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 用户限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 存储熔断配置
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// legacyEnv 旧版部署使用的环境变量到配置键的映射.
var legacyEnv = map[string]string{
	"bot.token":            "BOT_TOKEN",
	"bot.username":         "BOT_USERNAME",
	"bot.admins":           "ADMINS",
	"bot.log_channel_id":   "LOG_CHANNEL_ID",
	"bot.files_channel_id": "FILES_CHANNEL_ID",
	"bot.auto_index":       "AUTO_INDEX",
	"store.mongo.uri":      "MONGO_DB_URI",
	"server.port":          "PORT",
	"log.level":            "LOG_LEVEL",
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// path 为空时仅使用默认值与环境变量.
func InitConfig(path string) error {
	// .env 文件是可选的
	_ = godotenv.Load()

	v, err := load(path)
	if err != nil {
		return err
	}

	appViper = v

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// load 构建 viper 实例并解析、校验到全局配置.
func load(path string) (*viper.Viper, error) {
	v := viper.New()
	setAllDefaults(v)

	v.SetEnvPrefix("FILTERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		_ = v.BindEnv(key, "FILTERBOT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			// 是文件，使用SetConfigFile，Viper会自动检测类型
			v.SetConfigFile(path)
		} else {
			v.SetConfigName("config")
			v.AddConfigPath(path)
			v.AddConfigPath(filepath.Join(path, "configs"))

			for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
				cfg := filepath.Join(path, "config."+ext)
				if _, err := os.Stat(cfg); err == nil {
					v.SetConfigFile(cfg)

					break
				}
			}
		}

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg

	return v, nil
}

// Validate 校验配置，返回可读的字段错误.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		fields := rule.Errors(err)
		if len(fields) == 0 {
			return fmt.Errorf("invalid config: %w", err)
		}

		parts := make([]string, 0, len(fields))
		for field, msg := range fields {
			parts = append(parts, field+": "+msg)
		}

		return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
	}

	if c.Store.Type == StoreTypeSQL && c.Store.SQL.GetDSN() == "" {
		return fmt.Errorf("invalid config: store.sql: unsupported type %q", c.Store.SQL.Type)
	}

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		botConfig      BotConfig
		storeConfig    StoreConfig
		searchConfig   SearchConfig
		kvConfig       KVConfig
		mqConfig       MQConfig
		serverConfig   ServerConfig
		logConfig      LogConfig
		metricsConfig  MetricsConfig
		tracingConfig  TracingConfig
		rateLimit      RateLimitConfig
		circuitBreaker CircuitBreakerConfig
		jobsConfig     JobsConfig
	)

	botConfig.setDefaults(v)
	storeConfig.setDefaults(v)
	searchConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimit.setDefaults(v)
	circuitBreaker.setDefaults(v)
	jobsConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载，校验失败时保留旧配置
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		if err := cfg.Validate(); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		globalConfig = cfg
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
