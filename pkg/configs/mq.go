package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeMemory MQType = "memory"
	MQTypeNATS   MQType = "nats"

	DefaultMQURL            = "nats://localhost:4222"
	DefaultMaxReconnects    = 5               // 默认最大重连次数.
	DefaultReconnectWait    = 5               // 默认重连等待时间（秒）.
	DefaultMQClientID       = "filterbot"     // 默认客户端ID
	DefaultPingInterval     = 20              // 默认ping间隔 (秒)
	DefaultBufferSize       = 32768           // 默认重连缓冲区大小 (32KB)
	DefaultOutputBuffer     = 64              // 内存队列每个订阅者的缓冲
	DefaultPublishTimeout   = 5 * time.Second // 单次发布超时
	DefaultSubscribersCount = 1               // NATS 每个主题的订阅协程数
)

// MQConfig 消息队列配置.
type MQConfig struct {
	Type           MQType         `mapstructure:"type"            rule:"oneof=memory nats"`
	PublishTimeout time.Duration  `mapstructure:"publish_timeout"`
	EnableMetrics  bool           `mapstructure:"enable_metrics"`
	Memory         MQMemoryConfig `mapstructure:"memory"`
	NATS           MQNATSConfig   `mapstructure:"nats"`
}

// MQMemoryConfig 进程内队列配置.
type MQMemoryConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	Persistent   bool  `mapstructure:"persistent"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	URL                    string   `mapstructure:"url"`
	ClusterURLs            []string `mapstructure:"cluster_urls"`
	User                   string   `mapstructure:"user"`
	Password               string   `mapstructure:"password"`
	JWT                    string   `mapstructure:"jwt"`
	NKey                   string   `mapstructure:"nkey"`
	ClientID               string   `mapstructure:"client_id"`
	MaxReconnects          int      `mapstructure:"max_reconnects"           rule:"min=0,max=100"`
	ReconnectWait          int      `mapstructure:"reconnect_wait"           rule:"min=1,max=300"`
	PingInterval           int      `mapstructure:"ping_interval"            rule:"min=1,max=300"`
	BufferSize             int      `mapstructure:"buffer_size"              rule:"min=1024,max=1048576"`
	SubscribersCount       int      `mapstructure:"subscribers_count"        rule:"min=1,max=64"`
	QueueGroupPrefix       string   `mapstructure:"queue_group_prefix"`
	JetStreamEnabled       bool     `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool     `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool     `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool     `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string   `mapstructure:"jetstream_durable_prefix"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeMemory)
	v.SetDefault("mq.publish_timeout", DefaultPublishTimeout)
	v.SetDefault("mq.enable_metrics", true)

	v.SetDefault("mq.memory.output_buffer", DefaultOutputBuffer)
	v.SetDefault("mq.memory.persistent", false)

	v.SetDefault("mq.nats.url", DefaultMQURL)
	v.SetDefault("mq.nats.cluster_urls", []string{})
	v.SetDefault("mq.nats.client_id", DefaultMQClientID)
	v.SetDefault("mq.nats.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.nats.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.nats.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.nats.buffer_size", DefaultBufferSize)
	v.SetDefault("mq.nats.subscribers_count", DefaultSubscribersCount)
	v.SetDefault("mq.nats.queue_group_prefix", "")
	v.SetDefault("mq.nats.jetstream_enabled", false)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", false)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "filterbot")
}
