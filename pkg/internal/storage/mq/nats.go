// NATS 工厂：连接与重连、多种认证方式（JWT、NKey、用户名/密码）、可选 JetStream 持久化，
// 以及通过 queue group 前缀在多个机器人实例间分摊订阅.
package mq

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/filterbot/pkg/configs"
)

const (
	DefaultDrainTimeout   = 30 * time.Second
	DefaultFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQNATSConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.ClientID),
		nc.MaxReconnects(cfg.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.ReconnectWait) * time.Second),
		nc.PingInterval(time.Duration(cfg.PingInterval) * time.Second),
		nc.ReconnectBufSize(cfg.BufferSize),
		nc.DrainTimeout(DefaultDrainTimeout),
		nc.FlusherTimeout(DefaultFlusherTimeout),
		nc.RetryOnFailedConnect(true),
	}

	return appendAuthOptions(opts, cfg)
}

// appendAuthOptions 添加认证选项，优先级 JWT > NKey > 用户名密码.
func appendAuthOptions(opts []nc.Option, cfg *configs.MQNATSConfig) []nc.Option {
	switch {
	case cfg.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	case cfg.NKey != "":
		opts = append(opts, nc.Nkey(cfg.NKey, nil))
	case cfg.User != "":
		opts = append(opts, nc.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

// buildJetStreamConfig 构建 JetStream 配置.
func buildJetStreamConfig(cfg *configs.MQNATSConfig, logger watermill.LoggerAdapter) nats.JetStreamConfig {
	jsCfg := nats.JetStreamConfig{Disabled: !cfg.JetStreamEnabled}

	if cfg.JetStreamEnabled {
		jsCfg.AutoProvision = cfg.JetStreamAutoProvision
		jsCfg.TrackMsgId = cfg.JetStreamTrackMsgID
		jsCfg.AckAsync = cfg.JetStreamAckAsync
		jsCfg.DurablePrefix = cfg.JetStreamDurablePrefix

		logger.Info("JetStream 已启用", watermill.LogFields{
			"auto_provision": cfg.JetStreamAutoProvision,
			"track_msg_id":   cfg.JetStreamTrackMsgID,
			"ack_async":      cfg.JetStreamAckAsync,
			"durable_prefix": cfg.JetStreamDurablePrefix,
		})
	}

	return jsCfg
}

// buildURL 构建连接 URL，集群地址优先.
func buildURL(cfg *configs.MQNATSConfig) string {
	if len(cfg.ClusterURLs) > 0 {
		return strings.Join(cfg.ClusterURLs, ",")
	}

	return cfg.URL
}

// natsFactory 创建 NATS Publisher & Subscriber.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	natsCfg := &cfg.NATS
	opts := buildNatsOptions(natsCfg)
	jsCfg := buildJetStreamConfig(natsCfg, logger)
	marshaler := &nats.JSONMarshaler{}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         buildURL(natsCfg),
		NatsOptions: opts,
		Marshaler:   marshaler,
		JetStream:   jsCfg,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	subscribers := natsCfg.SubscribersCount
	if subscribers <= 0 {
		subscribers = configs.DefaultSubscribersCount
	}

	if natsCfg.QueueGroupPrefix != "" {
		logger.Info("通过 queue group 在实例间分摊订阅", watermill.LogFields{
			"prefix": natsCfg.QueueGroupPrefix,
		})
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              buildURL(natsCfg),
		QueueGroupPrefix: natsCfg.QueueGroupPrefix,
		SubscribersCount: subscribers,
		NatsOptions:      opts,
		Unmarshaler:      marshaler,
		JetStream:        jsCfg,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
