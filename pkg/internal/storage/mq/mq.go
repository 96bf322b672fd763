// Package mq 提供基于 Watermill 库的统一消息队列操作接口.
// 机器人通过它发布 fb.* 领域事件（用户加入、文件入库、文件投递），
// 日志频道通知等订阅方与业务流程解耦.
//
// 支持的 MQ 类型：
//   - memory（进程内 gochannel）
//   - nats（支持 JetStream）
//
// 使用示例：
//
//	client, err := mq.New(ctx, cfg.MQ)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), payload)
//	err = client.Publish(ctx, queue.TopicFileDelivered, msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filterbot/pkg/configs"
	nlog "github.com/yeisme/filterbot/pkg/log"
	pmetrics "github.com/yeisme/filterbot/pkg/metrics"
)

// ErrClosed 客户端已关闭.
var ErrClosed = errors.New("mq client closed")

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredTypes 返回已注册的 MQ 类型.
func GetRegisteredTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	kind       configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	closed     atomic.Bool
}

// New 按配置创建消息队列客户端.
func New(ctx context.Context, cfg configs.MQConfig) (*Client, error) {
	if cfg.Type == "" {
		cfg.Type = configs.MQTypeMemory
	}

	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Component("mq"))

	pub, sub, err := factory(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if cfg.EnableMetrics {
		builder := metrics.NewPrometheusMetricsBuilder(pmetrics.GetRegistry(), "filterbot", "mq")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Bool("metrics", cfg.EnableMetrics).Msg("MQ 客户端已初始化")

	return &Client{kind: cfg.Type, publisher: pub, subscriber: sub}, nil
}

// Kind 返回 MQ 类型.
func (c *Client) Kind() configs.MQType { return c.kind }

// Publish 发布消息，ctx 会附加到每条消息上.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	if c.closed.Load() {
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题，ctx 取消时通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	if c.closed.Load() {
		return nil, ErrClosed
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Ping 客户端关闭后返回 ErrClosed.
func (c *Client) Ping(context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClosed
	}

	return nil
}

// Close 关闭资源，重复调用无效果.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	// gochannel 的 publisher 与 subscriber 是同一实例
	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
