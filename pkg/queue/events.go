package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 事件发布方，mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Publish 构造信封并发布到 topic.
func Publish[T any](ctx context.Context, pub Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// PublishUserJoined 发布 fb.user.joined 事件.
func PublishUserJoined(ctx context.Context, pub Publisher, p UserJoinedPayload, opts ...func(*EventHeader)) error {
	return Publish(ctx, pub, TopicUserJoined, p, opts...)
}

// PublishChatJoined 发布 fb.chat.joined 事件.
func PublishChatJoined(ctx context.Context, pub Publisher, p ChatJoinedPayload, opts ...func(*EventHeader)) error {
	return Publish(ctx, pub, TopicChatJoined, p, opts...)
}

// PublishFileIndexed 发布 fb.file.indexed 事件.
func PublishFileIndexed(ctx context.Context, pub Publisher, p FileIndexedPayload, opts ...func(*EventHeader)) error {
	return Publish(ctx, pub, TopicFileIndexed, p, opts...)
}

// PublishFileDelivered 发布 fb.file.delivered 事件.
func PublishFileDelivered(ctx context.Context, pub Publisher, p FileDeliveredPayload, opts ...func(*EventHeader)) error {
	return Publish(ctx, pub, TopicFileDelivered, p, opts...)
}

// PublishStatsReported 发布 fb.stats.reported 事件.
func PublishStatsReported(ctx context.Context, pub Publisher, p StatsReportedPayload, opts ...func(*EventHeader)) error {
	return Publish(ctx, pub, TopicStatsReported, p, opts...)
}
