package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/queue"
)

// Subscriber 事件订阅方，mq.Client 满足该接口.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Notifier 订阅领域事件并把通知发到日志频道.
type Notifier struct {
	sub       Subscriber
	out       service.Responder
	channelID int64
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// NewNotifier 创建通知器. channelID 为 0 时 Start 不做任何事.
func NewNotifier(sub Subscriber, out service.Responder, channelID int64) *Notifier {
	return &Notifier{
		sub:       sub,
		out:       out,
		channelID: channelID,
		logger:    log.Component("notifier"),
	}
}

// Start 订阅 queue.NotifyTopics，每个主题一个消费 goroutine，直到 ctx 结束.
func (n *Notifier) Start(ctx context.Context) error {
	if n.channelID == 0 || n.sub == nil {
		return nil
	}

	for _, topic := range queue.NotifyTopics {
		ch, err := n.sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		n.wg.Add(1)

		go n.consume(ctx, topic, ch)
	}

	n.logger.Info().Int64("channel_id", n.channelID).Strs("topics", queue.NotifyTopics).Msg("notifier started")

	return nil
}

// Wait 等待所有消费 goroutine 退出.
func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) consume(ctx context.Context, topic string, ch <-chan *message.Message) {
	defer n.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			n.handle(ctx, topic, msg)
		}
	}
}

// handle 发送失败时仍然 Ack，日志频道通知不重投.
func (n *Notifier) handle(ctx context.Context, topic string, msg *message.Message) {
	defer msg.Ack()

	text, err := renderEvent(topic, msg)
	if err != nil {
		n.logger.Warn().Err(err).Str("topic", topic).Str("uuid", msg.UUID).Msg("decode event failed")
		return
	}

	if _, err := n.out.Reply(ctx, n.channelID, service.Reply{Text: text}); err != nil {
		n.logger.Warn().Err(err).Str("topic", topic).Msg("post to log channel failed")
	}
}

func renderEvent(topic string, msg *message.Message) (string, error) {
	switch topic {
	case queue.TopicUserJoined:
		env, err := queue.ParseWatermillMessage[queue.UserJoinedPayload](msg)
		if err != nil {
			return "", err
		}

		p := env.Payload

		return service.NewUserLogText(p.UserID, p.Username, p.FirstName), nil
	case queue.TopicChatJoined:
		env, err := queue.ParseWatermillMessage[queue.ChatJoinedPayload](msg)
		if err != nil {
			return "", err
		}

		p := env.Payload

		return service.NewChatLogText(p.ChatID, p.Type, p.Title), nil
	case queue.TopicFileIndexed:
		env, err := queue.ParseWatermillMessage[queue.FileIndexedPayload](msg)
		if err != nil {
			return "", err
		}

		p := env.Payload

		return service.FileIndexedLogText(p.FileName, model.FileType(p.FileType), p.FileSize), nil
	case queue.TopicStatsReported:
		env, err := queue.ParseWatermillMessage[queue.StatsReportedPayload](msg)
		if err != nil {
			return "", err
		}

		p := env.Payload
		totals := model.Totals{Users: p.Users, Files: p.Files, Chats: p.Chats}

		return service.StatsReportText(totals, time.Duration(p.UptimeSeconds)*time.Second), nil
	default:
		return "", fmt.Errorf("unexpected topic %q", topic)
	}
}
