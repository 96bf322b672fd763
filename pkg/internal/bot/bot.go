// Package bot 是 Telegram 传输层：拉取更新、按类型分发到 service，
// 并负责限流、封禁过滤、命令注册与日志频道通知.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/metrics"
	"github.com/yeisme/filterbot/pkg/tracing"
)

// handleTimeout 单个更新的处理时限.
const handleTimeout = 60 * time.Second

// 更新处理结果.
const (
	resultOK      = "ok"
	resultError   = "error"
	resultLimited = "limited"
	resultIgnored = "ignored"
	resultPanic   = "panic"
)

// Deps 机器人依赖的业务服务.
type Deps struct {
	Search    service.SearchHandler
	Router    *service.DownloadRouter
	Presenter *service.Presenter
	Users     *service.UserService
	Stats     *service.StatsService
	Indexer   *service.Indexer
	Limiter   *Limiter
	StoreKind string
	Version   string
}

// Bot 更新循环与分发.
type Bot struct {
	api      API
	out      service.Responder
	username string
	cfg      configs.BotConfig
	deps     Deps
	logger   zerolog.Logger
}

// New 创建机器人. username 用于帮助文字中的内联示例.
func New(api API, out service.Responder, username string, cfg configs.BotConfig, deps Deps) *Bot {
	if cfg.Workers <= 0 {
		cfg.Workers = configs.DefaultBotWorkers
	}

	return &Bot{
		api:      api,
		out:      out,
		username: username,
		cfg:      cfg,
		deps:     deps,
		logger:   log.Component("bot"),
	}
}

// Commands 注册到 Telegram 的命令列表.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "Show help message"},
		{Command: "search", Description: "Search for files"},
		{Command: "stats", Description: "Show bot statistics (Admin only)"},
		{Command: "about", Description: "About this bot"},
	}
}

// RegisterCommands 设置命令菜单.
func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(Commands()...)); err != nil {
		return fmt.Errorf("set my commands: %w", err)
	}

	return nil
}

// Run 拉取更新直到 ctx 结束，每个更新一个 goroutine，并发数受 workers 限制.
// 返回前等待所有处理中的更新完成.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	updates := b.api.GetUpdatesChan(u)

	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)

	b.logger.Info().Int("workers", b.cfg.Workers).Msg("bot started")

loop:
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			break loop
		case upd, ok := <-updates:
			if !ok {
				break loop
			}

			g.Go(func() error {
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
				defer cancel()

				b.Handle(hctx, upd)

				return nil
			})
		}
	}

	err := g.Wait()
	b.logger.Info().Msg("bot stopped")

	return err
}

// Handle 处理单个更新，错误与 panic 只记录不向上传播.
func (b *Bot) Handle(ctx context.Context, upd tgbotapi.Update) {
	kind := updateKind(upd)

	ctx, span := tracing.StartSpan(ctx, "bot."+kind, trace.WithAttributes(attribute.Int("update.id", upd.UpdateID)))
	defer span.End()

	metrics.InFlightUpdates.Inc()
	defer metrics.InFlightUpdates.Dec()

	start := time.Now()
	result := resultOK

	defer func() {
		if r := recover(); r != nil {
			result = resultPanic
			l := log.WithTraceContext(ctx, b.logger)
			l.Error().Interface("panic", r).Int("update_id", upd.UpdateID).Msg("update handler panicked")
		}

		metrics.UpdatesTotal.WithLabelValues(kind, result).Inc()
		metrics.UpdateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	result = b.dispatch(ctx, kind, upd)
}

func (b *Bot) dispatch(ctx context.Context, kind string, upd tgbotapi.Update) string {
	if kind == kindChannelPost {
		b.onChannelPost(ctx, channelPost(upd))
		return resultOK
	}

	from := sender(upd)
	if from == nil || from.IsBot {
		return resultIgnored
	}

	if !b.cfg.IsAdmin(from.ID) {
		if !b.deps.Limiter.Allow(from.ID) {
			metrics.RateLimited.Inc()
			return resultLimited
		}

		if b.deps.Users.IsBanned(ctx, from.ID) {
			return resultIgnored
		}
	}

	var err error

	switch kind {
	case kindMessage:
		err = b.onMessage(ctx, upd.Message)
	case kindCallback:
		err = b.onCallback(ctx, upd.CallbackQuery)
	case kindInline:
		q := upd.InlineQuery
		err = b.deps.Search.OnInlineQuery(ctx, service.InlineQuery{ID: q.ID, UserID: q.From.ID, Text: q.Query})
	default:
		return resultIgnored
	}

	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err)

		l := log.WithTraceContext(ctx, b.logger)
		l.Error().Err(err).Str("kind", kind).Int64("user_id", from.ID).Msg("handle update failed")

		return resultError
	}

	return resultOK
}

const (
	kindMessage     = "message"
	kindCallback    = "callback"
	kindInline      = "inline"
	kindChannelPost = "channel_post"
	kindOther       = "other"
)

func updateKind(upd tgbotapi.Update) string {
	switch {
	case upd.Message != nil:
		return kindMessage
	case upd.CallbackQuery != nil:
		return kindCallback
	case upd.InlineQuery != nil:
		return kindInline
	case upd.ChannelPost != nil, upd.EditedChannelPost != nil:
		return kindChannelPost
	default:
		return kindOther
	}
}

func channelPost(upd tgbotapi.Update) *tgbotapi.Message {
	if upd.ChannelPost != nil {
		return upd.ChannelPost
	}

	return upd.EditedChannelPost
}

func sender(upd tgbotapi.Update) *tgbotapi.User {
	switch {
	case upd.Message != nil:
		return upd.Message.From
	case upd.CallbackQuery != nil:
		return upd.CallbackQuery.From
	case upd.InlineQuery != nil:
		return upd.InlineQuery.From
	default:
		return nil
	}
}
