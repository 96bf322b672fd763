package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/metrics"
)

// 检索入口.
const (
	SurfaceChat   = "chat"
	SurfaceInline = "inline"
)

// SearchQuery 聊天中的检索请求.
type SearchQuery struct {
	ChatID int64
	UserID int64
	Text   string
}

// Selection 用户点击了某条结果.
type Selection struct {
	CallbackID string
	UserID     int64
	Ref        string
}

// InlineQuery 内联模式的检索请求.
type InlineQuery struct {
	ID     string
	UserID int64
	Text   string
}

// SearchHandler 检索与投递的入口，传输层按事件类型调用.
type SearchHandler interface {
	OnSearchQuery(ctx context.Context, q SearchQuery) error
	OnResultSelected(ctx context.Context, s Selection) error
	OnInlineQuery(ctx context.Context, q InlineQuery) error
}

// FinderOptions 结果数量限制.
type FinderOptions struct {
	ChatLimit   int
	InlineLimit int
}

// Finder 组合 Matcher、Presenter 与 DownloadRouter 实现 SearchHandler.
type Finder struct {
	matcher   *Matcher
	presenter *Presenter
	router    *DownloadRouter
	out       Responder
	opts      FinderOptions
	logger    zerolog.Logger
}

var _ SearchHandler = (*Finder)(nil)

// NewFinder 创建 Finder，限制超出上限时按上限处理.
func NewFinder(m *Matcher, p *Presenter, r *DownloadRouter, out Responder, opts FinderOptions) *Finder {
	if opts.ChatLimit <= 0 || opts.ChatLimit > MaxChatResults {
		opts.ChatLimit = MaxChatResults
	}

	if opts.InlineLimit <= 0 || opts.InlineLimit > MaxInlineResults {
		opts.InlineLimit = MaxInlineResults
	}

	return &Finder{
		matcher:   m,
		presenter: p,
		router:    r,
		out:       out,
		opts:      opts,
		logger:    log.Component("finder"),
	}
}

// OnSearchQuery 先回复"检索中"，再把同一条消息替换为结果.
func (f *Finder) OnSearchQuery(ctx context.Context, q SearchQuery) error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		metrics.SearchTotal.WithLabelValues(SurfaceChat, string(OutcomeEmpty)).Inc()

		_, err := f.out.Reply(ctx, q.ChatID, Reply{Text: SearchUsage})

		return err
	}

	l := log.WithTraceContext(ctx, f.logger)
	l.Info().Int64("user_id", q.UserID).Str("query", text).Msg("search query")

	msgID, err := f.out.Reply(ctx, q.ChatID, Reply{Text: SearchingText(text)})
	if err != nil {
		return err
	}

	results, outcome := f.matcher.MatchWithOutcome(ctx, text, f.opts.ChatLimit)
	metrics.SearchTotal.WithLabelValues(SurfaceChat, string(outcome)).Inc()

	return f.out.Edit(ctx, q.ChatID, msgID, f.presenter.Chat(ctx, results, text))
}

// OnResultSelected 投递文件并以弹窗告知结果.
func (f *Finder) OnResultSelected(ctx context.Context, s Selection) error {
	d := f.router.Deliver(ctx, s.Ref, s.UserID)
	return f.out.AnswerCallback(ctx, s.CallbackID, d.Notice, true)
}

// OnInlineQuery 应答内联检索.
func (f *Finder) OnInlineQuery(ctx context.Context, q InlineQuery) error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		metrics.SearchTotal.WithLabelValues(SurfaceInline, string(OutcomeEmpty)).Inc()
		return f.out.AnswerInline(ctx, q.ID, f.presenter.InlineEmpty())
	}

	results, outcome := f.matcher.MatchWithOutcome(ctx, text, f.opts.InlineLimit)
	metrics.SearchTotal.WithLabelValues(SurfaceInline, string(outcome)).Inc()

	return f.out.AnswerInline(ctx, q.ID, f.presenter.Inline(ctx, results, text))
}
