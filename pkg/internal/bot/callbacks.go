package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filterbot/pkg/internal/service"
)

func (b *Bot) onCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if service.IsRef(cq.Data) {
		return b.deps.Search.OnResultSelected(ctx, service.Selection{
			CallbackID: cq.ID,
			UserID:     cq.From.ID,
			Ref:        cq.Data,
		})
	}

	switch cq.Data {
	case service.CallbackHelp, service.CallbackBackToHelp:
		return b.editInPlace(ctx, cq, b.helpReply())
	case service.CallbackAbout:
		return b.editInPlace(ctx, cq, b.aboutReply())
	case service.CallbackStats:
		if !b.cfg.IsAdmin(cq.From.ID) {
			return b.out.AnswerCallback(ctx, cq.ID, service.NoticeStatsForbidden, true)
		}

		return b.showStats(ctx, cq, false)
	case service.CallbackRefreshStats:
		if !b.cfg.IsAdmin(cq.From.ID) {
			return b.out.AnswerCallback(ctx, cq.ID, service.NoticeStatsRefreshForbidden, true)
		}

		return b.showStats(ctx, cq, true)
	case service.CallbackCloseStats:
		return b.closeStats(ctx, cq)
	default:
		return b.out.AnswerCallback(ctx, cq.ID, service.NoticeUnknownAction, true)
	}
}

// editInPlace 用新内容替换按钮所在的消息.
func (b *Bot) editInPlace(ctx context.Context, cq *tgbotapi.CallbackQuery, rep service.Reply) error {
	if cq.Message == nil || cq.Message.Chat == nil {
		return b.out.AnswerCallback(ctx, cq.ID, "", false)
	}

	if err := b.out.Edit(ctx, cq.Message.Chat.ID, cq.Message.MessageID, rep); err != nil {
		_ = b.out.AnswerCallback(ctx, cq.ID, service.NoticeGenericError, true)
		return err
	}

	return b.out.AnswerCallback(ctx, cq.ID, "", false)
}

func (b *Bot) showStats(ctx context.Context, cq *tgbotapi.CallbackQuery, refresh bool) error {
	if cq.Message == nil || cq.Message.Chat == nil {
		return b.out.AnswerCallback(ctx, cq.ID, "", false)
	}

	rep, err := b.deps.Stats.Render(ctx, refresh)
	if err != nil {
		b.logger.Error().Err(err).Bool("refresh", refresh).Msg("fetch statistics failed")
		return b.out.AnswerCallback(ctx, cq.ID, service.NoticeStatsRefreshFailed, true)
	}

	if err := b.out.Edit(ctx, cq.Message.Chat.ID, cq.Message.MessageID, rep); err != nil {
		return err
	}

	notice := ""
	if refresh {
		notice = service.NoticeStatsRefreshing
	}

	return b.out.AnswerCallback(ctx, cq.ID, notice, false)
}

// closeStats 只允许发起 /stats 的用户关闭统计消息.
func (b *Bot) closeStats(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	msg := cq.Message
	if msg == nil || msg.Chat == nil {
		return b.out.AnswerCallback(ctx, cq.ID, "", false)
	}

	if orig := msg.ReplyToMessage; orig != nil && orig.From != nil && orig.From.ID != cq.From.ID {
		return b.out.AnswerCallback(ctx, cq.ID, service.NoticeStatsNotYours, true)
	}

	if orig := msg.ReplyToMessage; orig == nil && !b.cfg.IsAdmin(cq.From.ID) {
		return b.out.AnswerCallback(ctx, cq.ID, service.NoticeStatsNotYours, true)
	}

	if err := b.out.Delete(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		return err
	}

	return b.out.AnswerCallback(ctx, cq.ID, service.NoticeStatsClosed, false)
}
