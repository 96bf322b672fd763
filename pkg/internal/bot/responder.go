package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
)

// API Telegram Bot API 中机器人用到的部分，*tgbotapi.BotAPI 满足该接口.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Responder 通过 Bot API 实现 service.Responder，消息统一使用 Markdown.
type Responder struct {
	api API
}

var _ service.Responder = (*Responder)(nil)

// NewResponder 创建 Responder.
func NewResponder(api API) *Responder {
	return &Responder{api: api}
}

// Reply 发送消息.
func (r *Responder) Reply(ctx context.Context, chatID int64, rep service.Reply) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(chatID, rep.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if len(rep.Keyboard) > 0 {
		msg.ReplyMarkup = markup(rep.Keyboard)
	}

	sent, err := r.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}

	return sent.MessageID, nil
}

// Edit 替换消息文本与键盘.
func (r *Responder) Edit(ctx context.Context, chatID int64, messageID int, rep service.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var edit tgbotapi.EditMessageTextConfig
	if len(rep.Keyboard) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, rep.Text, markup(rep.Keyboard))
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, rep.Text)
	}

	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true

	if _, err := r.api.Request(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}

	return nil
}

// Delete 删除消息.
func (r *Responder) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	return nil
}

// AnswerCallback 应答回调查询.
func (r *Responder) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}

	if _, err := r.api.Request(cb); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}

	return nil
}

// AnswerInline 应答内联查询.
func (r *Responder) AnswerInline(_ context.Context, queryID string, a service.InlineAnswer) error {
	results := make([]any, 0, len(a.Results))

	for _, art := range a.Results {
		res := tgbotapi.NewInlineQueryResultArticleMarkdown(art.ID, art.Title, art.MessageText)
		res.Description = art.Description

		if len(art.Keyboard) > 0 {
			kb := markup(art.Keyboard)
			res.ReplyMarkup = &kb
		}

		results = append(results, res)
	}

	cfg := tgbotapi.InlineConfig{
		InlineQueryID:     queryID,
		Results:           results,
		CacheTime:         a.CacheTime,
		IsPersonal:        a.IsPersonal,
		SwitchPMText:      a.SwitchPMText,
		SwitchPMParameter: a.SwitchPMParam,
	}

	if _, err := r.api.Request(cfg); err != nil {
		return fmt.Errorf("answer inline query: %w", err)
	}

	return nil
}

// SendFile 按文件类型用 file_id 重新发送媒体.
func (r *Responder) SendFile(ctx context.Context, f service.FileMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := r.api.Send(fileConfig(f)); err != nil {
		return fmt.Errorf("send %s: %w", f.FileType, err)
	}

	return nil
}

func fileConfig(f service.FileMessage) tgbotapi.Chattable {
	file := tgbotapi.FileID(f.FileID)

	var kb any
	if len(f.Keyboard) > 0 {
		kb = markup(f.Keyboard)
	}

	switch f.FileType {
	case model.FileTypeAudio:
		c := tgbotapi.NewAudio(f.ChatID, file)
		c.Caption, c.ParseMode, c.ReplyMarkup = f.Caption, tgbotapi.ModeMarkdown, kb

		return c
	case model.FileTypeVideo:
		c := tgbotapi.NewVideo(f.ChatID, file)
		c.Caption, c.ParseMode, c.ReplyMarkup = f.Caption, tgbotapi.ModeMarkdown, kb

		return c
	case model.FileTypePhoto:
		c := tgbotapi.NewPhoto(f.ChatID, file)
		c.Caption, c.ParseMode, c.ReplyMarkup = f.Caption, tgbotapi.ModeMarkdown, kb

		return c
	case model.FileTypeVoice:
		c := tgbotapi.NewVoice(f.ChatID, file)
		c.Caption, c.ParseMode, c.ReplyMarkup = f.Caption, tgbotapi.ModeMarkdown, kb

		return c
	default:
		c := tgbotapi.NewDocument(f.ChatID, file)
		c.Caption, c.ParseMode, c.ReplyMarkup = f.Caption, tgbotapi.ModeMarkdown, kb

		return c
	}
}

// markup 转换为 Telegram 内联键盘.
func markup(kb service.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))

	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))

		for _, b := range row {
			buttons = append(buttons, button(b))
		}

		rows = append(rows, buttons)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func button(b service.Button) tgbotapi.InlineKeyboardButton {
	switch {
	case b.SwitchInline != nil:
		q := *b.SwitchInline
		return tgbotapi.InlineKeyboardButton{Text: b.Text, SwitchInlineQueryCurrentChat: &q}
	case b.URL != "":
		return tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL)
	default:
		return tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)
	}
}
