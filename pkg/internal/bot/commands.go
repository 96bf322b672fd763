package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}

	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		if _, err := b.deps.Users.RegisterChat(ctx, model.ChatRecord{
			ChatID: msg.Chat.ID,
			Type:   msg.Chat.Type,
			Title:  msg.Chat.Title,
		}); err != nil {
			b.logger.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("register chat failed")
		}
	}

	if msg.IsCommand() {
		return b.onCommand(ctx, msg)
	}

	if !msg.Chat.IsPrivate() {
		return nil
	}

	if media, ok := extractMedia(msg); ok {
		if !b.cfg.IsAdmin(msg.From.ID) {
			return nil
		}

		return b.indexForwarded(ctx, msg, media)
	}

	return b.deps.Search.OnSearchQuery(ctx, service.SearchQuery{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		Text:   msg.Text,
	})
}

func (b *Bot) onCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		if !msg.Chat.IsPrivate() {
			return nil
		}

		return b.onStart(ctx, msg)
	case "help":
		_, err := b.out.Reply(ctx, chatID, b.helpReply())
		return err
	case "about":
		_, err := b.out.Reply(ctx, chatID, b.aboutReply())
		return err
	case "search":
		return b.deps.Search.OnSearchQuery(ctx, service.SearchQuery{
			ChatID: chatID,
			UserID: msg.From.ID,
			Text:   msg.CommandArguments(),
		})
	case "stats":
		return b.onStats(ctx, msg)
	case "ban", "unban":
		return b.onBan(ctx, msg, msg.Command() == "ban")
	default:
		return nil
	}
}

// onStart 登记用户；带文件引用参数时直接投递该文件.
func (b *Bot) onStart(ctx context.Context, msg *tgbotapi.Message) error {
	user := msg.From

	if _, err := b.deps.Users.Register(ctx, model.UserRecord{
		UserID:    user.ID,
		Username:  user.UserName,
		FirstName: user.FirstName,
	}); err != nil {
		b.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("register user failed")
	}

	payload := strings.TrimSpace(msg.CommandArguments())

	switch {
	case service.IsRef(payload):
		d := b.deps.Router.Deliver(ctx, payload, user.ID)
		if d.Outcome == service.Delivered {
			return nil
		}

		_, err := b.out.Reply(ctx, msg.Chat.ID, service.Reply{Text: d.Notice})

		return err
	case payload == "help":
		_, err := b.out.Reply(ctx, msg.Chat.ID, b.helpReply())
		return err
	default:
		_, err := b.out.Reply(ctx, msg.Chat.ID, service.Reply{
			Text:     service.WelcomeText(user.FirstName),
			Keyboard: service.WelcomeKeyboard(),
		})

		return err
	}
}

func (b *Bot) onStats(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if !b.cfg.IsAdmin(msg.From.ID) {
		_, err := b.out.Reply(ctx, chatID, service.Reply{Text: service.NoticeStatsForbidden})
		return err
	}

	msgID, err := b.out.Reply(ctx, chatID, service.Reply{Text: service.NoticeStatsFetching})
	if err != nil {
		return err
	}

	rep, err := b.deps.Stats.Render(ctx, false)
	if err != nil {
		b.logger.Error().Err(err).Msg("fetch statistics failed")
		rep = service.Reply{Text: service.NoticeStatsFailed}
	}

	return b.out.Edit(ctx, chatID, msgID, rep)
}

// onBan 管理员命令：/ban <user_id>、/unban <user_id>.
func (b *Bot) onBan(ctx context.Context, msg *tgbotapi.Message, banned bool) error {
	if !b.cfg.IsAdmin(msg.From.ID) {
		return nil
	}

	chatID := msg.Chat.ID

	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		_, err := b.out.Reply(ctx, chatID, service.Reply{Text: "Usage: `/" + msg.Command() + " <user_id>`"})
		return err
	}

	text := "✅ User `" + strconv.FormatInt(id, 10) + "` unbanned."
	if banned {
		text = "🚫 User `" + strconv.FormatInt(id, 10) + "` banned."
	}

	if err := b.deps.Users.SetBanned(ctx, id, banned); err != nil {
		if !errors.Is(err, record.ErrNotFound) {
			return err
		}

		text = "❌ User `" + strconv.FormatInt(id, 10) + "` not found."
	}

	_, err = b.out.Reply(ctx, chatID, service.Reply{Text: text})

	return err
}

func (b *Bot) indexForwarded(ctx context.Context, msg *tgbotapi.Message, media service.Media) error {
	if msg.ForwardFromChat != nil {
		media.ChatID = msg.ForwardFromChat.ID
	}

	rec, created, err := b.deps.Indexer.Index(ctx, media)
	if err != nil {
		return err
	}

	_, err = b.out.Reply(ctx, msg.Chat.ID, service.Reply{Text: service.IndexedText(rec.FileName, created)})

	return err
}

// onChannelPost 索引文件频道中的媒体.
func (b *Bot) onChannelPost(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil || !b.cfg.AutoIndex || msg.Chat.ID != b.cfg.FilesChannelID {
		return
	}

	media, ok := extractMedia(msg)
	if !ok {
		return
	}

	if _, _, err := b.deps.Indexer.Index(ctx, media); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Int("message_id", msg.MessageID).Msg("index channel post failed")
	}
}

func (b *Bot) helpReply() service.Reply {
	return service.Reply{
		Text:     service.HelpText(b.username),
		Keyboard: service.HelpKeyboard(b.deps.Presenter.BotURL()),
	}
}

func (b *Bot) aboutReply() service.Reply {
	return service.Reply{
		Text:     service.AboutText(b.deps.StoreKind, b.deps.Version),
		Keyboard: service.AboutKeyboard(),
	}
}
