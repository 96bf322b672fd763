package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
)

func TestStartRegistersAndWelcomes(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/start")})

	u, err := env.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Tony", u.FirstName)

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, service.WelcomeText("Tony"), msgs[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
}

func TestStartDeepLinkDeliversFile(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/start file_fid-1")})

	docs := env.api.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, userID, docs[0].ChatID)
	assert.Equal(t, tgbotapi.FileID("fid-1"), docs[0].File)
	assert.Empty(t, env.api.messages())

	rec, err := env.store.FindOne(context.Background(), "file_id", "fid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Downloads)
}

func TestStartDeepLinkUnknownFile(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/start file_missing")})

	assert.Empty(t, env.api.documents())

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, service.NoticeFileNotFound, msgs[0].Text)
}

func TestStartIgnoredInGroups(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	msg := commandMessage(userID, "/start")
	msg.Chat = &tgbotapi.Chat{ID: -5, Type: "supergroup", Title: "Movies"}

	env.handle(tgbotapi.Update{UpdateID: 1, Message: msg})

	assert.Empty(t, env.api.messages())

	n, err := env.store.CountChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPrivateTextSearches(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers(), model.FileRecord{FileID: "fid-2", FileName: "Up.mp4", FileType: model.FileTypeVideo})

	env.handle(tgbotapi.Update{UpdateID: 1, Message: textMessage(userID, "avengers")})

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, service.SearchingText("avengers"), msgs[0].Text)

	edits := env.api.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, 1, edits[0].MessageID)
	assert.Equal(t, "🎬 *1 result found for* `avengers`", edits[0].Text)

	require.NotNil(t, edits[0].ReplyMarkup)
	rows := edits[0].ReplyMarkup.InlineKeyboard
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0][0].CallbackData)
	assert.Equal(t, "file_fid-1", *rows[0][0].CallbackData)
	require.NotNil(t, rows[1][0].SwitchInlineQueryCurrentChat)
	assert.Empty(t, *rows[1][0].SwitchInlineQueryCurrentChat)
}

func TestGroupTextIsNotSearched(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	msg := textMessage(userID, "avengers")
	msg.Chat = &tgbotapi.Chat{ID: -5, Type: "group"}

	env.handle(tgbotapi.Update{UpdateID: 1, Message: msg})

	assert.Empty(t, env.api.messages())
	assert.Empty(t, env.api.edits())
}

func TestSearchCommandWorksInGroups(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	msg := commandMessage(userID, "/search avengers")
	msg.Chat = &tgbotapi.Chat{ID: -5, Type: "group"}

	env.handle(tgbotapi.Update{UpdateID: 1, Message: msg})

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(-5), msgs[0].ChatID)
	require.Len(t, env.api.edits(), 1)
}

func TestSelectResultDeliversToRequester(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	group := &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: -5, Type: "group"}}
	env.handle(tgbotapi.Update{UpdateID: 1, CallbackQuery: callback(userID, "file_fid-1", group)})

	docs := env.api.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, userID, docs[0].ChatID)

	cbs := env.api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, service.NoticeDelivered, cbs[0].Text)
	assert.True(t, cbs[0].ShowAlert)
}

func TestSelectResultUnknownFile(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	env.handle(tgbotapi.Update{UpdateID: 1, CallbackQuery: callback(userID, "file_gone", nil)})

	assert.Empty(t, env.api.documents())

	cbs := env.api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, service.NoticeFileNotFound, cbs[0].Text)
}

func TestUnknownCallback(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	env.handle(tgbotapi.Update{UpdateID: 1, CallbackQuery: callback(userID, "nope", nil)})

	cbs := env.api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, service.NoticeUnknownAction, cbs[0].Text)
	assert.True(t, cbs[0].ShowAlert)
}

func TestHelpCallbackEditsInPlace(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	msg := &tgbotapi.Message{MessageID: 9, Chat: privateChat(userID)}
	env.handle(tgbotapi.Update{UpdateID: 1, CallbackQuery: callback(userID, service.CallbackHelp, msg)})

	edits := env.api.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, 9, edits[0].MessageID)
	assert.Equal(t, service.HelpText("filterbot"), edits[0].Text)
	require.Len(t, env.api.callbacks(), 1)
}

func TestStatsCallbackRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	msg := &tgbotapi.Message{MessageID: 9, Chat: privateChat(userID)}
	env.handle(tgbotapi.Update{UpdateID: 1, CallbackQuery: callback(userID, service.CallbackStats, msg)})

	assert.Empty(t, env.api.edits())

	cbs := env.api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, service.NoticeStatsForbidden, cbs[0].Text)
}

func TestStatsCommand(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(adminID, "/stats")})

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, service.NoticeStatsFetching, msgs[0].Text)

	edits := env.api.edits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "*Total Files:* `1`")
}

func TestStatsCommandForbidden(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/stats")})

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, service.NoticeStatsForbidden, msgs[0].Text)
	assert.Empty(t, env.api.edits())
}

func TestCloseStatsOnlyByRequester(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	stats := &tgbotapi.Message{
		MessageID:      11,
		Chat:           privateChat(adminID),
		ReplyToMessage: &tgbotapi.Message{From: &tgbotapi.User{ID: adminID}},
	}

	env.handle(tgbotapi.Update{UpdateID: 1, CallbackQuery: callback(userID, service.CallbackCloseStats, stats)})

	assert.Empty(t, env.api.deletes())
	require.Len(t, env.api.callbacks(), 1)
	assert.Equal(t, service.NoticeStatsNotYours, env.api.callbacks()[0].Text)

	env.handle(tgbotapi.Update{UpdateID: 2, CallbackQuery: callback(adminID, service.CallbackCloseStats, stats)})

	dels := env.api.deletes()
	require.Len(t, dels, 1)
	assert.Equal(t, 11, dels[0].MessageID)
}

func TestInlineQuery(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	q := &tgbotapi.InlineQuery{ID: "iq-1", From: &tgbotapi.User{ID: userID}, Query: "avengers"}
	env.handle(tgbotapi.Update{UpdateID: 1, InlineQuery: q})

	ins := env.api.inlines()
	require.Len(t, ins, 1)
	assert.Equal(t, "iq-1", ins[0].InlineQueryID)
	require.Len(t, ins[0].Results, 1)

	art, ok := ins[0].Results[0].(tgbotapi.InlineQueryResultArticle)
	require.True(t, ok)
	assert.Equal(t, "Avengers Endgame.mkv", art.Title)
	require.NotNil(t, art.ReplyMarkup)
	assert.Equal(t, "file_fid-1", *art.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestBannedUserIgnored(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)
	env.seed(t, avengers())

	ctx := context.Background()
	_, err := env.store.AddUser(ctx, model.UserRecord{UserID: userID, FirstName: "Tony"})
	require.NoError(t, err)
	require.NoError(t, env.store.SetBanned(ctx, userID, true))

	env.handle(tgbotapi.Update{UpdateID: 1, Message: textMessage(userID, "avengers")})

	assert.Empty(t, env.api.messages())
}

func TestBanCommand(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	ctx := context.Background()
	_, err := env.store.AddUser(ctx, model.UserRecord{UserID: userID, FirstName: "Tony"})
	require.NoError(t, err)

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(adminID, "/ban 42")})

	u, err := env.store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, u.Banned)

	env.handle(tgbotapi.Update{UpdateID: 2, Message: commandMessage(adminID, "/unban 42")})

	u, err = env.store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.False(t, u.Banned)

	env.handle(tgbotapi.Update{UpdateID: 3, Message: commandMessage(adminID, "/ban 777")})

	msgs := env.api.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "❌ User `777` not found.", msgs[2].Text)
}

func TestBanCommandIgnoredForUsers(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/ban 1")})

	assert.Empty(t, env.api.messages())
}

func TestRateLimitedUpdatesDropped(t *testing.T) {
	limiter := NewLimiter(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, MaxUsers: 10, IdleTTL: time.Minute})
	env := newTestEnv(t, testBotConfig(), limiter)

	env.handle(tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/help")})
	env.handle(tgbotapi.Update{UpdateID: 2, Message: commandMessage(userID, "/help")})

	assert.Len(t, env.api.messages(), 1)

	env.handle(tgbotapi.Update{UpdateID: 3, Message: commandMessage(adminID, "/help")})
	env.handle(tgbotapi.Update{UpdateID: 4, Message: commandMessage(adminID, "/help")})

	assert.Len(t, env.api.messages(), 3)
}

func TestBotsAreIgnored(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	msg := commandMessage(userID, "/help")
	msg.From.IsBot = true

	env.handle(tgbotapi.Update{UpdateID: 1, Message: msg})

	assert.Empty(t, env.api.messages())
}

func TestChannelPostIndexed(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	post := &tgbotapi.Message{
		MessageID: 100,
		Chat:      &tgbotapi.Chat{ID: filesChat, Type: "channel"},
		Document:  &tgbotapi.Document{FileID: "doc-1", FileName: "Inception.2010.mkv", FileSize: 1024, MimeType: "video/x-matroska"},
	}

	env.handle(tgbotapi.Update{UpdateID: 1, ChannelPost: post})

	rec, err := env.store.FindOne(context.Background(), "file_id", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Inception.2010.mkv", rec.FileName)
	assert.Equal(t, filesChat, rec.ChatID)
	assert.Empty(t, env.api.messages())
}

func TestChannelPostFromOtherChannelSkipped(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	post := &tgbotapi.Message{
		MessageID: 100,
		Chat:      &tgbotapi.Chat{ID: -999, Type: "channel"},
		Document:  &tgbotapi.Document{FileID: "doc-1", FileName: "Inception.mkv"},
	}

	env.handle(tgbotapi.Update{UpdateID: 1, ChannelPost: post})

	n, err := env.store.CountFiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdminForwardIndexes(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	msg := textMessage(adminID, "")
	msg.Video = &tgbotapi.Video{FileID: "vid-1", FileName: "Up.mp4", FileSize: 2048}
	msg.ForwardFromChat = &tgbotapi.Chat{ID: filesChat, Type: "channel"}

	env.handle(tgbotapi.Update{UpdateID: 1, Message: msg})
	env.handle(tgbotapi.Update{UpdateID: 2, Message: msg})

	msgs := env.api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "✅ Indexed `Up.mp4`", msgs[0].Text)
	assert.Equal(t, "♻️ Updated `Up.mp4`", msgs[1].Text)

	rec, err := env.store.FindOne(context.Background(), "file_id", "vid-1")
	require.NoError(t, err)
	assert.Equal(t, model.FileTypeVideo, rec.FileType)
	assert.Equal(t, filesChat, rec.ChatID)
}

func TestAdminForwardNameWithBacktick(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	msg := textMessage(adminID, "")
	msg.Document = &tgbotapi.Document{FileID: "doc-9", FileName: "Tom`s Cut.mkv"}

	env.handle(tgbotapi.Update{UpdateID: 1, Message: msg})

	msgs := env.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "✅ Indexed `Tom's Cut.mkv`", msgs[0].Text)
	assert.Equal(t, 2, strings.Count(msgs[0].Text, "`"))
}

func TestRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, testBotConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- env.bot.Run(ctx) }()

	env.api.updates <- tgbotapi.Update{UpdateID: 1, Message: commandMessage(userID, "/help")}

	require.Eventually(t, func() bool { return len(env.api.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCommandsList(t *testing.T) {
	names := make([]string, 0, len(Commands()))
	for _, c := range Commands() {
		names = append(names, c.Command)
	}

	assert.Equal(t, []string{"start", "help", "search", "stats", "about"}, names)
}
