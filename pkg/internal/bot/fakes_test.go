package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/cache"
	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/internal/storage/db"
	"github.com/yeisme/filterbot/pkg/internal/storage/kv"
)

const (
	adminID   int64 = 1
	userID    int64 = 42
	botURL          = "https://t.me/filterbot"
	filesChat int64 = -1001
)

// fakeAPI 记录所有发出的 Chattable.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	sendErr  error
	updates  chan tgbotapi.Update
	stopOnce sync.Once
}

var _ API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}

	f.nextID++
	f.sent = append(f.sent, c)

	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.stopOnce.Do(func() { close(f.updates) })
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.MessageConfig

	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}

	return out
}

func (f *fakeAPI) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.DocumentConfig

	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}

	return out
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.EditMessageTextConfig

	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}

	return out
}

func (f *fakeAPI) callbacks() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.CallbackConfig

	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}

	return out
}

func (f *fakeAPI) inlines() []tgbotapi.InlineConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.InlineConfig

	for _, c := range f.requests {
		if in, ok := c.(tgbotapi.InlineConfig); ok {
			out = append(out, in)
		}
	}

	return out
}

func (f *fakeAPI) deletes() []tgbotapi.DeleteMessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.DeleteMessageConfig

	for _, c := range f.requests {
		if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			out = append(out, d)
		}
	}

	return out
}

func newSQLiteStore(t *testing.T) *db.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	client, err := db.New(context.Background(), configs.DBConfig{
		Type:         configs.SQLite,
		Database:     "file:bot_" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, db.Options{})
	require.NoError(t, err)

	store := db.NewStore(client)
	require.NoError(t, store.EnsureIndexes(context.Background()))

	t.Cleanup(func() { _ = store.Close(context.Background()) })

	return store
}

func newMemoryKV(t *testing.T) kv.KVStore {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), configs.KVConfig{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	return store
}

type testEnv struct {
	bot   *Bot
	api   *fakeAPI
	store *db.Store
}

func testBotConfig() configs.BotConfig {
	return configs.BotConfig{
		Token:          "test-token",
		Admins:         []int64{adminID},
		FilesChannelID: filesChat,
		AutoIndex:      true,
		Workers:        4,
	}
}

// newTestEnv 在内存 SQLite 与内存 KV 上装配完整的机器人.
func newTestEnv(t *testing.T, cfg configs.BotConfig, limiter *Limiter) *testEnv {
	t.Helper()

	ctx := context.Background()
	store := newSQLiteStore(t)
	kvs := newMemoryKV(t)
	api := newFakeAPI()
	out := NewResponder(api)

	refs := service.NewRefCodec(kvs, time.Hour)
	presenter := service.NewPresenter(refs, botURL)
	matcher := service.NewMatcher(ctx, store, configs.SearchConfig{Mode: configs.SearchModeSubstring}, configs.CircuitBreakerConfig{})
	router := service.NewDownloadRouter(store, refs, presenter, out, nil)

	deps := Deps{
		Search:    service.NewFinder(matcher, presenter, router, out, service.FinderOptions{}),
		Router:    router,
		Presenter: presenter,
		Users:     service.NewUserService(store, store, nil),
		Stats:     service.NewStatsService(store, cache.NewCache(kvs, "stats:"), time.Minute, time.Now()),
		Indexer:   service.NewIndexer(store, nil),
		Limiter:   limiter,
		StoreKind: store.Kind(),
		Version:   "test",
	}

	return &testEnv{
		bot:   New(api, out, "filterbot", cfg, deps),
		api:   api,
		store: store,
	}
}

func (e *testEnv) seed(t *testing.T, recs ...model.FileRecord) {
	t.Helper()

	for _, r := range recs {
		_, err := e.store.UpsertFile(context.Background(), r)
		require.NoError(t, err)
	}
}

func (e *testEnv) handle(upd tgbotapi.Update) {
	e.bot.Handle(context.Background(), upd)
}

func privateChat(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "private"}
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: from, FirstName: "Tony", UserName: "tony"},
		Chat:      privateChat(from),
		Text:      text,
	}
}

func commandMessage(from int64, text string) *tgbotapi.Message {
	msg := textMessage(from, text)
	cmd, _, _ := strings.Cut(text, " ")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}

	return msg
}

func callback(from int64, data string, msg *tgbotapi.Message) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: from, FirstName: "Tony"},
		Message: msg,
		Data:    data,
	}
}

func avengers() model.FileRecord {
	return model.FileRecord{
		FileID:    "fid-1",
		FileName:  "Avengers Endgame.mkv",
		FileType:  model.FileTypeDocument,
		FileSize:  2 << 30,
		DateAdded: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
