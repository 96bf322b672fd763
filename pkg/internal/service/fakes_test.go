package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/db"
	"github.com/yeisme/filterbot/pkg/internal/storage/kv"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

// newSQLiteStore 每个测试使用独立的内存库.
func newSQLiteStore(t *testing.T) *db.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	client, err := db.New(context.Background(), configs.DBConfig{
		Type:         configs.SQLite,
		Database:     "file:svc_" + name + "?mode=memory&cache=shared",
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

// fakeStore 可注入错误的文件存储，未实现的方法会 panic.
type fakeStore struct {
	record.Store

	mu          sync.Mutex
	records     []model.FileRecord
	hasIndex    bool
	indexErr    error
	searchErr   error
	findErr     error
	incErr      error
	textCalls   int
	substrCalls int
	lastLimit   int
	increments  map[string]int64
}

func (s *fakeStore) FindByTextSearch(_ context.Context, _, _ string, limit int) ([]model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.textCalls++
	s.lastLimit = limit

	if !s.hasIndex {
		return nil, record.ErrTextSearchUnsupported
	}

	return s.records, s.searchErr
}

func (s *fakeStore) FindBySubstring(_ context.Context, _, text string, limit int) ([]model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.substrCalls++
	s.lastLimit = limit

	if s.searchErr != nil {
		return nil, s.searchErr
	}

	var out []model.FileRecord

	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.FileName), strings.ToLower(text)) {
			out = append(out, r)
		}
	}

	return out, nil
}

func (s *fakeStore) HasTextIndex(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasIndex, s.indexErr
}

func (s *fakeStore) FindOne(_ context.Context, _, value string) (model.FileRecord, error) {
	if s.findErr != nil {
		return model.FileRecord{}, s.findErr
	}

	for _, r := range s.records {
		if r.FileID == value {
			return r, nil
		}
	}

	return model.FileRecord{}, record.ErrNotFound
}

func (s *fakeStore) UpsertIncrement(_ context.Context, _, value, _ string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.incErr != nil {
		return s.incErr
	}

	if s.increments == nil {
		s.increments = map[string]int64{}
	}

	s.increments[value] += amount

	return nil
}

func (s *fakeStore) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.textCalls, s.substrCalls
}

type sentReply struct {
	ChatID int64
	Reply  Reply
}

type sentEdit struct {
	ChatID    int64
	MessageID int
	Reply     Reply
}

type callbackAnswer struct {
	ID    string
	Text  string
	Alert bool
}

// fakeResponder 记录所有输出.
type fakeResponder struct {
	mu        sync.Mutex
	replies   []sentReply
	edits     []sentEdit
	deleted   []int
	callbacks []callbackAnswer
	inline    map[string]InlineAnswer
	files     []FileMessage
	sendErr   error
	onSend    func()
	nextID    int
}

var _ Responder = (*fakeResponder)(nil)

func (r *fakeResponder) Reply(_ context.Context, chatID int64, rep Reply) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.replies = append(r.replies, sentReply{ChatID: chatID, Reply: rep})

	return r.nextID, nil
}

func (r *fakeResponder) Edit(_ context.Context, chatID int64, messageID int, rep Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.edits = append(r.edits, sentEdit{ChatID: chatID, MessageID: messageID, Reply: rep})

	return nil
}

func (r *fakeResponder) Delete(_ context.Context, _ int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleted = append(r.deleted, messageID)

	return nil
}

func (r *fakeResponder) AnswerCallback(_ context.Context, id, text string, alert bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbacks = append(r.callbacks, callbackAnswer{ID: id, Text: text, Alert: alert})

	return nil
}

func (r *fakeResponder) AnswerInline(_ context.Context, id string, a InlineAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inline == nil {
		r.inline = map[string]InlineAnswer{}
	}

	r.inline[id] = a

	return nil
}

func (r *fakeResponder) SendFile(_ context.Context, f FileMessage) error {
	if r.onSend != nil {
		r.onSend()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sendErr != nil {
		return r.sendErr
	}

	r.files = append(r.files, f)

	return nil
}

// recordingPublisher 记录发布的 topic.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics = append(p.topics, topic)

	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.topics...)
}

func searchConfig(mode configs.SearchMode) configs.SearchConfig {
	return configs.SearchConfig{
		Mode:              mode,
		ChatResultLimit:   configs.DefaultChatResultLimit,
		InlineResultLimit: configs.DefaultInlineResultLimit,
	}
}

func files(names ...string) []model.FileRecord {
	out := make([]model.FileRecord, 0, len(names))

	for i, n := range names {
		out = append(out, model.FileRecord{
			FileID:   "fid-" + string(rune('a'+i%26)) + strings.Repeat("x", i/26),
			FileName: n,
			FileType: model.FileTypeVideo,
			FileSize: 1 << 20,
		})
	}

	return out
}
