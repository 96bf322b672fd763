package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
)

func TestResponderReplyKeyboard(t *testing.T) {
	api := newFakeAPI()
	r := NewResponder(api)

	id, err := r.Reply(context.Background(), 5, service.Reply{
		Text: "hi",
		Keyboard: service.Keyboard{
			{service.CallbackButton("1. a", "file_a")},
			{service.SwitchInlineButton("🔍 New Search", ""), service.URLButton("Open", "https://t.me/filterbot")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].DisableWebPagePreview)

	kb, ok := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "file_a", *kb.InlineKeyboard[0][0].CallbackData)

	sw := kb.InlineKeyboard[1][0]
	require.NotNil(t, sw.SwitchInlineQueryCurrentChat)
	assert.Empty(t, *sw.SwitchInlineQueryCurrentChat)
	assert.Nil(t, sw.CallbackData)
	assert.Equal(t, "https://t.me/filterbot", *kb.InlineKeyboard[1][1].URL)
}

func TestResponderReplyError(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = errors.New("forbidden")

	_, err := NewResponder(api).Reply(context.Background(), 5, service.Reply{Text: "hi"})
	require.ErrorIs(t, err, api.sendErr)
}

func TestResponderEditWithoutKeyboard(t *testing.T) {
	api := newFakeAPI()

	require.NoError(t, NewResponder(api).Edit(context.Background(), 5, 3, service.Reply{Text: "done"}))

	edits := api.edits()
	require.Len(t, edits, 1)
	assert.Nil(t, edits[0].ReplyMarkup)
	assert.Equal(t, tgbotapi.ModeMarkdown, edits[0].ParseMode)
}

func TestResponderAnswerCallback(t *testing.T) {
	api := newFakeAPI()
	r := NewResponder(api)

	require.NoError(t, r.AnswerCallback(context.Background(), "c1", "sent", true))
	require.NoError(t, r.AnswerCallback(context.Background(), "c2", "", false))

	cbs := api.callbacks()
	require.Len(t, cbs, 2)
	assert.True(t, cbs[0].ShowAlert)
	assert.False(t, cbs[1].ShowAlert)
}

func TestResponderAnswerInlinePrompt(t *testing.T) {
	api := newFakeAPI()

	err := NewResponder(api).AnswerInline(context.Background(), "q1", service.InlineAnswer{
		CacheTime:     1,
		IsPersonal:    true,
		SwitchPMText:  "Type a movie name",
		SwitchPMParam: "start",
	})
	require.NoError(t, err)

	ins := api.inlines()
	require.Len(t, ins, 1)
	assert.Empty(t, ins[0].Results)
	assert.Equal(t, "start", ins[0].SwitchPMParameter)
	assert.True(t, ins[0].IsPersonal)
}

func TestResponderSendFileByType(t *testing.T) {
	tests := []struct {
		fileType model.FileType
		check    func(t *testing.T, c tgbotapi.Chattable)
	}{
		{model.FileTypeAudio, func(t *testing.T, c tgbotapi.Chattable) { assert.IsType(t, tgbotapi.AudioConfig{}, c) }},
		{model.FileTypeVideo, func(t *testing.T, c tgbotapi.Chattable) { assert.IsType(t, tgbotapi.VideoConfig{}, c) }},
		{model.FileTypePhoto, func(t *testing.T, c tgbotapi.Chattable) { assert.IsType(t, tgbotapi.PhotoConfig{}, c) }},
		{model.FileTypeVoice, func(t *testing.T, c tgbotapi.Chattable) { assert.IsType(t, tgbotapi.VoiceConfig{}, c) }},
		{model.FileTypeDocument, func(t *testing.T, c tgbotapi.Chattable) { assert.IsType(t, tgbotapi.DocumentConfig{}, c) }},
		{model.FileTypeUnknown, func(t *testing.T, c tgbotapi.Chattable) { assert.IsType(t, tgbotapi.DocumentConfig{}, c) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.fileType), func(t *testing.T) {
			api := newFakeAPI()

			err := NewResponder(api).SendFile(context.Background(), service.FileMessage{
				ChatID:   userID,
				FileID:   "fid",
				FileType: tt.fileType,
				Caption:  "📁 *File:* `x`",
			})
			require.NoError(t, err)
			require.Len(t, api.sent, 1)
			tt.check(t, api.sent[0])
		})
	}
}

func TestResponderSendFileCaption(t *testing.T) {
	api := newFakeAPI()

	err := NewResponder(api).SendFile(context.Background(), service.FileMessage{
		ChatID:   userID,
		FileID:   "fid",
		FileType: model.FileTypeDocument,
		Caption:  "caption",
		Keyboard: service.Keyboard{{service.SwitchInlineButton("🔍 Search Again", "")}},
	})
	require.NoError(t, err)

	docs := api.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "caption", docs[0].Caption)
	assert.Equal(t, tgbotapi.ModeMarkdown, docs[0].ParseMode)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, docs[0].ReplyMarkup)
}

func TestResponderHonoursCancelledContext(t *testing.T) {
	api := newFakeAPI()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewResponder(api).SendFile(ctx, service.FileMessage{ChatID: 1, FileID: "x"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}
