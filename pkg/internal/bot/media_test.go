package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/internal/model"
)

func TestExtractMedia(t *testing.T) {
	chat := &tgbotapi.Chat{ID: filesChat, Type: "channel"}

	tests := []struct {
		name     string
		msg      *tgbotapi.Message
		wantID   string
		wantType model.FileType
		wantSize int64
		wantName string
	}{
		{
			name:     "document",
			msg:      &tgbotapi.Message{Chat: chat, Document: &tgbotapi.Document{FileID: "d", FileName: "a.pdf", FileSize: 10}},
			wantID:   "d",
			wantType: model.FileTypeDocument,
			wantSize: 10,
			wantName: "a.pdf",
		},
		{
			name:     "audio",
			msg:      &tgbotapi.Message{Chat: chat, Audio: &tgbotapi.Audio{FileID: "a", FileName: "song.mp3", FileSize: 20}},
			wantID:   "a",
			wantType: model.FileTypeAudio,
			wantSize: 20,
			wantName: "song.mp3",
		},
		{
			name:     "video note",
			msg:      &tgbotapi.Message{Chat: chat, VideoNote: &tgbotapi.VideoNote{FileID: "vn", FileSize: 30}},
			wantID:   "vn",
			wantType: model.FileTypeVideo,
			wantSize: 30,
		},
		{
			name:     "voice",
			msg:      &tgbotapi.Message{Chat: chat, Voice: &tgbotapi.Voice{FileID: "v", FileSize: 5}},
			wantID:   "v",
			wantType: model.FileTypeVoice,
			wantSize: 5,
		},
		{
			name: "largest photo",
			msg: &tgbotapi.Message{Chat: chat, Photo: []tgbotapi.PhotoSize{
				{FileID: "small", FileSize: 100},
				{FileID: "big", FileSize: 900},
				{FileID: "mid", FileSize: 400},
			}},
			wantID:   "big",
			wantType: model.FileTypePhoto,
			wantSize: 900,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := extractMedia(tt.msg)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, m.FileID)
			assert.Equal(t, tt.wantType, m.FileType)
			assert.Equal(t, tt.wantSize, m.FileSize)
			assert.Equal(t, tt.wantName, m.FileName)
			assert.Equal(t, filesChat, m.ChatID)
		})
	}
}

func TestExtractMediaNone(t *testing.T) {
	_, ok := extractMedia(&tgbotapi.Message{Text: "hello", Chat: privateChat(userID)})
	assert.False(t, ok)

	_, ok = extractMedia(nil)
	assert.False(t, ok)

	_, ok = extractMedia(&tgbotapi.Message{Document: &tgbotapi.Document{}})
	assert.False(t, ok)
}
