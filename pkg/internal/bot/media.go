package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
)

// extractMedia 提取消息中的媒体，没有可索引的媒体时返回 false.
// 照片取最大尺寸.
func extractMedia(msg *tgbotapi.Message) (service.Media, bool) {
	if msg == nil {
		return service.Media{}, false
	}

	m := service.Media{Caption: msg.Caption}
	if msg.Chat != nil {
		m.ChatID = msg.Chat.ID
	}

	switch {
	case msg.Audio != nil:
		a := msg.Audio
		m.FileID, m.FileName, m.MimeType, m.FileSize = a.FileID, a.FileName, a.MimeType, int64(a.FileSize)
		m.FileType = model.FileTypeAudio
	case msg.Document != nil:
		d := msg.Document
		m.FileID, m.FileName, m.MimeType, m.FileSize = d.FileID, d.FileName, d.MimeType, int64(d.FileSize)
		m.FileType = model.FileTypeDocument
	case msg.Video != nil:
		v := msg.Video
		m.FileID, m.FileName, m.MimeType, m.FileSize = v.FileID, v.FileName, v.MimeType, int64(v.FileSize)
		m.FileType = model.FileTypeVideo
	case msg.Voice != nil:
		v := msg.Voice
		m.FileID, m.MimeType, m.FileSize = v.FileID, v.MimeType, int64(v.FileSize)
		m.FileType = model.FileTypeVoice
	case msg.VideoNote != nil:
		v := msg.VideoNote
		m.FileID, m.FileSize = v.FileID, int64(v.FileSize)
		m.FileType = model.ParseFileType("video_note")
	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.FileSize > best.FileSize {
				best = p
			}
		}

		m.FileID, m.FileSize = best.FileID, int64(best.FileSize)
		m.FileType = model.FileTypePhoto
	default:
		return service.Media{}, false
	}

	return m, m.FileID != ""
}
