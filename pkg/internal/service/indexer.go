package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/metrics"
	"github.com/yeisme/filterbot/pkg/queue"
)

// captionFileName 说明文字末尾形如 name.ext 的文件名，可带查询串.
var captionFileName = regexp.MustCompile(`([^/\\&?]+\.[a-zA-Z0-9]+)(?:\?.*)?$`)

// Media 从消息中提取的媒体信息.
type Media struct {
	FileID   string
	FileName string
	FileType model.FileType
	FileSize int64
	MimeType string
	Caption  string
	ChatID   int64
}

// ResolveFileName 依次使用媒体自带文件名、说明文字中的文件名，
// 最后生成 file_<前 8 位 file_id>.<扩展名>.
func ResolveFileName(m Media) string {
	if name := strings.TrimSpace(m.FileName); name != "" {
		return name
	}

	if match := captionFileName.FindStringSubmatch(m.Caption); match != nil {
		if name := strings.TrimSpace(match[1]); name != "" {
			return name
		}
	}

	ext := string(m.FileType)
	if m.MimeType != "" {
		ext = m.MimeType[strings.LastIndex(m.MimeType, "/")+1:]
	}

	prefix := m.FileID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	return fmt.Sprintf("file_%s.%s", prefix, ext)
}

// Indexer 将频道中的媒体写入记录存储.
type Indexer struct {
	store  record.FileStore
	events queue.Publisher
	logger zerolog.Logger
}

// NewIndexer 创建索引器，events 为 nil 时不发布事件.
func NewIndexer(store record.FileStore, events queue.Publisher) *Indexer {
	return &Indexer{store: store, events: events, logger: log.Component("indexer")}
}

// Index 写入或更新文件记录，新建时发布 fb.file.indexed.
func (i *Indexer) Index(ctx context.Context, m Media) (model.FileRecord, bool, error) {
	if m.FileID == "" {
		return model.FileRecord{}, false, fmt.Errorf("index media: empty file_id")
	}

	rec := model.FileRecord{
		FileID:    m.FileID,
		FileName:  ResolveFileName(m),
		FileType:  m.FileType,
		FileSize:  m.FileSize,
		MimeType:  m.MimeType,
		Caption:   m.Caption,
		ChatID:    m.ChatID,
		DateAdded: time.Now().UTC(),
	}

	if rec.FileType == "" {
		rec.FileType = model.FileTypeUnknown
	}

	created, err := i.store.UpsertFile(ctx, rec)
	if err != nil {
		return rec, false, fmt.Errorf("index media: %w", err)
	}

	if !created {
		i.logger.Debug().Str("file_id", rec.FileID).Msg("file metadata updated")
		return rec, false, nil
	}

	metrics.IndexedFiles.WithLabelValues(string(rec.FileType)).Inc()
	i.logger.Info().Str("file_id", rec.FileID).Str("file_name", rec.FileName).Msg("file indexed")

	if i.events != nil {
		err := queue.PublishFileIndexed(ctx, i.events, queue.FileIndexedPayload{
			FileID:   rec.FileID,
			FileName: rec.FileName,
			FileType: string(rec.FileType),
			FileSize: rec.FileSize,
			ChatID:   rec.ChatID,
		})
		if err != nil {
			i.logger.Warn().Err(err).Msg("publish file indexed failed")
		}
	}

	return rec, true, nil
}
