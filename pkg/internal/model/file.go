// Package model 定义机器人持久化的数据模型，同时携带 bson 与 gorm 标签，
// 以便 MongoDB 与 SQL 两种记录存储共用同一结构.
package model

import (
	"strings"
	"time"
)

// FileType 媒体文件类型.
type FileType string

const (
	FileTypeAudio    FileType = "audio"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
	FileTypePhoto    FileType = "photo"
	FileTypeVoice    FileType = "voice"
	FileTypeUnknown  FileType = "unknown"
)

// ParseFileType 解析文件类型，未知值返回 FileTypeUnknown.
func ParseFileType(s string) FileType {
	switch t := FileType(s); t {
	case FileTypeAudio, FileTypeVideo, FileTypeDocument, FileTypePhoto, FileTypeVoice:
		return t
	case "video_note":
		return FileTypeVideo
	default:
		return FileTypeUnknown
	}
}

// Label 返回用于展示的大写类型名.
func (t FileType) Label() string {
	switch t {
	case FileTypeAudio:
		return "AUDIO"
	case FileTypeVideo:
		return "VIDEO"
	case FileTypeDocument:
		return "DOCUMENT"
	case FileTypePhoto:
		return "PHOTO"
	case FileTypeVoice:
		return "VOICE"
	default:
		return "UNKNOWN"
	}
}

// FileRecord 已索引的媒体文件.
// FileID 由 Telegram 分配，是搜索结果与下载动作之间唯一的关联键.
type FileRecord struct {
	ID        uint      `bson:"-"                   gorm:"primaryKey"             json:"-"`
	FileID    string    `bson:"file_id"             gorm:"size:255;uniqueIndex"   json:"file_id"`
	FileName  string    `bson:"file_name"           gorm:"size:512;index"         json:"file_name"`
	FileType  FileType  `bson:"file_type"           gorm:"size:32;index"          json:"file_type"`
	FileSize  int64     `bson:"file_size"                                         json:"file_size"`
	MimeType  string    `bson:"mime_type,omitempty" gorm:"size:255"               json:"mime_type,omitempty"`
	Caption   string    `bson:"caption,omitempty"   gorm:"type:text"              json:"caption,omitempty"`
	ChatID    int64     `bson:"chat_id,omitempty"   gorm:"index"                  json:"chat_id,omitempty"`
	Downloads int64     `bson:"downloads"           gorm:"not null;default:0"     json:"downloads"`
	DateAdded time.Time `bson:"date_added"          gorm:"index"                  json:"date_added"`
	// NameFold 小写化的文件名，SQL 后端的子串匹配使用该列.
	NameFold string `bson:"-" gorm:"column:file_name_fold;size:512;index" json:"-"`
	// Score 全文检索相关度，仅在文本检索结果中有值.
	Score float64 `bson:"score,omitempty" gorm:"-" json:"score,omitempty"`
}

// TableName 指定 SQL 表名.
func (FileRecord) TableName() string { return "files" }

// FoldName 返回用于不区分大小写匹配的文件名形式.
// SQLite 的 LOWER 只处理 ASCII，因此小写化在写入前完成.
func FoldName(name string) string { return strings.ToLower(name) }
