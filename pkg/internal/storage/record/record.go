// Package record 定义记录存储的契约：文件检索、按键读取与原子计数，
// 以及用户与会话的登记. MongoDB 与 SQL 后端分别在 storage/mongo 与 storage/db 中实现.
package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/filterbot/pkg/internal/model"
)

// 可检索、可读取、可计数的字段名. 各后端只接受这里列出的字段.
const (
	FieldFileID    = "file_id"
	FieldFileName  = "file_name"
	FieldDownloads = "downloads"
)

// TextIndexName 文件名全文索引的名称.
const TextIndexName = "file_name_text"

var (
	// ErrNotFound 按键未找到记录.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable 存储不可达或查询失败.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrTextSearchUnsupported 后端没有全文检索能力.
	ErrTextSearchUnsupported = errors.New("text search not supported")
	// ErrInvalidField 字段不在允许列表中.
	ErrInvalidField = errors.New("invalid field")
)

// Unavailable 将底层驱动错误包装为 ErrUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// FileStore 文件记录的检索与更新.
type FileStore interface {
	// FindByTextSearch 在 field 的全文索引上检索，按相关度降序，最多 limit 条.
	FindByTextSearch(ctx context.Context, field, text string, limit int) ([]model.FileRecord, error)
	// FindBySubstring 对 field 做不区分大小写的子串匹配，按存储自然顺序，最多 limit 条.
	FindBySubstring(ctx context.Context, field, text string, limit int) ([]model.FileRecord, error)
	// FindOne 按 key=value 读取单条记录，未命中返回 ErrNotFound.
	FindOne(ctx context.Context, key, value string) (model.FileRecord, error)
	// UpsertIncrement 原子地将 key=value 记录的 field 增加 amount，记录不存在时创建.
	UpsertIncrement(ctx context.Context, key, value, field string, amount int64) error
	// UpsertFile 按 file_id 写入文件元数据，不改动已有的下载计数，返回是否新建.
	UpsertFile(ctx context.Context, rec model.FileRecord) (bool, error)
	// HasTextIndex 探测 field 上是否存在全文索引.
	HasTextIndex(ctx context.Context, field string) (bool, error)
	// CountFiles 返回文件总数.
	CountFiles(ctx context.Context) (int64, error)
}

// UserStore 用户登记.
type UserStore interface {
	// AddUser 首次出现时写入用户，返回是否新建.
	AddUser(ctx context.Context, u model.UserRecord) (bool, error)
	// GetUser 读取用户，未命中返回 ErrNotFound.
	GetUser(ctx context.Context, userID int64) (model.UserRecord, error)
	// SetBanned 设置封禁状态.
	SetBanned(ctx context.Context, userID int64, banned bool) error
	// CountUsers 返回用户总数.
	CountUsers(ctx context.Context) (int64, error)
}

// ChatStore 群组与频道登记.
type ChatStore interface {
	// AddChat 首次出现时写入会话，返回是否新建.
	AddChat(ctx context.Context, c model.ChatRecord) (bool, error)
	// CountChats 返回会话总数.
	CountChats(ctx context.Context) (int64, error)
}

// Store 完整的记录存储.
type Store interface {
	FileStore
	UserStore
	ChatStore

	// Kind 返回后端名称，如 mongo、sqlite.
	Kind() string
	// EnsureIndexes 创建所需索引（幂等）.
	EnsureIndexes(ctx context.Context) error
	// Ping 检查连接.
	Ping(ctx context.Context) error
	// Close 释放连接.
	Close(ctx context.Context) error
}

// CheckField 校验字段是否在 allowed 中.
func CheckField(field string, allowed ...string) error {
	for _, f := range allowed {
		if f == field {
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrInvalidField, field)
}

// Totals 汇总三类记录的数量.
func Totals(ctx context.Context, s Store) (model.Totals, error) {
	var (
		t   model.Totals
		err error
	)

	if t.Users, err = s.CountUsers(ctx); err != nil {
		return t, err
	}

	if t.Files, err = s.CountFiles(ctx); err != nil {
		return t, err
	}

	if t.Chats, err = s.CountChats(ctx); err != nil {
		return t, err
	}

	return t, nil
}
