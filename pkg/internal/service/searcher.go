// Package service 实现机器人的业务逻辑：查询匹配、结果展示、文件投递，
// 以及用户登记、统计与频道索引. 与 Telegram 的交互经由 Responder 接口完成.
package service

import (
	"context"
	"errors"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	"github.com/yeisme/filterbot/pkg/log"
)

// 检索方式.
const (
	ModeText      = "text"
	ModeSubstring = "substring"
)

// Searcher 对文件名执行一次检索.
type Searcher interface {
	// Mode 返回检索方式名称，用于指标与日志.
	Mode() string
	// Search 最多返回 limit 条记录.
	Search(ctx context.Context, text string, limit int) ([]model.FileRecord, error)
}

// textSearcher 使用全文索引检索，按相关度排序.
type textSearcher struct {
	store record.FileStore
}

func (s textSearcher) Mode() string { return ModeText }

func (s textSearcher) Search(ctx context.Context, text string, limit int) ([]model.FileRecord, error) {
	recs, err := s.store.FindByTextSearch(ctx, record.FieldFileName, text, limit)
	if errors.Is(err, record.ErrTextSearchUnsupported) {
		// 索引在运行期间被删除，下次能力刷新前先退回子串匹配
		return s.store.FindBySubstring(ctx, record.FieldFileName, text, limit)
	}

	return recs, err
}

// substringSearcher 不区分大小写的子串匹配.
type substringSearcher struct {
	store record.FileStore
}

func (s substringSearcher) Mode() string { return ModeSubstring }

func (s substringSearcher) Search(ctx context.Context, text string, limit int) ([]model.FileRecord, error) {
	return s.store.FindBySubstring(ctx, record.FieldFileName, text, limit)
}

// SelectSearcher 按配置选择检索方式. auto 模式下探测文件名上的全文索引，
// 探测失败时使用子串匹配.
func SelectSearcher(ctx context.Context, store record.FileStore, mode configs.SearchMode) Searcher {
	s, err := probeSearcher(ctx, store, mode)
	if err != nil {
		l := log.Component("matcher")
		l.Warn().Err(err).Msg("text index probe failed, using substring search")

		return substringSearcher{store: store}
	}

	return s
}

// probeSearcher 与 SelectSearcher 相同，但把探测错误交给调用方处理.
func probeSearcher(ctx context.Context, store record.FileStore, mode configs.SearchMode) (Searcher, error) {
	switch mode {
	case configs.SearchModeText:
		return textSearcher{store: store}, nil
	case configs.SearchModeSubstring:
		return substringSearcher{store: store}, nil
	}

	ok, err := store.HasTextIndex(ctx, record.FieldFileName)
	if err != nil {
		return nil, err
	}

	if ok {
		return textSearcher{store: store}, nil
	}

	return substringSearcher{store: store}, nil
}
