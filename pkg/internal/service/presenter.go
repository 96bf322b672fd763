package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/log"
)

const (
	// MaxChatResults 聊天回复中结果按钮的上限.
	MaxChatResults = 10
	// MaxInlineResults 内联应答的结果上限.
	MaxInlineResults = 50

	inlineCacheSeconds = 1
)

// Presenter 将检索结果渲染为聊天回复或内联应答.
type Presenter struct {
	refs   *RefCodec
	botURL string
	logger zerolog.Logger
}

// NewPresenter 创建展示器. botURL 形如 https://t.me/<username>，为空时不生成分享链接.
func NewPresenter(refs *RefCodec, botURL string) *Presenter {
	return &Presenter{
		refs:   refs,
		botURL: strings.TrimRight(botURL, "/"),
		logger: log.Component("presenter"),
	}
}

// BotURL 返回机器人链接.
func (p *Presenter) BotURL() string { return p.botURL }

// Chat 渲染聊天回复：每条结果一个按钮，按钮文字即截断后的文件名，最后一行是新搜索入口.
// 无结果时只返回提示文字.
func (p *Presenter) Chat(ctx context.Context, results []model.FileRecord, query string) Reply {
	if len(results) == 0 {
		return Reply{Text: NoResultsText(query)}
	}

	if len(results) > MaxChatResults {
		results = results[:MaxChatResults]
	}

	kb := make(Keyboard, 0, len(results)+1)

	for _, rec := range results {
		ref, err := p.refs.Encode(ctx, rec.FileID)
		if err != nil {
			p.logger.Error().Err(err).Str("file_id", rec.FileID).Msg("skip result without reference")
			continue
		}

		kb = append(kb, []Button{CallbackButton(Truncate(displayName(rec)), ref)})
	}

	if len(kb) == 0 {
		return Reply{Text: NoResultsText(query)}
	}

	kb = append(kb, []Button{SwitchInlineButton(labelNewSearch, ""), CallbackButton(labelHelp, CallbackHelp)})

	return Reply{Text: resultsHeader(len(kb)-1, query), Keyboard: kb}
}

// Inline 渲染内联应答. 无结果时返回空列表与私聊提示.
func (p *Presenter) Inline(ctx context.Context, results []model.FileRecord, query string) InlineAnswer {
	if len(results) > MaxInlineResults {
		results = results[:MaxInlineResults]
	}

	articles := make([]InlineArticle, 0, len(results))

	for _, rec := range results {
		ref, err := p.refs.Encode(ctx, rec.FileID)
		if err != nil {
			p.logger.Error().Err(err).Str("file_id", rec.FileID).Msg("skip result without reference")
			continue
		}

		articles = append(articles, InlineArticle{
			ID:          strconv.FormatUint(xxhash.Sum64String(rec.FileID), 16),
			Title:       Truncate(displayName(rec)),
			Description: fmt.Sprintf("📁 %s • %s", rec.FileType.Label(), HumanSize(rec.FileSize)),
			MessageText: inlineMessageText(rec, query),
			Keyboard:    Keyboard{{CallbackButton(labelDownload, ref)}},
		})
	}

	if len(articles) == 0 {
		return p.inlinePrompt(inlineNoResults)
	}

	return InlineAnswer{Results: articles, CacheTime: inlineCacheSeconds, IsPersonal: true}
}

// InlineEmpty 空查询的内联应答.
func (p *Presenter) InlineEmpty() InlineAnswer { return p.inlinePrompt(inlineEmptyPrompt) }

func (p *Presenter) inlinePrompt(text string) InlineAnswer {
	return InlineAnswer{
		Results:       []InlineArticle{},
		CacheTime:     inlineCacheSeconds,
		IsPersonal:    true,
		SwitchPMText:  text,
		SwitchPMParam: inlineStartParam,
	}
}

// File 渲染投递给 chatID 的媒体消息，附带分享链接与再次搜索按钮.
func (p *Presenter) File(ref string, rec model.FileRecord, chatID int64) FileMessage {
	share := ""
	if p.botURL != "" && ref != "" {
		share = p.botURL + "?start=" + ref
	}

	return FileMessage{
		ChatID:   chatID,
		FileID:   rec.FileID,
		FileType: rec.FileType,
		Caption:  fileCaption(rec, share),
		Keyboard: Keyboard{{SwitchInlineButton(labelSearchAgain, "")}},
	}
}
