package service

import (
	"context"

	"github.com/yeisme/filterbot/pkg/internal/model"
)

// Button 内联键盘按钮，Data、URL、SwitchInline 三者取其一.
type Button struct {
	Text string
	// Data 回调数据.
	Data string
	URL  string
	// SwitchInline 非 nil 时在当前会话中切换到内联模式，值为预填查询.
	SwitchInline *string
}

// CallbackButton 创建回调按钮.
func CallbackButton(text, data string) Button { return Button{Text: text, Data: data} }

// URLButton 创建链接按钮.
func URLButton(text, url string) Button { return Button{Text: text, URL: url} }

// SwitchInlineButton 创建切换内联模式的按钮.
func SwitchInlineButton(text, query string) Button {
	return Button{Text: text, SwitchInline: &query}
}

// Keyboard 按行排列的按钮.
type Keyboard [][]Button

// Reply 一条文本消息，Markdown 格式.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// InlineArticle 内联查询的一条结果.
type InlineArticle struct {
	ID          string
	Title       string
	Description string
	MessageText string
	Keyboard    Keyboard
}

// InlineAnswer 内联查询的应答.
type InlineAnswer struct {
	Results       []InlineArticle
	CacheTime     int
	IsPersonal    bool
	SwitchPMText  string
	SwitchPMParam string
}

// FileMessage 通过 file_id 重新发送的媒体消息.
type FileMessage struct {
	ChatID   int64
	FileID   string
	FileType model.FileType
	Caption  string
	Keyboard Keyboard
}

// Responder 向 Telegram 输出消息.
type Responder interface {
	// Reply 发送消息，返回消息 ID.
	Reply(ctx context.Context, chatID int64, r Reply) (int, error)
	// Edit 替换已发送消息的文本与键盘.
	Edit(ctx context.Context, chatID int64, messageID int, r Reply) error
	// Delete 删除消息.
	Delete(ctx context.Context, chatID int64, messageID int) error
	// AnswerCallback 应答回调查询，alert 为 true 时以弹窗展示.
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	// AnswerInline 应答内联查询.
	AnswerInline(ctx context.Context, queryID string, a InlineAnswer) error
	// SendFile 发送媒体文件.
	SendFile(ctx context.Context, f FileMessage) error
}

// FileSender 只负责发送媒体文件，Responder 满足该接口.
type FileSender interface {
	SendFile(ctx context.Context, f FileMessage) error
}
