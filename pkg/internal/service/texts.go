package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yeisme/filterbot/pkg/internal/model"
)

// 回调数据.
const (
	CallbackHelp         = "help_callback"
	CallbackAbout        = "about_callback"
	CallbackBackToHelp   = "back_to_help"
	CallbackStats        = "stats_callback"
	CallbackRefreshStats = "refresh_stats"
	CallbackCloseStats   = "close_stats"
)

// 用户可见的提示文字.
const (
	NoticeDelivered      = "📤 File sent to your private chat!"
	NoticeFileNotFound   = "❌ File not found in database."
	NoticeDeliveryFailed = "❌ Failed to send file. Please start a private chat with me and try again."
	NoticeGenericError   = "❌ An error occurred. Please try again."
	NoticeUnknownAction  = "❌ Unknown action"

	NoticeStatsForbidden        = "❌ You don't have permission to view stats."
	NoticeStatsRefreshForbidden = "❌ You don't have permission to refresh stats."
	NoticeStatsFetching         = "📊 Fetching statistics..."
	NoticeStatsRefreshing       = "🔄 Refreshing statistics..."
	NoticeStatsRefreshFailed    = "❌ Failed to refresh statistics."
	NoticeStatsFailed           = "❌ An error occurred while fetching statistics. Please try again later."
	NoticeStatsClosed           = "❌ Statistics closed."
	NoticeStatsNotYours         = "❌ You didn't request these stats."

	SearchUsage = "🔍 *Please provide a search query*\n\nExample: `/search Avengers: Endgame 1080p`"

	inlineEmptyPrompt = "🔍 Search for movies..."
	inlineNoResults   = "❌ No results found. Try again!"
	inlineStartParam  = "start"
	labelNewSearch    = "🔍 New Search"
	labelHelp         = "ℹ️ Help"
	labelDownload     = "📥 Download"
	labelSearchAgain  = "🔍 Search Again"
	labelSearchNow    = "🔍 Search Now"
	labelBack         = "🔙 Back"
	labelRefresh      = "🔄 Refresh"
	labelClose        = "❌ Close"
)

// SearchingText 检索进行中的提示.
func SearchingText(query string) string {
	return fmt.Sprintf("🔍 Searching for *%s*...", escape(query))
}

// NoResultsText 无结果提示.
func NoResultsText(query string) string {
	return fmt.Sprintf("❌ No results found for *%s*\n\nTry with different keywords or check the spelling.", escape(query))
}

// resultsHeader 结果列表标题.
func resultsHeader(n int, query string) string {
	if n == 1 {
		return "🎬 *1 result found for* " + code(query)
	}

	return fmt.Sprintf("🎬 *%d results found for* %s", n, code(query))
}

// fileCaption 投递文件的说明文字.
func fileCaption(rec model.FileRecord, shareURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎬 *%s*\n\n", escape(displayName(rec)))
	fmt.Fprintf(&b, "📁 Type: %s\n", rec.FileType.Label())
	fmt.Fprintf(&b, "📦 Size: %s", HumanSize(rec.FileSize))

	if shareURL != "" {
		fmt.Fprintf(&b, "\n\n🔗 [Share with friends](%s)", shareURL)
	}

	return b.String()
}

// inlineMessageText 内联结果被选中后发送的消息.
func inlineMessageText(rec model.FileRecord, query string) string {
	return fmt.Sprintf("🎬 *%s*\n\n📁 Type: %s\n📦 Size: %s\n\n🔍 Search: %s",
		escape(displayName(rec)), rec.FileType.Label(), HumanSize(rec.FileSize), code(query))
}

func displayName(rec model.FileRecord) string {
	if rec.FileName == "" {
		return "File"
	}

	return rec.FileName
}

// WelcomeText /start 欢迎语.
func WelcomeText(firstName string) string {
	return fmt.Sprintf("👋 *Hello %s!*\n\n", escape(firstName)) +
		"🤖 *Welcome to FilterBot!*\n" +
		"I can help you find and filter movie files from our database.\n\n" +
		"🔍 *How to use me:*\n" +
		"• Just send me the name of the movie you're looking for\n" +
		"• I'll search through our database and show you matching results\n" +
		"• Click on the result to get the file\n\n" +
		"📌 *Available Commands:*\n" +
		"`/search [query]` - Search for movies\n" +
		"`/help` - Show this help message\n" +
		"`/stats` - Show bot statistics\n" +
		"`/about` - About this bot"
}

// WelcomeKeyboard /start 键盘.
func WelcomeKeyboard() Keyboard {
	return Keyboard{
		{SwitchInlineButton("🔍 Search Movies", ""), CallbackButton("📚 Help", CallbackHelp)},
		{CallbackButton("📊 Stats", CallbackStats), CallbackButton("ℹ️ About", CallbackAbout)},
	}
}

// HelpText /help 帮助文字.
func HelpText(botUsername string) string {
	return "🤖 *FilterBot Help*\n\n" +
		"🔍 *How to search:*\n" +
		"• Simply type the name of the movie you're looking for\n" +
		"• Use specific keywords for better results\n" +
		"• Example: `Avengers: Endgame 1080p`\n\n" +
		"📋 *Available Commands:*\n" +
		"• `/start` - Start the bot and see welcome message\n" +
		"• `/search [query]` - Search for movies\n" +
		"• `/stats` - Show bot statistics\n" +
		"• `/about` - About this bot\n" +
		"• `/help` - Show this help message\n\n" +
		"🔗 *Inline Mode:*\n" +
		"You can also use me in inline mode in any chat. Just type `@" + botUsername + " [query]`\n\n" +
		"⚠️ *Note:*\n" +
		"• Only files from authorized channels are indexed\n" +
		"• Use proper keywords for better search results"
}

// HelpKeyboard 帮助键盘，botURL 为空时省略命令链接.
func HelpKeyboard(botURL string) Keyboard {
	row := []Button{SwitchInlineButton(labelSearchNow, "")}
	if botURL != "" {
		row = append(row, URLButton("📚 Commands", botURL+"?start=help"))
	}

	return Keyboard{row, {CallbackButton("ℹ️ About", CallbackAbout)}}
}

// AboutText /about 介绍.
func AboutText(storeKind, version string) string {
	return "🤖 *FilterBot*\n\n" +
		"A powerful Telegram bot for searching and filtering movie files.\n\n" +
		"🔹 *Features:*\n" +
		"• Fast and accurate search\n" +
		"• Support for various file types\n" +
		"• Inline search support\n" +
		"• User-friendly interface\n\n" +
		"🔧 *Technical Details:*\n" +
		"• *Language:* Go\n" +
		"• *Database:* " + escape(storeKind) + "\n" +
		"• *Version:* " + escape(version) + "\n\n" +
		"📜 *License:*\n" +
		"MIT License - Free to use and modify"
}

// AboutKeyboard 介绍页键盘.
func AboutKeyboard() Keyboard {
	return Keyboard{{CallbackButton(labelBack, CallbackBackToHelp), SwitchInlineButton(labelSearchNow, "")}}
}

// StatsText 统计信息.
func StatsText(t model.Totals, startedAt, now time.Time) string {
	return "🤖 *Bot Statistics*\n\n" +
		fmt.Sprintf("👥 *Total Users:* `%s`\n", formatCount(t.Users)) +
		fmt.Sprintf("📂 *Total Files:* `%s`\n", formatCount(t.Files)) +
		fmt.Sprintf("💬 *Total Chats:* `%s`\n\n", formatCount(t.Chats)) +
		fmt.Sprintf("⏱ *Uptime:* %s\n", FormatUptime(now.Sub(startedAt))) +
		fmt.Sprintf("🚀 *Start Time:* `%s UTC`\n\n", startedAt.UTC().Format(time.DateTime)) +
		fmt.Sprintf("_Last updated: %s UTC_", now.UTC().Format(time.DateTime))
}

// StatsKeyboard 统计消息键盘.
func StatsKeyboard() Keyboard {
	return Keyboard{{CallbackButton(labelRefresh, CallbackRefreshStats), CallbackButton(labelClose, CallbackCloseStats)}}
}

// NewUserLogText 日志频道的新用户通知.
func NewUserLogText(userID int64, username, firstName string) string {
	uname := "-"
	if username != "" {
		uname = "@" + escape(username)
	}

	return fmt.Sprintf("👤 *New User*\n├ User: [%s](tg://user?id=%d) (`%d`)\n├ Username: %s\n└ First Name: %s",
		escape(firstName), userID, userID, uname, code(firstName))
}

// IndexedText 管理员转发媒体入库后的回执.
func IndexedText(fileName string, created bool) string {
	if created {
		return "✅ Indexed " + code(fileName)
	}

	return "♻️ Updated " + code(fileName)
}

// NewChatLogText 日志频道的新会话通知.
func NewChatLogText(chatID int64, chatType, title string) string {
	return fmt.Sprintf("👥 *New Chat*\n├ Title: %s\n├ Type: %s\n└ ID: `%d`",
		code(title), chatType, chatID)
}

// FileIndexedLogText 日志频道的入库通知.
func FileIndexedLogText(name string, t model.FileType, size int64) string {
	return fmt.Sprintf("📥 *File Indexed*\n├ Name: %s\n├ Type: %s\n└ Size: %s",
		code(name), t.Label(), HumanSize(size))
}

// StatsReportText 定时统计报告.
func StatsReportText(t model.Totals, uptime time.Duration) string {
	return fmt.Sprintf("📊 *Scheduled Report*\n├ Users: `%s`\n├ Files: `%s`\n├ Chats: `%s`\n└ Uptime: %s",
		formatCount(t.Users), formatCount(t.Files), formatCount(t.Chats), FormatUptime(uptime))
}
