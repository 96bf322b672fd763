package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// maxLabelRunes 按钮文字的最大字符数.
	maxLabelRunes = 50
	// truncatedRunes 超长时保留的字符数，其后追加 "...".
	truncatedRunes = 47
)

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// HumanSize 将字节数格式化为 "1.50 MB" 形式.
func HumanSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}

	v := float64(n)
	i := 0

	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}

	return fmt.Sprintf("%.2f %s", v, sizeUnits[i])
}

// Truncate 超过 50 个字符时截取前 47 个字符并追加 "...".
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}

	return string(runes[:truncatedRunes]) + "..."
}

// escape 转义 Markdown 控制字符.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// code 去掉反引号后放入行内代码.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// formatCount 千分位格式化.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder

	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(c)
	}

	if neg {
		return "-" + b.String()
	}

	return b.String()
}

// FormatUptime 格式化为 "1d 2h 3m".
func FormatUptime(d time.Duration) string {
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := total % (24 * 60) / 60
	minutes := total % 60

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
