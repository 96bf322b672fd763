package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/log"
)

// RetryAfter 从 Telegram 限流错误中取出建议等待时间.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}

	return 0, false
}

// Connect 登录 Bot API. 遇到限流时按建议时间多等 1 秒后重试，最多 start_retries 次.
func Connect(ctx context.Context, cfg configs.BotConfig) (*tgbotapi.BotAPI, error) {
	return connect(ctx, cfg, tgbotapi.NewBotAPI)
}

func connect(ctx context.Context, cfg configs.BotConfig, dial func(token string) (*tgbotapi.BotAPI, error)) (*tgbotapi.BotAPI, error) {
	l := log.Component("bot")

	for attempt := 0; ; attempt++ {
		api, err := dial(cfg.Token)
		if err == nil {
			api.Debug = cfg.Debug
			l.Info().Str("username", api.Self.UserName).Int64("id", api.Self.ID).Msg("authorized on telegram")

			return api, nil
		}

		wait, flood := RetryAfter(err)
		if !flood || attempt >= cfg.StartRetries {
			return nil, fmt.Errorf("connect telegram: %w", err)
		}

		wait += time.Second
		l.Warn().Dur("wait", wait).Int("attempt", attempt+1).Msg("flood wait on startup, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
