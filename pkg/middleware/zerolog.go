package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/log"
)

// GinLoggerMiddleware 使用 zerolog 记录请求日志. 探活与指标抓取只在 debug 级别输出.
func GinLoggerMiddleware() gin.HandlerFunc {
	base := log.Component("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		l := log.WithTraceContext(c.Request.Context(), base)

		var event *zerolog.Event

		switch {
		case status >= 500:
			event = l.Error()
		case isProbe(c.FullPath()):
			event = l.Debug()
		default:
			event = l.Info()
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}

func isProbe(route string) bool {
	switch route {
	case "/", "/metrics", "/health/store", "/health/kv", "/health/mq":
		return true
	default:
		return false
	}
}
