package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/log"
)

// Stats 返回用户、文件、会话总数与运行时长. refresh=true 时跳过缓存.
func Stats(svc *service.StatsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		totals, err := svc.Totals(ctx)
		if c.Query("refresh") == "true" {
			totals, err = svc.Refresh(ctx)
		}

		if err != nil {
			l := log.WithTraceContext(ctx, log.Component("http"))
			l.Error().Err(err).Msg("stats totals failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users":          totals.Users,
			"files":          totals.Files,
			"chats":          totals.Chats,
			"started_at":     svc.StartedAt(),
			"uptime_seconds": int64(svc.Uptime().Seconds()),
		})
	}
}
