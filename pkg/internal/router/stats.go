package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filterbot/pkg/internal/handle"
	"github.com/yeisme/filterbot/pkg/internal/service"
)

// RegisterStatsRoutes 注册统计路由.
func RegisterStatsRoutes(g *gin.RouterGroup, svc *service.StatsService) {
	if svc == nil {
		g.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats not initialized"})
		})

		return
	}

	g.GET("/stats", handle.Stats(svc))
}
