package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filterbot/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册调度器相关路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup, allowRun bool) {
	g.GET("/scheduler/jobs", handle.SchedulerJobs)

	if allowRun {
		g.POST("/scheduler/jobs/:name/run", handle.SchedulerRunJob)
	}
}
