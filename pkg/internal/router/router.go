// Package router 管理健康检查服务的路由.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/handle"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/internal/storage"
	"github.com/yeisme/filterbot/pkg/metrics"
	"github.com/yeisme/filterbot/pkg/middleware"
	"github.com/yeisme/filterbot/pkg/scheduler"
)

// Options 路由依赖，为 nil 的组件对应的接口返回 503.
type Options struct {
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
	Stats     *service.StatsService
	Metrics   configs.MetricsConfig
	// Debug 开启后允许通过 HTTP 手动触发定时任务.
	Debug bool
}

// New 创建 gin 引擎并注册全部路由：
//
//	GET  /                               -> 存活探针
//	GET  /health/{store,kv,mq}           -> 组件健康检查
//	GET  /metrics                        -> Prometheus 指标（启用时）
//	GET  /api/v1/stats                   -> 统计总数
//	GET  /api/v1/scheduler/jobs          -> 定时任务状态
//	POST /api/v1/scheduler/jobs/:name/run -> 立即执行任务（debug）
func New(opts Options) *gin.Engine {
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.StorageMiddleware(opts.Manager),
		middleware.SchedulerMiddleware(opts.Scheduler),
	)

	engine.GET("/", handle.Root)
	RegisterHealthCheckRoute(&engine.RouterGroup)

	api := engine.Group("/api/v1")
	RegisterStatsRoutes(api, opts.Stats)
	RegisterSchedulerRoutes(api, opts.Debug)

	_ = metrics.StartMetricsServer(opts.Metrics, engine)

	return engine
}
