// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、机器人更新、搜索与投递相关指标.
//
// Example:
//
//	import "github.com/yeisme/filterbot/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.SearchTotal.WithLabelValues("chat", "hit").Inc()
package metrics

import (
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filterbot/pkg/configs"
)

const namespace = "filterbot"

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// UpdatesTotal 机器人收到的更新数，按类型与处理结果区分.
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Total number of bot updates by kind and result",
		},
		[]string{"kind", "result"},
	)

	// UpdateDuration 单个更新的处理耗时.
	UpdateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Bot update handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// InFlightUpdates 正在处理的更新数.
	InFlightUpdates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updates_in_flight",
			Help:      "Number of bot updates currently being handled",
		},
	)

	// SearchTotal 搜索次数，result 取值 hit、miss、empty、error.
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Total number of searches by surface and result",
		},
		[]string{"surface", "result"},
	)

	// SearchDuration 存储查询耗时，按检索方式区分.
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Record store search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// DeliveryTotal 文件投递结果计数.
	DeliveryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_total",
			Help:      "Total number of file deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// BookkeepingFailures 下载计数更新失败次数.
	BookkeepingFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookkeeping_failures_total",
			Help:      "Total number of failed download counter updates",
		},
	)

	// IndexedFiles 索引写入计数.
	IndexedFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_files_total",
			Help:      "Total number of indexed media files by type",
		},
		[]string{"file_type"},
	)

	// RateLimited 被限流丢弃的更新数.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of updates dropped by the per-user limiter",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	registerOnce sync.Once
)

// InitMetrics 初始化Metrics，注册全部指标，重复调用无效果.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration,
			UpdatesTotal, UpdateDuration, InFlightUpdates,
			SearchTotal, SearchDuration,
			DeliveryTotal, BookkeepingFailures,
			IndexedFiles, RateLimited,
		} {
			if err = registry.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// StartMetricsServer 在 engine 上挂载 /metrics，启用时同时挂载 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(Gatherer(config), promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.HandlerFunc(pprof.Index)))
	}

	return nil
}

// Gatherer 返回 /metrics 使用的采集器.
// 运行时指标与 gorm 插件指标注册在默认注册表，RuntimeMetrics 开启时一并输出.
func Gatherer(config configs.MetricsConfig) prometheus.Gatherer {
	if config.RuntimeMetrics {
		return prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	}

	return registry
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
