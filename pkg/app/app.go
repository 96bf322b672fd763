// Package app 装配机器人运行所需的全部组件并管理其生命周期.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filterbot/pkg/cache"
	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/bot"
	"github.com/yeisme/filterbot/pkg/internal/jobs"
	"github.com/yeisme/filterbot/pkg/internal/router"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/internal/storage"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/metrics"
	"github.com/yeisme/filterbot/pkg/scheduler"
	"github.com/yeisme/filterbot/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// App 持有已装配的组件.
type App struct {
	cfg      *configs.AppConfig
	manager  *storage.Manager
	bot      *bot.Bot
	notifier *bot.Notifier
	sched    *scheduler.Scheduler
	server   *http.Server
	logger   zerolog.Logger
}

// New 初始化追踪、指标、存储，登录 Bot API 并装配业务服务.
// 失败时释放已创建的资源.
func New(ctx context.Context, cfg *configs.AppConfig) (*App, error) {
	l := log.Component("app")

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api, err := bot.Connect(ctx, cfg.Bot)
	if err != nil {
		_ = manager.Close(ctx)
		return nil, err
	}

	username := cfg.Bot.Username
	if username == "" {
		username = api.Self.UserName
	}

	out := bot.NewResponder(api)

	refs := service.NewRefCodec(manager.KV, cfg.Search.RefTTL)
	presenter := service.NewPresenter(refs, shareURL(cfg.Bot.ShareBaseURL, username))
	matcher := service.NewMatcher(ctx, manager.Store, cfg.Search, cfg.CircuitBreaker)
	downloads := service.NewDownloadRouter(manager.Store, refs, presenter, out, manager.MQ)
	stats := service.NewStatsService(manager.Store, cache.NewCache(manager.KV, "stats:"), cfg.Search.StatsCacheTTL, time.Now())

	b := bot.New(api, out, username, cfg.Bot, bot.Deps{
		Search: service.NewFinder(matcher, presenter, downloads, out, service.FinderOptions{
			ChatLimit:   cfg.Search.ChatResultLimit,
			InlineLimit: cfg.Search.InlineResultLimit,
		}),
		Router:    downloads,
		Presenter: presenter,
		Users:     service.NewUserService(manager.Store, manager.Store, manager.MQ),
		Stats:     stats,
		Indexer:   service.NewIndexer(manager.Store, manager.MQ),
		Limiter:   bot.NewLimiter(cfg.RateLimit),
		StoreKind: manager.Store.Kind(),
		Version:   configs.AppVersion,
	})

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close(ctx)
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched.Context(), sched, cfg.Jobs, jobs.Deps{
		Stats:   stats,
		Matcher: matcher,
		Events:  manager.MQ,
	}); err != nil {
		_ = manager.Close(ctx)
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	a := &App{
		cfg:      cfg,
		manager:  manager,
		bot:      b,
		notifier: bot.NewNotifier(manager.MQ, out, cfg.Bot.LogChannelID),
		sched:    sched,
		logger:   l,
	}

	if cfg.Server.Enabled {
		a.server = newServer(cfg, manager, sched, stats)
	}

	l.Info().
		Str("username", username).
		Str("store", manager.Store.Kind()).
		Str("search_mode", matcher.Mode()).
		Msg("application initialized")

	return a, nil
}

// newServer 创建健康检查 HTTP 服务，gin 输出重定向到 zerolog.
func newServer(cfg *configs.AppConfig, manager *storage.Manager, sched *scheduler.Scheduler, stats *service.StatsService) *http.Server {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	gl := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(gl, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(gl, zerolog.ErrorLevel)

	engine := router.New(router.Options{
		Manager:   manager,
		Scheduler: sched,
		Stats:     stats,
		Metrics:   cfg.Metrics,
		Debug:     cfg.Server.Debug,
	})

	timeout := cfg.Server.GetTimeoutDuration()

	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           engine,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
}

// Run 启动所有组件并阻塞到 ctx 结束，随后按顺序关闭：
// 停止拉取更新并等待处理中的更新、停止调度器、关闭 HTTP、关闭存储与追踪.
func (a *App) Run(ctx context.Context) error {
	if err := a.bot.RegisterCommands(); err != nil {
		a.logger.Warn().Err(err).Msg("register bot commands failed")
	}

	if err := a.notifier.Start(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("start log channel notifier failed")
	}

	a.sched.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.bot.Run(gctx) })

	if a.server != nil {
		g.Go(func() error {
			a.logger.Info().Str("addr", a.server.Addr).Msg("health server listening")

			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			return a.server.Shutdown(sctx)
		})
	}

	err := g.Wait()

	a.shutdown(context.WithoutCancel(ctx))

	return err
}

func (a *App) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := a.sched.Shutdown(); err != nil {
		a.logger.Warn().Err(err).Msg("scheduler shutdown failed")
	}

	if err := a.manager.Close(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("storage close failed")
	}

	a.notifier.Wait()

	if err := tracing.ShutdownTracer(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("tracer shutdown failed")
	}

	a.logger.Info().Msg("application stopped")
}

// shareURL 返回机器人的 t.me 链接，用于分享链接与帮助按钮.
func shareURL(base, username string) string {
	if base == "" {
		base = configs.DefaultBotShareBaseURL
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(username, "@")
}
