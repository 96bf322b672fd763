// Package jobs 负责注册与实现机器人的定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/queue"
	"github.com/yeisme/filterbot/pkg/scheduler"
)

// Deps 任务依赖的服务.
type Deps struct {
	Stats   *service.StatsService
	Matcher *service.Matcher
	Events  queue.Publisher
}

// RegisterCronJobs 按配置注册定时任务：
//   - stats.report：重新统计总数并发布 fb.stats.reported，由通知器转发到日志频道
//   - search.capability.refresh：重新探测全文索引，切换检索策略
//
// cron 表达式为空的任务不注册.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, cfg configs.JobsConfig, deps Deps) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if !cfg.Enabled {
		return nil
	}

	if cfg.StatsReportCron != "" && deps.Stats != nil {
		if err := sched.AddCron(ctx, JobStatsReport, cfg.StatsReportCron, func(ctx context.Context) error {
			return ReportStats(ctx, deps)
		}); err != nil {
			return err
		}
	}

	if cfg.CapabilityRefreshCron != "" && deps.Matcher != nil {
		if err := sched.AddCron(ctx, JobSearchCapabilityRefresh, cfg.CapabilityRefreshCron, func(ctx context.Context) error {
			RefreshCapability(ctx, deps.Matcher)
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

// ReportStats 丢弃统计缓存后重新计数，并发布统计快照.
func ReportStats(ctx context.Context, deps Deps) error {
	l := log.Component("jobs").With().Str("job", JobStatsReport).Logger()

	totals, err := deps.Stats.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("count totals: %w", err)
	}

	uptime := deps.Stats.Uptime()

	l.Info().Int64("users", totals.Users).Int64("files", totals.Files).Int64("chats", totals.Chats).
		Dur("uptime", uptime).Msg("stats report")

	if deps.Events == nil {
		return nil
	}

	return queue.PublishStatsReported(ctx, deps.Events, queue.StatsReportedPayload{
		Users:         totals.Users,
		Files:         totals.Files,
		Chats:         totals.Chats,
		UptimeSeconds: int64(uptime.Seconds()),
	})
}

// RefreshCapability 重新探测检索能力，返回检索方式是否变化.
func RefreshCapability(ctx context.Context, m *service.Matcher) bool {
	changed := m.Refresh(ctx)

	l := log.Component("jobs")
	l.Debug().Str("job", JobSearchCapabilityRefresh).Str("mode", m.Mode()).Bool("changed", changed).Msg("search capability probed")

	return changed
}
