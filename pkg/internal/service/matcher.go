package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/metrics"
	"github.com/yeisme/filterbot/pkg/tracing"
)

// Outcome 一次匹配的结果分类.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Matcher 将用户的查询文本转换为有序的文件记录列表.
// 存储不可用时返回空列表，调用方只能看到"没有结果".
type Matcher struct {
	store   record.FileStore
	mode    configs.SearchMode
	timeout time.Duration
	current atomic.Pointer[searcherBox]
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

type searcherBox struct{ Searcher }

// NewMatcher 创建匹配器并立即探测一次检索能力.
func NewMatcher(ctx context.Context, store record.FileStore, cfg configs.SearchConfig, cb configs.CircuitBreakerConfig) *Matcher {
	m := &Matcher{
		store:   store,
		mode:    cfg.Mode,
		timeout: cfg.Timeout,
		logger:  log.Component("matcher"),
	}

	if cb.Enabled {
		m.breaker = newBreaker("record-store-search", cb, m.logger)
	}

	s := SelectSearcher(ctx, store, cfg.Mode)
	m.current.Store(&searcherBox{s})
	m.logger.Info().Str("mode", s.Mode()).Msg("search mode selected")

	return m
}

func newBreaker(name string, cfg configs.CircuitBreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}

			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

// Mode 返回当前检索方式.
func (m *Matcher) Mode() string {
	return m.current.Load().Mode()
}

// Refresh 重新探测检索能力，方式变化时原子替换，返回是否发生变化.
// 探测失败时保留当前检索方式.
func (m *Matcher) Refresh(ctx context.Context) bool {
	next, err := probeSearcher(ctx, m.store, m.mode)
	if err != nil {
		m.logger.Warn().Err(err).Str("mode", m.Mode()).Msg("text index probe failed, keeping current search mode")
		return false
	}

	prev := m.current.Swap(&searcherBox{next})
	if prev.Mode() == next.Mode() {
		return false
	}

	m.logger.Info().Str("from", prev.Mode()).Str("to", next.Mode()).Msg("search mode changed")

	return true
}

// Match 返回与 query 匹配的至多 limit 条记录. 空白查询不访问存储.
func (m *Matcher) Match(ctx context.Context, query string, limit int) []model.FileRecord {
	recs, _ := m.MatchWithOutcome(ctx, query, limit)
	return recs
}

// MatchWithOutcome 与 Match 相同，同时返回结果分类.
func (m *Matcher) MatchWithOutcome(ctx context.Context, query string, limit int) ([]model.FileRecord, Outcome) {
	text := strings.TrimSpace(query)
	if text == "" || limit <= 0 {
		return nil, OutcomeEmpty
	}

	searcher := m.current.Load().Searcher

	ctx, span := tracing.StartSpan(ctx, "matcher.match")
	defer span.End()

	if m.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()

	recs, err := m.search(ctx, searcher, text, limit)

	metrics.SearchDuration.WithLabelValues(searcher.Mode()).Observe(time.Since(start).Seconds())

	if err != nil {
		tracing.RecordError(span, err)

		l := log.WithTraceContext(ctx, m.logger)
		l.Error().Err(err).Str("mode", searcher.Mode()).Str("query", text).Msg("search failed")

		return nil, OutcomeError
	}

	if len(recs) > limit {
		recs = recs[:limit]
	}

	if len(recs) == 0 {
		return nil, OutcomeMiss
	}

	return recs, OutcomeHit
}

func (m *Matcher) search(ctx context.Context, s Searcher, text string, limit int) ([]model.FileRecord, error) {
	if m.breaker == nil {
		return s.Search(ctx, text, limit)
	}

	out, err := m.breaker.Execute(func() (any, error) {
		return s.Search(ctx, text, limit)
	})
	if err != nil {
		return nil, err
	}

	return out.([]model.FileRecord), nil
}
