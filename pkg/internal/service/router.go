package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/metrics"
	"github.com/yeisme/filterbot/pkg/queue"
	"github.com/yeisme/filterbot/pkg/tracing"
)

// DeliveryOutcome 投递结果.
type DeliveryOutcome string

const (
	Delivered      DeliveryOutcome = "delivered"
	NotFound       DeliveryOutcome = "not_found"
	DeliveryFailed DeliveryOutcome = "failed"
)

// bookkeepingTimeout 下载计数更新的超时，独立于请求的取消.
const bookkeepingTimeout = 5 * time.Second

// Delivery 一次投递的结果与给用户的提示.
type Delivery struct {
	Outcome DeliveryOutcome
	Notice  string
	Record  model.FileRecord
}

// DownloadRouter 将选择事件解析为文件记录，发送到请求者的私聊并累加下载计数.
type DownloadRouter struct {
	store     record.FileStore
	refs      *RefCodec
	presenter *Presenter
	sender    FileSender
	events    queue.Publisher
	logger    zerolog.Logger
}

// NewDownloadRouter 创建下载路由，events 为 nil 时不发布事件.
func NewDownloadRouter(store record.FileStore, refs *RefCodec, presenter *Presenter, sender FileSender, events queue.Publisher) *DownloadRouter {
	return &DownloadRouter{
		store:     store,
		refs:      refs,
		presenter: presenter,
		sender:    sender,
		events:    events,
		logger:    log.Component("download"),
	}
}

// Deliver 投递 ref 指向的文件给 requester.
// 只有发送成功后才累加下载计数，计数失败只记录日志.
func (r *DownloadRouter) Deliver(ctx context.Context, ref string, requester int64) Delivery {
	ctx, span := tracing.StartSpan(ctx, "download.deliver")
	defer span.End()

	l := log.WithTraceContext(ctx, r.logger).With().Int64("user_id", requester).Str("ref", ref).Logger()

	d := r.deliver(ctx, ref, requester, &l)
	metrics.DeliveryTotal.WithLabelValues(string(d.Outcome)).Inc()

	return d
}

func (r *DownloadRouter) deliver(ctx context.Context, ref string, requester int64, l *zerolog.Logger) Delivery {
	fileID, err := r.refs.Decode(ctx, ref)
	if errors.Is(err, ErrUnknownRef) {
		l.Warn().Msg("unknown file reference")
		return Delivery{Outcome: NotFound, Notice: NoticeFileNotFound}
	}

	if err != nil {
		l.Error().Err(err).Msg("decode reference failed")
		return Delivery{Outcome: DeliveryFailed, Notice: NoticeGenericError}
	}

	rec, err := r.store.FindOne(ctx, record.FieldFileID, fileID)
	if errors.Is(err, record.ErrNotFound) {
		l.Warn().Str("file_id", fileID).Msg("file not found")
		return Delivery{Outcome: NotFound, Notice: NoticeFileNotFound}
	}

	if err != nil {
		l.Error().Err(err).Str("file_id", fileID).Msg("file lookup failed")
		return Delivery{Outcome: DeliveryFailed, Notice: NoticeGenericError}
	}

	if err := r.sender.SendFile(ctx, r.presenter.File(ref, rec, requester)); err != nil {
		l.Error().Err(err).Str("file_id", fileID).Msg("send file failed")
		return Delivery{Outcome: DeliveryFailed, Notice: NoticeDeliveryFailed, Record: rec}
	}

	l.Info().Str("file_id", fileID).Msg("file sent")

	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	if err := r.store.UpsertIncrement(bctx, record.FieldFileID, fileID, record.FieldDownloads, 1); err != nil {
		metrics.BookkeepingFailures.Inc()
		l.Error().Err(err).Str("file_id", fileID).Msg("download counter update failed")
	} else {
		rec.Downloads++
	}

	r.publish(bctx, rec, requester, l)

	return Delivery{Outcome: Delivered, Notice: NoticeDelivered, Record: rec}
}

func (r *DownloadRouter) publish(ctx context.Context, rec model.FileRecord, requester int64, l *zerolog.Logger) {
	if r.events == nil {
		return
	}

	err := queue.PublishFileDelivered(ctx, r.events, queue.FileDeliveredPayload{
		FileID:   rec.FileID,
		FileName: rec.FileName,
		UserID:   requester,
	})
	if err != nil {
		l.Warn().Err(err).Msg("publish delivered event failed")
	}
}
