package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// UserJoinedPayload 新用户.
type UserJoinedPayload struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
}

// ChatJoinedPayload 新会话.
type ChatJoinedPayload struct {
	ChatID int64  `json:"chat_id"`
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
}

// FileIndexedPayload 新入库的文件.
type FileIndexedPayload struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	ChatID   int64  `json:"chat_id,omitempty"`
}

// FileDeliveredPayload 文件投递成功.
type FileDeliveredPayload struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	UserID   int64  `json:"user_id"`
}

// StatsReportedPayload 统计快照.
type StatsReportedPayload struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
	Chats int64 `json:"chats"`
	// UptimeSeconds 进程运行秒数.
	UptimeSeconds int64 `json:"uptime_seconds"`
}
