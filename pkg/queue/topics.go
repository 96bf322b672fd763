// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：fb.<域>.<动作>，尽量稳定且向后兼容.
// 域：user(用户)、chat(群组/频道)、file(媒体文件)、stats(统计).

const (
	// 用户领域.
	TopicUserJoined = "fb.user.joined" // 新用户首次与机器人交互

	// 会话领域.
	TopicChatJoined = "fb.chat.joined" // 机器人首次出现在群组或频道

	// 文件领域.
	TopicFileIndexed   = "fb.file.indexed"   // 频道媒体写入记录存储（仅新建时）
	TopicFileDelivered = "fb.file.delivered" // 文件已发送到用户私聊

	// 统计领域.
	TopicStatsReported = "fb.stats.reported" // 定时统计报告
)

// NotifyTopics 日志频道通知订阅的主题.
var NotifyTopics = []string{
	TopicUserJoined,
	TopicChatJoined,
	TopicFileIndexed,
	TopicStatsReported,
}

// AllTopics 机器人发布的全部主题.
var AllTopics = []string{
	TopicUserJoined,
	TopicChatJoined,
	TopicFileIndexed,
	TopicFileDelivered,
	TopicStatsReported,
}
