package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filterbot/pkg/context"
)

const timeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// health 统一的组件探测与 JSON 输出.
func health(c *gin.Context, component string, p pinger, missing bool) {
	if missing {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": component + " client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

// HealthStore 记录存储健康检查.
func HealthStore(c *gin.Context) {
	s := ctxPkg.GetStore(c.Request.Context())
	health(c, "store", s, s == nil)
}

// HealthKV KV 健康检查.
func HealthKV(c *gin.Context) {
	kv := ctxPkg.GetKVClient(c.Request.Context())
	health(c, "kv", kv, kv == nil)
}

// HealthMQ 消息队列健康检查，客户端关闭后视为不健康.
func HealthMQ(c *gin.Context) {
	mq := ctxPkg.GetMQClient(c.Request.Context())
	health(c, "mq", mq, mq == nil)
}
