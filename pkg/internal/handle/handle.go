// Package handle 提供健康检查服务的 HTTP 处理器.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RootText 根路径的存活响应.
const RootText = "Bot is running"

// Root 存活探针，只要进程在运行就返回 200.
func Root(c *gin.Context) {
	c.String(http.StatusOK, RootText)
}
