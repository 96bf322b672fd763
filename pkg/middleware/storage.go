package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filterbot/pkg/context"
	"github.com/yeisme/filterbot/pkg/internal/storage"
)

// StorageMiddleware 将存储管理器注入请求上下文，供健康检查处理器使用.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
