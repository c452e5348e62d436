package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"sudooom.clinic.sync/pkg/response"
)

// APIKeyHeader 客户端携带密钥的请求头
const APIKeyHeader = "X-API-Key"

// APIKey 静态密钥鉴权中间件
// 会话级认证由前端与身份服务交互完成，这里只校验服务间密钥；
// 密钥未配置时放行（本地开发）
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
