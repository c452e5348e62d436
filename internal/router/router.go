package router

import (
	"github.com/gin-gonic/gin"

	"sudooom.clinic.sync/internal/config"
	"sudooom.clinic.sync/internal/handler"
	"sudooom.clinic.sync/internal/health"
	"sudooom.clinic.sync/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	chatHandler *handler.ChatHandler,
	instanceHandler *handler.InstanceHandler,
	healthChecker *health.Checker,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(
		cfg.Server.AllowedOrigins,
		cfg.Server.AllowedMethods,
		cfg.Server.AllowCredentials,
	))

	// 健康检查
	r.GET("/health", gin.WrapH(healthChecker))

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIKey(cfg.Server.APIKey))
	{
		v1.GET("/chats", chatHandler.ListChats)
		v1.GET("/chats/:jid/messages", chatHandler.GetMessages)
		v1.POST("/chats/:jid/read", chatHandler.MarkRead)
		v1.POST("/messages", chatHandler.SendText)
		v1.POST("/media", chatHandler.GetMedia)

		v1.GET("/instance/status", instanceHandler.Status)
		v1.POST("/instance/connect", instanceHandler.Connect)
		v1.DELETE("/instance", instanceHandler.Disconnect)
	}

	return r
}
