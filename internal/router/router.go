package router

import (
	"github.com/gin-gonic/gin"

	"retail_sync_v1_202608/internal/controller"
	"retail_sync_v1_202608/internal/middleware"
)

// Controllers 路由需要的控制器集合
type Controllers struct {
	Webhook *controller.WebhookController
	Auth    *controller.AuthController
	Item    *controller.ItemController
	Sync    *controller.SyncController
}

// SetupRouter 注册所有路由
// webhook 组公开 (HMAC 验签在控制器内)，后台 API 组走 JWT
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()

	// 1. webhook 入口
	webhooks := r.Group("/api/webhooks")
	{
		// POST /api/webhooks/shopify
		webhooks.POST("/shopify", ctls.Webhook.HandleShopify)
		// POST /api/webhooks/paperclip
		webhooks.POST("/paperclip", ctls.Webhook.HandlePaperclip)
	}

	// 2. 后台 API
	api := r.Group("/api/v1")
	{
		// auth 鉴权组 (公开)
		auth := api.Group("/auth")
		{
			auth.POST("/login", ctls.Auth.Login)
			auth.POST("/refresh", ctls.Auth.Refresh)
		}

		// 受保护组
		protected := api.Group("")
		protected.Use(middleware.JWTAuth())
		{
			// 商品只读
			protected.GET("/items", ctls.Item.List)
			protected.GET("/items/:id", ctls.Item.Get)

			// 手动触发 sweep，带冷却限流
			protected.POST("/stores/:id/sweep",
				middleware.SweepRateLimit(0),
				ctls.Sync.TriggerSweep,
			)
		}
	}

	return r
}
