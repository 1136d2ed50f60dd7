package router

import (
	"github.com/blues/pfs/internal/handler"
	"github.com/blues/pfs/internal/logic"
	"github.com/blues/pfs/internal/oracle"
	"github.com/gin-gonic/gin"
)

// Logics 路由依赖的各业务逻辑
type Logics struct {
	Campaign   *logic.CampaignLogic
	Reveal     *logic.RevealLogic
	Timeout    *logic.TimeoutLogic
	Settlement *logic.SettlementLogic
	Stats      *logic.StatsLogic
	Oracle     *oracle.Service
}

func Setup(logics Logics) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "private-funding-service",
		})
	})

	campaignHandler := handler.NewCampaignHandler(logics.Campaign)
	settlementHandler := handler.NewSettlementHandler(logics.Reveal, logics.Timeout, logics.Settlement)
	oracleHandler := handler.NewOracleHandler(logics.Reveal, logics.Oracle)
	statsHandler := handler.NewStatsHandler(logics.Stats)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.GET("/:id/contributions", campaignHandler.GetCampaignContributions)
			campaigns.GET("/:id/transitions", campaignHandler.GetCampaignTransitions)
			campaigns.GET("/:id/refunds", settlementHandler.GetCampaignRefunds)
			campaigns.POST("/:id/contributions", campaignHandler.Contribute)
			campaigns.POST("/:id/finalize", settlementHandler.Finalize)
			campaigns.POST("/:id/timeout-check", settlementHandler.TimeoutCheck)
			campaigns.POST("/:id/withdraw", settlementHandler.Withdraw)
			campaigns.POST("/:id/refund", settlementHandler.RequestRefund)
			campaigns.POST("/:id/emergency-refund", settlementHandler.EmergencyRefund)
		}

		// 用户相关路由
		v1.GET("/users/:address/campaigns", campaignHandler.GetUserCampaigns)

		// 预言机回调与投递开关
		v1.POST("/oracle/callback", oracleHandler.Callback)
		v1.POST("/oracle/pause", oracleHandler.Pause)

		// 平台统计
		v1.GET("/stats", statsHandler.GetPlatformStats)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Caller-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
