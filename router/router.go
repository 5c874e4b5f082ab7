package router

import (
	"time"

	"envelope/api"
	"envelope/config"
	_ "envelope/docs"
	"envelope/ledger"
	"envelope/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, l *ledger.Ledger) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	profileHandler := api.NewProfileHandler()
	accountHandler := api.NewAccountHandler(&cfg.Ledger)
	categoryHandler := api.NewCategoryHandler(&cfg.Ledger)
	budgetHandler := api.NewBudgetHandler(l, &cfg.Ledger)
	transactionHandler := api.NewTransactionHandler(l, &cfg.Ledger)
	exportHandler := api.NewExportHandler(l, &cfg.Ledger)

	// API v1 路由组，全部需要 JWT 认证
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(), middleware.WriteRateLimit(cfg.Server.WriteLimit, time.Minute))
	{
		v1.GET("/profile", profileHandler.Get)
		v1.PUT("/profile", profileHandler.Update)

		v1.GET("/accounts", accountHandler.List)
		v1.POST("/accounts", accountHandler.Create)

		v1.GET("/category-groups", categoryHandler.ListGroups)
		v1.POST("/category-groups", categoryHandler.CreateGroup)
		v1.POST("/categories", categoryHandler.CreateCategory)

		// 预算与可分配资金
		v1.GET("/budgets", budgetHandler.Month)
		v1.PUT("/budgets/:categoryId/:month", budgetHandler.SetAssigned)
		v1.GET("/ready-to-assign", budgetHandler.ReadyToAssign)
		v1.POST("/reconcile", budgetHandler.Reconcile)

		// 交易
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.PATCH("/:id/cleared", transactionHandler.SetCleared)
		}

		// 导出相关
		export := v1.Group("/export")
		{
			export.GET("/csv", exportHandler.ExportCSV)
			export.GET("/excel", exportHandler.ExportExcel)
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Idempotency-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
