package router

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"cashflow/api"
	"cashflow/config"
	"cashflow/docs"
	"cashflow/middleware"
	"cashflow/repository"
	"cashflow/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ryanuber/go-glob"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// 登录、注册限流：每个 IP 每分钟 10 次
const (
	loginMaxAttempts = 10
	loginWindow      = time.Minute
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(RequestLogger())
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(CORSMiddleware(cfg.Server.CORSOrigins))
	}

	r.NoRoute(func(c *gin.Context) {
		api.NotFound(c, "接口不存在")
	})
	r.NoMethod(func(c *gin.Context) {
		api.Error(c, http.StatusMethodNotAllowed, "不支持的请求方法")
	})

	// Swagger 文档
	if cfg.Server.BaseURL != "" {
		if u, err := url.Parse(cfg.Server.BaseURL); err == nil {
			docs.SwaggerInfo.Host = u.Host
		}
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 性能分析
	if cfg.Server.Pprof {
		pprof.Register(r)
	}

	// 健康检查
	r.GET("/health", HealthHandler(db))

	// 存储与服务
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	budgets := repository.NewBudgetRepository(db)
	aggregator := service.NewAggregator(budgets, categories, time.Now)
	sessions := middleware.NewSessionManager(cfg)

	authHandler := api.NewAuthHandler(users, sessions)
	categoryHandler := api.NewCategoryHandler(categories)
	budgetHandler := api.NewBudgetHandler(budgets, cfg.Budget.AmountLimit)
	dashboardHandler := api.NewDashboardHandler(service.NewDashboardService(aggregator), aggregator)
	exportHandler := api.NewExportHandler(aggregator, users, service.NewEmailService(&cfg.Email))

	apiGroup := r.Group("/api")
	{
		// 认证相关路由（无需登录）
		rateLimit := middleware.LoginRateLimit(loginMaxAttempts, loginWindow)
		apiGroup.POST("/register", rateLimit, authHandler.Register)
		apiGroup.POST("/login", rateLimit, authHandler.Login)
		apiGroup.POST("/logout", authHandler.Logout)

		// 需要会话的路由
		authorized := apiGroup.Group("")
		authorized.Use(sessions.Auth())
		{
			authorized.GET("/session", authHandler.Session)

			authorized.GET("/dashboard", dashboardHandler.Dashboard)
			authorized.GET("/totals", dashboardHandler.Totals)

			budget := authorized.Group("/budget")
			{
				budget.GET("", budgetHandler.List)
				budget.POST("", budgetHandler.Upsert)
				budget.GET("/:id", budgetHandler.Get)
				budget.DELETE("/:id", budgetHandler.Delete)
			}

			category := authorized.Group("/category")
			{
				category.GET("", categoryHandler.List)
				category.POST("", categoryHandler.Upsert)
				category.DELETE("/:id", categoryHandler.Delete)
			}

			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
				export.POST("/email", exportHandler.ExportEmail)
			}
		}
	}

	return r
}

// RequestLogger 使用 zerolog 记录请求日志，附带请求 ID
func RequestLogger() gin.HandlerFunc {
	return logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.WarnLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithSkipPath([]string{"/health"}),
		logger.WithLogger(func(c *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return log.Logger.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Str("ip", c.ClientIP()).
				Logger()
		}),
	)
}

// CORSMiddleware CORS 跨域中间件，origins 支持 glob，如 http://localhost:*
// 会话依赖 cookie，因此不能使用通配符 *，只放行匹配的来源
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return AllowOrigin(origins, origin)
		},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// AllowOrigin 判断来源是否匹配任一 glob 模式
func AllowOrigin(patterns []string, origin string) bool {
	for _, p := range patterns {
		if glob.Glob(p, origin) {
			return true
		}
	}
	return false
}

// HealthHandler 健康检查，数据库不可用时返回 503
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.Error().Err(err).Msg("健康检查失败")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unavailable",
				"database": "down",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": "up",
		})
	}
}
