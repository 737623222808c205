package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/api/handler"
	"compliance-hub/backend/internal/api/middleware"
	"compliance-hub/backend/pkg/jwt"
	"compliance-hub/backend/pkg/redis"
)

// importMaxBodyBytes Excel 导入接口的请求体上限
const importMaxBodyBytes = 10 << 20

// 角色
const (
	roleAdmin     = "admin"
	roleHRManager = "hr_manager"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时跳过 Token 黑名单检查与限流；db 为 nil 时健康检查不探测数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		checker middleware.TokenChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		checker = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db))

	bodyLimit := middleware.BodyLimit(cfg.Server.MaxBodyBytes)
	rateLimit := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)
	writers := middleware.RoleAuth(roleAdmin, roleHRManager)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", bodyLimit)
		{
			auth.POST("/login", rateLimit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker, logger))

		// Excel 导入单独放宽请求体上限
		authorized.POST("/import/job-responsibilities",
			middleware.BodyLimit(importMaxBodyBytes), writers, rateLimit, h.Assignment.ImportAssignments)

		api := authorized.Group("", bodyLimit)
		{
			api.POST("/auth/logout", h.Auth.Logout)
			api.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户管理（仅管理员）
			users := api.Group("/users", middleware.RoleAuth(roleAdmin))
			{
				users.GET("", h.User.ListUsers)
				users.POST("", rateLimit, h.User.CreateUser)
				users.PUT("/:id", rateLimit, h.User.UpdateUser)
				users.DELETE("/:id", rateLimit, h.User.DeleteUser)
				users.POST("/:id/reset-password", rateLimit, h.User.ResetPassword)
			}

			// 岗位模块
			jobs := api.Group("/jobs")
			{
				jobs.GET("", h.Job.ListJobs)
				jobs.GET("/:id", h.Job.GetJob)
				jobs.POST("", writers, rateLimit, h.Job.CreateJob)
				jobs.PUT("/:id", writers, rateLimit, h.Job.UpdateJob)
				jobs.DELETE("/:id", writers, rateLimit, h.Job.DeleteJob)

				// 岗位职责分配
				jobs.GET("/:id/responsibilities", h.Assignment.ListByJob)
				jobs.POST("/:id/responsibilities", writers, rateLimit, h.Assignment.Create)
				jobs.POST("/:id/responsibilities/check", h.Assignment.Check)
				jobs.GET("/:id/weight", h.Assignment.WeightOn)
			}

			api.DELETE("/job-responsibilities/:id", writers, rateLimit, h.Assignment.Delete)

			// 职责模块
			responsibilities := api.Group("/responsibilities")
			{
				responsibilities.GET("", h.Responsibility.ListResponsibilities)
				responsibilities.GET("/:id", h.Responsibility.GetResponsibility)
				responsibilities.POST("", writers, rateLimit, h.Responsibility.CreateResponsibility)
				responsibilities.PUT("/:id", writers, rateLimit, h.Responsibility.UpdateResponsibility)
				responsibilities.DELETE("/:id", writers, rateLimit, h.Responsibility.DeleteResponsibility)
				responsibilities.POST("/:id/bulk-assign", writers, rateLimit, h.Assignment.BulkAssign)
			}

			// 导出模块
			export := api.Group("/export")
			{
				export.GET("/jobs/:id/responsibilities.xlsx", h.Export.ExportJobAssignments)
				export.GET("/jobs/:id/responsibilities.ics", h.Export.ExportJobCalendar)
			}
		}
	}

	return r
}

// healthCheck 返回服务与数据库状态
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	}
}
