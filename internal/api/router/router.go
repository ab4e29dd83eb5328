package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"gsource-auth/internal/api/handler"
	"gsource-auth/internal/api/middleware"
	"gsource-auth/internal/core"
	"gsource-auth/internal/pkg/auth"
	"gsource-auth/internal/pkg/config"
	"gsource-auth/internal/pkg/jwt"
	"gsource-auth/pkg/utils"
)

// Setup 设置路由
func Setup(cfg *config.Config, engine *core.Engine, logger *zap.Logger) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterValidations(v); err != nil {
			logger.Warn("注册自定义校验规则失败", zap.Error(err))
		}
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(logger.Named("http")))

	// 健康检查
	r.GET("/health", handler.Health)

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtManager := jwt.NewManager(cfg.Auth.JWT)

	// 初始化Handler
	robotHandler := handler.NewRobotCredentialHandler(engine.RobotCredentials, engine.Probe)
	sourceHandler := handler.NewSourceCredentialHandler(engine.SourceCredential)
	buildHandler := handler.NewBuildHandler(engine.Builds)

	// API v1
	v1 := r.Group("/api/v1")
	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(jwtManager))
	{
		// robot 凭据管理
		robots := authed.Group("/robot-credentials")
		{
			robots.POST("", middleware.RequirePermission(auth.PermRobotCreate), robotHandler.Create)
			robots.GET("", middleware.RequirePermission(auth.PermRobotView), robotHandler.List)
			robots.GET("/:id", middleware.RequirePermission(auth.PermRobotView), robotHandler.Get)
			robots.PUT("/:id", middleware.RequirePermission(auth.PermRobotUpdate), robotHandler.Update)
			robots.DELETE("/:id", middleware.RequirePermission(auth.PermRobotDelete), robotHandler.Delete)
			robots.POST("/:id/probe", middleware.RequirePermission(auth.PermRobotProbe), robotHandler.Probe)
		}

		// 桥接凭据：非系统身份查询得到空列表，解析返回 403
		sources := authed.Group("/source-credentials")
		{
			sources.POST("/lookup", middleware.RequirePermission(auth.PermSourceLookup), sourceHandler.Lookup)
			sources.POST("/resolve", middleware.RequirePermission(auth.PermSourceResolve), sourceHandler.Resolve)
			sources.POST("/remote", middleware.RequirePermission(auth.PermSourceResolve), sourceHandler.Remote)
			sources.POST("/verify", middleware.RequirePermission(auth.PermSourceVerify), sourceHandler.Verify)
		}

		// 构建来源
		builds := authed.Group("/builds")
		{
			builds.POST("/notify", middleware.RequirePermission(auth.PermBuildNotify), buildHandler.Notify)
			builds.GET("", middleware.RequirePermission(auth.PermBuildView), buildHandler.GetByJob)
			builds.GET("/:id", middleware.RequirePermission(auth.PermBuildView), buildHandler.Get)
			builds.GET("/:id/source-metadata", middleware.RequirePermission(auth.PermBuildView), buildHandler.SourceMetadata)
		}
	}

	logger.Info("路由注册完成", zap.Int("routes", len(r.Routes())))
	return r
}
