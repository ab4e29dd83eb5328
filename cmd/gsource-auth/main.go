package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gsource-auth/internal/api/router"
	"gsource-auth/internal/core"
	"gsource-auth/internal/pkg/config"
	"gsource-auth/internal/pkg/database"
	"gsource-auth/internal/pkg/jwt"
	"gsource-auth/internal/pkg/logger"
	"gsource-auth/internal/scheduler"

	_ "gsource-auth/docs" // Swagger docs
)

// @title gsource-auth API
// @version 1.0
// @description Google 源码服务凭据桥接 API
// @description 将 Google 服务账号凭据转换为 Gerrit / Cloud Source Repositories 可用的用户名/密码，并记录构建使用的源码来源

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var (
	configFile = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version    = flag.Bool("version", false, "显示版本信息")
	issueFor   = flag.String("issue-token", "", "为指定调用方签发访问 token 后退出")
	issueRoles = flag.String("roles", "system", "签发 token 的角色，逗号分隔")
)

const (
	appVersion = "1.0.0"
	appName    = "gsource-auth"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// init config logger
	var cfg *config.Config
	{
		// 优先级: 命令行参数 > 环境变量 > 默认路径
		configPath := getConfigPath()

		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			fmt.Println("\n使用方式:")
			fmt.Println("  1. 命令行参数指定:")
			fmt.Println("     ./gsource-auth -config=configs/config.yaml")
			fmt.Println("  2. 环境变量指定:")
			fmt.Println("     export CONFIG_FILE=configs/config.yaml")
			fmt.Println("     ./gsource-auth")
			os.Exit(1)
		}
		cfg = c

		if *issueFor != "" {
			issueToken(cfg)
			return
		}

		if err := logger.Init(&cfg.Log); err != nil {
			fmt.Printf("初始化日志失败: %v\n", err)
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))

		defer func() {
			_ = logger.Close()
		}()
	}

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", appVersion))

	// 初始化数据库
	if err := database.Init(&cfg.Database, logger.Named("gorm")); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close()
	}()
	logger.Info(fmt.Sprintf("数据库连接成功 %s:%v", cfg.Database.Host, cfg.Database.Port), zap.String("database", cfg.Database.Database))

	engine, err := core.NewEngine(database.DB, cfg, logger.Log)
	if err != nil {
		logger.Fatal("初始化核心组件失败", zap.Error(err))
	}

	// 初始化并启动定时任务调度器
	taskScheduler := scheduler.NewScheduler(engine.Probe, logger.Named("scheduler"))
	if err := taskScheduler.Start(&cfg.Probe); err != nil {
		logger.Warn("定时任务调度器启动失败", zap.Error(err))
	}

	r := router.Setup(cfg, engine, logger.Log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	taskScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// issueToken 签发访问 token，供 CI 控制器或 agent 使用
func issueToken(cfg *config.Config) {
	roles := strings.Split(*issueRoles, ",")
	token, err := jwt.NewManager(cfg.Auth.JWT).GenerateAccessToken(*issueFor, roles)
	if err != nil {
		fmt.Printf("签发 token 失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	if *configFile != "" {
		return *configFile
	}
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}
	return "configs/config.yaml"
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}
