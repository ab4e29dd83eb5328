package core

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gsource-auth/internal/core/scm"
	"gsource-auth/internal/core/source"
	"gsource-auth/internal/pkg/config"
	"gsource-auth/internal/pkg/crypto"
	"gsource-auth/internal/pkg/git"
	"gsource-auth/internal/repository"
	"gsource-auth/internal/robot"
	"gsource-auth/internal/service"
)

// Engine 凭据桥接与来源记录的核心组件
type Engine struct {
	Provider *source.Provider
	Store    *service.RobotStore
	Listener *scm.Listener

	RobotCredentials service.RobotCredentialService
	SourceCredential service.SourceCredentialService
	Builds           service.BuildService
	Probe            service.ProbeService

	logger *zap.Logger
}

// NewEngine 按配置组装核心组件
func NewEngine(db *gorm.DB, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	cipher, err := crypto.NewFromConfig(&cfg.Crypto)
	if err != nil {
		return nil, fmt.Errorf("初始化加密组件失败: %w", err)
	}

	robotRepo := repository.NewRobotCredentialRepository(db)
	buildRepo := repository.NewBuildRepository(db)
	sourceRepo := repository.NewSourceMetadataRepository(db)

	factory := robot.NewFactory(nil, nil)
	store := service.NewRobotStore(robotRepo, cipher, factory, logger.Named("robot-store"))
	registry := source.DefaultRegistry()
	provider := source.NewProvider(registry, source.Host{Store: store}, logger.Named("source"))

	extractor := scm.NewExtractorForPlugins(cfg.SCM.Plugins, logger.Named("scm"))
	listener := scm.NewListener(extractor, logger.Named("scm"))

	verifier := git.NewClient(parseDuration(cfg.Verify.Timeout, 15*time.Second, logger))

	e := &Engine{
		Provider: provider,
		Store:    store,
		Listener: listener,

		RobotCredentials: service.NewRobotCredentialService(robotRepo, cipher, factory, logger),
		SourceCredential: service.NewSourceCredentialService(provider, verifier, logger),
		Builds:           service.NewBuildService(repository.NewTxManager(db), buildRepo, sourceRepo, listener),
		Probe: service.NewProbeService(robotRepo, store, registry,
			parseDuration(cfg.Probe.Timeout, 30*time.Second, logger), logger.Named("probe")),

		logger: logger,
	}

	logger.Info("核心组件初始化完成",
		zap.Strings("strategies", registryNames(registry)),
		zap.Strings("extractors", extractor.Names()))
	return e, nil
}

func registryNames(r *source.Registry) []string {
	names := make([]string, 0, len(r.Strategies()))
	for _, s := range r.Strategies() {
		names = append(names, s.Name())
	}
	return names
}

func parseDuration(v string, def time.Duration, logger *zap.Logger) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("解析时长失败，使用默认值", zap.String("value", v), zap.Duration("default", def), zap.Error(err))
		return def
	}
	return d
}
