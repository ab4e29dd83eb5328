package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gsource-auth/internal/pkg/config"
	"gsource-auth/internal/service"
)

const defaultProbeCron = "0 */30 * * * *"

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	probeSvc      service.ProbeService
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理
}

// NewScheduler 创建调度器
func NewScheduler(probeSvc service.ProbeService, logger *zap.Logger) *Scheduler {
	// 创建 cron 实例（带秒级支持）
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:          c,
		logger:        logger,
		probeSvc:      probeSvc,
		cronSchedules: make(map[string]cron.EntryID),
	}
}

// Start 启动调度器
func (s *Scheduler) Start(cfg *config.ProbeConfig) error {
	log := s.logger.Sugar()

	if !cfg.Enabled {
		log.Info("robot 凭据探测未启用，跳过定时任务")
		return nil
	}

	// cron 表达式格式: 秒 分 时 日 月 周
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultProbeCron
		log.Warn("未配置probe.cron，使用默认值", zap.String("cron", cronExpr))
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		log.Info("执行定时任务: robot 凭据探测")
		if err := s.TriggerProbe(context.Background()); err != nil {
			log.Errorf("robot 凭据探测任务执行失败: %v", err)
		}
	})
	if err != nil {
		log.Errorf("注册 robot 凭据探测任务 %v 失败: %v", cronExpr, err)
		return err
	}

	s.cronSchedules["robot_probe"] = entryID
	log.Infof("robot 凭据探测任务已注册: %s entry_id=%d", cronExpr, entryID)

	s.cron.Start()
	log.Info("定时任务调度器启动成功")

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	// 停止 cron（等待正在执行的任务完成）
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// TriggerProbe 手动触发一次探测
func (s *Scheduler) TriggerProbe(ctx context.Context) error {
	results, err := s.probeSvc.ProbeAll(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("robot 凭据探测结果", zap.Int("count", len(results)))
	return nil
}

// Entries 已注册的任务
func (s *Scheduler) Entries() map[string]cron.EntryID {
	return s.cronSchedules
}
