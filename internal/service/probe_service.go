package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/dto"
	"gsource-auth/internal/model"
	"gsource-auth/internal/repository"
	"gsource-auth/pkg/constants"
)

// ProbeService 定期验证 robot 凭据能否签发 token
type ProbeService interface {
	ProbeAll(ctx context.Context) ([]*dto.ProbeResult, error)
	Probe(ctx context.Context, id int64) (*dto.ProbeResult, error)
}

type probeService struct {
	repo     repository.RobotCredentialRepository
	store    *RobotStore
	registry *source.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

func NewProbeService(repo repository.RobotCredentialRepository, store *RobotStore, registry *source.Registry, timeout time.Duration, logger *zap.Logger) ProbeService {
	if registry == nil {
		registry = source.DefaultRegistry()
	}
	return &probeService{
		repo:     repo,
		store:    store,
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// ProbeAll 探测全部凭据，单个失败不中断，错误汇总返回
func (s *probeService) ProbeAll(ctx context.Context) ([]*dto.ProbeResult, error) {
	list, err := s.repo.List(ctx, "", nil)
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	results := make([]*dto.ProbeResult, 0, len(list))
	for _, c := range list {
		r, err := s.probe(ctx, c)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("凭据 %d: %w", c.ID, err))
		}
		if r != nil {
			results = append(results, r)
		}
	}

	failed := lo.CountBy(results, func(r *dto.ProbeResult) bool { return r.Status == constants.ProbeStatusFailed })
	s.logger.Info("robot 凭据探测完成", zap.Int("total", len(results)), zap.Int("failed", failed))
	return results, result.ErrorOrNil()
}

func (s *probeService) Probe(ctx context.Context, id int64) (*dto.ProbeResult, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.probe(ctx, c)
}

// probe 对凭据允许的每个策略 scope 申请 token；只有写入结果失败才返回错误
func (s *probeService) probe(ctx context.Context, c *model.RobotCredential) (*dto.ProbeResult, error) {
	probeCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := time.Now()
	res := &dto.ProbeResult{ID: c.ID, Status: constants.ProbeStatusSuccess, ProbedAt: now.Format(time.RFC3339)}

	r, err := s.store.Get(probeCtx, CredentialsID(c.ID))
	if err != nil {
		res.Status, res.Message = constants.ProbeStatusFailed, err.Error()
	} else {
		var errs *multierror.Error
		for _, strategy := range s.registry.Strategies() {
			scope := strategy.Scope()
			if !r.AllowedScopes().Permits(scope) {
				continue
			}
			res.Scopes = append(res.Scopes, scope.Scopes...)
			if _, err := r.AccessToken(probeCtx, scope); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
			}
		}
		if err := errs.ErrorOrNil(); err != nil {
			res.Status, res.Message = constants.ProbeStatusFailed, err.Error()
		} else if len(res.Scopes) == 0 {
			res.Status, res.Message = constants.ProbeStatusFailed, "没有允许的源码 scope"
		}
	}

	if res.Status == constants.ProbeStatusFailed {
		s.logger.Warn("robot 凭据探测失败", zap.Int64("id", c.ID), zap.String("message", res.Message))
	}
	if err := s.repo.UpdateProbe(ctx, c.ID, res.Status, res.Message, now); err != nil {
		return res, err
	}
	return res, nil
}
