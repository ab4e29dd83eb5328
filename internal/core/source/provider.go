package source

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// LookupQuery 凭据查询条件
type LookupQuery struct {
	Type         CredentialType
	ItemScope    ItemScope
	Acting       Identity
	Requirements []DomainRequirement
}

// Provider 把 robot 凭据翻译成用户名/密码凭据
type Provider struct {
	registry *Registry
	host     Host
	logger   *zap.Logger
}

// NewProvider 创建 Provider，registry 为空时使用默认策略集合
func NewProvider(registry *Registry, host Host, logger *zap.Logger) *Provider {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		registry: registry,
		host:     host,
		logger:   logger,
	}
}

func (p *Provider) Registry() *Registry {
	return p.registry
}

func (p *Provider) Host() Host {
	return p.host
}

// Lookup 返回所有适用的桥接凭据
//
// 只对系统身份开放；类型不兼容时直接返回空，不访问仓库。
// 仓库错误原样返回，不重试。
func (p *Provider) Lookup(ctx context.Context, q LookupQuery) ([]*TranslatedCredential, error) {
	if q.Acting != SystemIdentity {
		p.logger.Debug("非系统身份，跳过桥接凭据查询", zap.String("acting", string(q.Acting)))
		return nil, nil
	}
	if !q.Type.AssignableFrom(TypeRobotUsernamePassword) {
		return nil, nil
	}
	if !p.host.HasStore() {
		return nil, nil
	}

	var result []*TranslatedCredential
	for _, strategy := range p.registry.strategies {
		if !strategy.Matches(q.Requirements) {
			continue
		}
		robots, err := p.host.Store.LookupRobots(ctx, RobotQuery{
			ItemScope:    q.ItemScope,
			Acting:       SystemIdentity,
			Requirements: []DomainRequirement{strategy.Scope()},
		})
		if err != nil {
			return nil, err
		}
		for _, robot := range robots {
			result = append(result, NewLiveCredential(robot.ID(), strategy, p.host))
		}
		p.logger.Debug("策略匹配",
			zap.String("strategy", strategy.Name()),
			zap.String("hosts", strategy.Domain().HostPatterns()),
			zap.Int("robots", len(robots)))
	}
	return result, nil
}

// Resolve 按桥接凭据 ID 与策略构造 Live 凭据，robot 凭据必须仍然存在
func (p *Provider) Resolve(ctx context.Context, id string, strategy Strategy) (*TranslatedCredential, error) {
	credentialsID := TrimIDPrefix(id)
	if _, err := p.host.resolve(ctx, credentialsID); err != nil {
		return nil, err
	}
	return NewLiveCredential(credentialsID, strategy, p.host), nil
}

// TrimIDPrefix 去掉 "source:" 前缀，得到 robot 凭据 ID
func TrimIDPrefix(id string) string {
	return strings.TrimPrefix(id, IDPrefix)
}
