package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// OAuth scopes
const (
	ScopeGerritCodeReview = "https://www.googleapis.com/auth/gerritcodereview"
	ScopeSourceReadWrite  = "https://www.googleapis.com/auth/source.read_write"
)

// GerritUsername Gerrit 托管仓库固定使用的用户名
const GerritUsername = "git"

// Strategy 按 URL 选择用户名的策略
type Strategy int

const (
	// StrategyGerrit *.googlesource.com 上的 Gerrit 托管
	StrategyGerrit Strategy = iota
	// StrategyCloudPlatform Google Cloud Platform 源码托管
	StrategyCloudPlatform
)

type strategyRecord struct {
	name    string
	pattern DomainPattern
	scope   DomainRequirement
}

// strategyRecords 进程级常量表，按 Strategy 下标访问
var strategyRecords = [...]strategyRecord{
	StrategyGerrit: {
		name:    "GERRIT",
		pattern: NewDomainPattern("gerrit", []string{"https"}, "*.googlesource.com"),
		scope:   ScopeRequirement(ScopeGerritCodeReview),
	},
	StrategyCloudPlatform: {
		name: "CLOUD_PLATFORM",
		pattern: NewDomainPattern("cloud_platform", []string{"https"},
			strings.Join([]string{"code.google.com", "source.developers.google.com"}, ",")),
		scope: ScopeRequirement(ScopeSourceReadWrite),
	},
}

// AllStrategies 按枚举顺序返回全部策略
func AllStrategies() []Strategy {
	out := make([]Strategy, len(strategyRecords))
	for i := range strategyRecords {
		out[i] = Strategy(i)
	}
	return out
}

// ParseStrategy 按持久化名称解析策略
func ParseStrategy(name string) (Strategy, error) {
	for i, rec := range strategyRecords {
		if strings.EqualFold(rec.name, name) {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("未知的策略: %q", name)
}

func (s Strategy) valid() bool {
	return s >= 0 && int(s) < len(strategyRecords)
}

func (s Strategy) record() strategyRecord {
	if !s.valid() {
		panic(fmt.Sprintf("source: invalid strategy %d", int(s)))
	}
	return strategyRecords[s]
}

func (s Strategy) String() string {
	if !s.valid() {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyRecords[s].name
}

// Name 持久化名称
func (s Strategy) Name() string {
	return s.record().name
}

// Domain 策略适用的域
func (s Strategy) Domain() DomainPattern {
	return s.record().pattern
}

// Scope 策略需要的 OAuth scope 要求
func (s Strategy) Scope() DomainRequirement {
	return s.record().scope
}

// Matches 要求集合是否适用该策略
func (s Strategy) Matches(reqs []DomainRequirement) bool {
	return s.record().pattern.Test(reqs)
}

// DeriveIdentity 根据策略从 robot 凭据推导登录名
func DeriveIdentity(ctx context.Context, s Strategy, robot RobotCredential) (string, error) {
	if robot == nil {
		return "", credentialUnavailable("", nil)
	}
	switch s {
	case StrategyGerrit:
		return GerritUsername, nil
	case StrategyCloudPlatform:
		return robot.Username(ctx)
	default:
		return "", fmt.Errorf("未知的策略: %d", int(s))
	}
}

// Token 以策略的 scope 从 robot 凭据获取 access token
func Token(ctx context.Context, s Strategy, robot RobotCredential) (Secret, error) {
	if robot == nil {
		return Secret{}, credentialUnavailable("", nil)
	}
	token, err := robot.AccessToken(ctx, s.Scope())
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailure) {
			return Secret{}, err
		}
		return Secret{}, authenticationFailure(robot.ID(), err)
	}
	return token, nil
}

// Registry 有序的策略集合，由宿主显式构造
type Registry struct {
	strategies []Strategy
}

// NewRegistry 按给定顺序构造策略集合
func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: append([]Strategy(nil), strategies...)}
}

// DefaultRegistry GERRIT, CLOUD_PLATFORM
func DefaultRegistry() *Registry {
	return NewRegistry(AllStrategies()...)
}

// Strategies 按顺序返回策略
func (r *Registry) Strategies() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// FirstMatching 返回第一个适用的策略
func (r *Registry) FirstMatching(reqs []DomainRequirement) (Strategy, bool) {
	for _, s := range r.strategies {
		if s.Matches(reqs) {
			return s, true
		}
	}
	return 0, false
}

// Matching 返回全部适用的策略，保持顺序
func (r *Registry) Matching(reqs []DomainRequirement) []Strategy {
	var out []Strategy
	for _, s := range r.strategies {
		if s.Matches(reqs) {
			out = append(out, s)
		}
	}
	return out
}
