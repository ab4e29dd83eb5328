package source

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// RobotCredential 外部管理的 OAuth 服务账号凭据
type RobotCredential interface {
	// ID 稳定的凭据 ID
	ID() string
	// Username 账号标识（通常为服务账号邮箱）
	Username(ctx context.Context) (string, error)
	// AccessToken 按 scope 要求获取 access token
	AccessToken(ctx context.Context, scope DomainRequirement) (Secret, error)
	// ForRemote 返回可在其他执行环境使用的凭据，绑定到指定 scope
	ForRemote(ctx context.Context, scope DomainRequirement) (RobotCredential, error)
}

// RobotQuery robot 凭据查询条件
type RobotQuery struct {
	ItemScope    ItemScope
	Acting       Identity
	Requirements []DomainRequirement
}

// RobotStore 凭据仓库（由宿主提供）
type RobotStore interface {
	// LookupRobots 按上下文与域要求查询 robot 凭据
	LookupRobots(ctx context.Context, q RobotQuery) ([]RobotCredential, error)
	// GetRobot 按 ID 查询；不存在时返回 ErrCredentialUnavailable
	GetRobot(ctx context.Context, credentialsID string) (RobotCredential, error)
}

// Host 注入的宿主环境句柄
// Store 为空表示当前执行环境无法访问凭据仓库（例如构建 agent）
type Host struct {
	Store RobotStore
}

// AgentHost 无仓库访问的宿主
func AgentHost() Host {
	return Host{}
}

// HasStore 是否可以访问凭据仓库
func (h Host) HasStore() bool {
	return h.Store != nil
}

// resolve 在当前宿主上解析 robot 凭据
func (h Host) resolve(ctx context.Context, credentialsID string) (RobotCredential, error) {
	if h.Store == nil {
		return nil, credentialUnavailable(credentialsID, fmt.Errorf("当前执行环境无凭据仓库"))
	}
	robot, err := h.Store.GetRobot(ctx, credentialsID)
	if err != nil {
		return nil, err
	}
	if robot == nil {
		return nil, credentialUnavailable(credentialsID, nil)
	}
	return robot, nil
}

// RemoteToken 预先签发的 access token，可序列化后交给远端执行环境
type RemoteToken struct {
	CredentialsID string    `cbor:"credentials_id" json:"credentials_id"`
	Account       string    `cbor:"account" json:"account"`
	Scopes        []string  `cbor:"scopes" json:"scopes"`
	Token         string    `cbor:"token" json:"-"`
	Expiry        time.Time `cbor:"expiry,omitempty" json:"expiry,omitempty"`
}

// NewRemoteToken 以已获取的 token 构造远端凭据
func NewRemoteToken(credentialsID, account string, scope DomainRequirement, token Secret, expiry time.Time) *RemoteToken {
	return &RemoteToken{
		CredentialsID: credentialsID,
		Account:       account,
		Scopes:        append([]string(nil), scope.Scopes...),
		Token:         token.PlainText(),
		Expiry:        expiry,
	}
}

func (r *RemoteToken) ID() string {
	return r.CredentialsID
}

func (r *RemoteToken) Username(context.Context) (string, error) {
	return r.Account, nil
}

// AccessToken 只能为签发时的 scope 提供 token，过期即失败
func (r *RemoteToken) AccessToken(_ context.Context, scope DomainRequirement) (Secret, error) {
	if missing, _ := lo.Difference(scope.Scopes, r.Scopes); len(missing) > 0 {
		return Secret{}, authenticationFailure(r.CredentialsID,
			fmt.Errorf("远端令牌未覆盖 scope %v", missing))
	}
	if !r.Expiry.IsZero() && time.Now().After(r.Expiry) {
		return Secret{}, authenticationFailure(r.CredentialsID,
			fmt.Errorf("远端令牌已于 %s 过期", r.Expiry.Format(time.RFC3339)))
	}
	return NewSecret(r.Token), nil
}

// ForRemote 已经是远端形态，返回自身
func (r *RemoteToken) ForRemote(context.Context, DomainRequirement) (RobotCredential, error) {
	return r, nil
}
