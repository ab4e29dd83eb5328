package source

import (
	"context"
	"fmt"
)

// IDPrefix 桥接凭据 ID 前缀
const IDPrefix = "source:"

// Form 桥接凭据的两种形态
type Form int

const (
	// FormLive 只保存 robot 凭据 ID，每次使用时重新解析
	FormLive Form = iota
	// FormSnapshot 保存已解析的用户名与远端凭据，构造后不可变
	FormSnapshot
)

func (f Form) String() string {
	switch f {
	case FormLive:
		return "live"
	case FormSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

// snapshotState 快照形态的只写一次状态
type snapshotState struct {
	identity string
	remote   RobotCredential
}

// TranslatedCredential 以用户名/密码形式呈现的 robot 凭据
//
// 形态只能从 Live 单向转为 Snapshot，见 ForRemote。
type TranslatedCredential struct {
	credentialsID string
	strategy      Strategy
	form          Form

	host     Host           // Live 使用
	snapshot *snapshotState // Snapshot 使用
}

// NewLiveCredential 构造 Live 形态的桥接凭据
func NewLiveCredential(credentialsID string, strategy Strategy, host Host) *TranslatedCredential {
	return &TranslatedCredential{
		credentialsID: credentialsID,
		strategy:      strategy,
		form:          FormLive,
		host:          host,
	}
}

func newSnapshotCredential(credentialsID string, strategy Strategy, identity string, remote RobotCredential) *TranslatedCredential {
	return &TranslatedCredential{
		credentialsID: credentialsID,
		strategy:      strategy,
		form:          FormSnapshot,
		snapshot: &snapshotState{
			identity: identity,
			remote:   remote,
		},
	}
}

// ID 桥接凭据自身的 ID
func (t *TranslatedCredential) ID() string {
	return IDPrefix + t.credentialsID
}

// CredentialsID 被包装的 robot 凭据 ID
func (t *TranslatedCredential) CredentialsID() string {
	return t.credentialsID
}

func (t *TranslatedCredential) Strategy() Strategy {
	return t.strategy
}

func (t *TranslatedCredential) Form() Form {
	return t.form
}

// Type 桥接凭据的类型
func (t *TranslatedCredential) Type() CredentialType {
	return TypeRobotUsernamePassword
}

// Matches 仅适用于策略声明的域
func (t *TranslatedCredential) Matches(reqs []DomainRequirement) bool {
	return t.strategy.Matches(reqs)
}

// Username 返回登录名
func (t *TranslatedCredential) Username(ctx context.Context) (string, error) {
	if t.form == FormSnapshot {
		return t.snapshot.identity, nil
	}
	robot, err := t.host.resolve(ctx, t.credentialsID)
	if err != nil {
		return "", err
	}
	return DeriveIdentity(ctx, t.strategy, robot)
}

// Password 返回 access token
func (t *TranslatedCredential) Password(ctx context.Context) (Secret, error) {
	if t.form == FormSnapshot {
		return Token(ctx, t.strategy, t.snapshot.remote)
	}
	robot, err := t.host.resolve(ctx, t.credentialsID)
	if err != nil {
		return Secret{}, err
	}
	return Token(ctx, t.strategy, robot)
}

// Description 被包装凭据的展示名称，无法解析时为空
func (t *TranslatedCredential) Description(ctx context.Context) string {
	var robot RobotCredential
	if t.form == FormSnapshot {
		robot = t.snapshot.remote
	} else {
		resolved, err := t.host.resolve(ctx, t.credentialsID)
		if err != nil {
			return ""
		}
		robot = resolved
	}
	name, err := robot.Username(ctx)
	if err != nil {
		return t.credentialsID
	}
	return name
}

// Remote 快照形态下的远端凭据
func (t *TranslatedCredential) Remote() (RobotCredential, bool) {
	if t.form != FormSnapshot {
		return nil, false
	}
	return t.snapshot.remote, true
}

// ForRemote 将桥接凭据转换为可交给其他执行环境的快照
//
// Live 形态会立即解析用户名并向 robot 凭据索取远端形态；
// 已是快照时原样返回同一个实例。
func ForRemote(ctx context.Context, t *TranslatedCredential) (*TranslatedCredential, error) {
	if t.form == FormSnapshot {
		return t, nil
	}
	robot, err := t.host.resolve(ctx, t.credentialsID)
	if err != nil {
		return nil, err
	}
	return snapshot(ctx, t.credentialsID, t.strategy, robot)
}

func snapshot(ctx context.Context, credentialsID string, strategy Strategy, robot RobotCredential) (*TranslatedCredential, error) {
	identity, err := DeriveIdentity(ctx, strategy, robot)
	if err != nil {
		return nil, err
	}
	remote, err := robot.ForRemote(ctx, strategy.Scope())
	if err != nil {
		return nil, authenticationFailure(credentialsID, err)
	}
	return newSnapshotCredential(credentialsID, strategy, identity, remote), nil
}
