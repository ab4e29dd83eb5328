package robot

import (
	"fmt"

	"gsource-auth/internal/core/source"
	"gsource-auth/pkg/constants"
)

// Record 构造 robot 凭据所需的数据（secret 已解密）
type Record struct {
	ID            string
	Name          string
	Kind          string
	Secret        []byte
	Email         string
	AllowedScopes []string
}

// Robot 带有展示名称与 scope 限制的 robot 凭据
type Robot interface {
	source.RobotCredential
	Name() string
	AllowedScopes() AllowedScopes
}

// Factory 按记录类型构造 robot 凭据
type Factory struct {
	detect Detector
	lookup EmailLookup
}

// NewFactory detect/lookup 为空时使用默认实现
func NewFactory(detect Detector, lookup EmailLookup) *Factory {
	return &Factory{detect: detect, lookup: lookup}
}

func (f *Factory) Build(rec Record) (Robot, error) {
	switch rec.Kind {
	case constants.RobotKindServiceAccount:
		sa, err := NewServiceAccount(rec.ID, rec.Name, rec.Secret, rec.AllowedScopes, f.detect)
		if err != nil {
			return nil, err
		}
		return sa, nil
	case constants.RobotKindApplicationDefault:
		return NewApplicationDefault(rec.ID, rec.Name, rec.Email, rec.AllowedScopes, f.detect, f.lookup), nil
	default:
		return nil, fmt.Errorf("未知的 robot 凭据类型: %s", rec.Kind)
	}
}
