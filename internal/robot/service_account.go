package robot

import (
	"context"
	"fmt"

	"cloud.google.com/go/auth/credentials"

	"gsource-auth/internal/core/source"
)

// ServiceAccount 以 JSON key 保存的服务账号
type ServiceAccount struct {
	id      string
	name    string
	email   string
	project string
	keyJSON []byte
	allowed AllowedScopes
	detect  Detector
}

// NewServiceAccount 从 JSON key 构造，key 必须包含 client_email
func NewServiceAccount(id, name string, keyJSON []byte, allowed []string, detect Detector) (*ServiceAccount, error) {
	kf, err := parseKeyFile(keyJSON)
	if err != nil {
		return nil, err
	}
	if kf.Type != "" && kf.Type != "service_account" {
		return nil, fmt.Errorf("不支持的 key 类型: %s", kf.Type)
	}
	if kf.ClientEmail == "" {
		return nil, fmt.Errorf("服务账号 key 缺少 client_email")
	}
	if detect == nil {
		detect = credentials.DetectDefault
	}
	return &ServiceAccount{
		id:      id,
		name:    name,
		email:   kf.ClientEmail,
		project: kf.ProjectID,
		keyJSON: keyJSON,
		allowed: allowed,
		detect:  detect,
	}, nil
}

func (s *ServiceAccount) ID() string {
	return s.id
}

func (s *ServiceAccount) Name() string {
	return s.name
}

// ProjectID key 所属的 GCP 项目
func (s *ServiceAccount) ProjectID() string {
	return s.project
}

func (s *ServiceAccount) Username(context.Context) (string, error) {
	return s.email, nil
}

func (s *ServiceAccount) AllowedScopes() AllowedScopes {
	return s.allowed
}

func (s *ServiceAccount) AccessToken(ctx context.Context, scope source.DomainRequirement) (source.Secret, error) {
	if err := s.allowed.check(s.id, scope); err != nil {
		return source.Secret{}, err
	}
	tok, err := mintToken(ctx, s.detect, s.id, s.options(scope))
	if err != nil {
		return source.Secret{}, err
	}
	return source.NewSecret(tok.Value), nil
}

// ForRemote 立即签发 token，远端只拿到 token 而不是 key
func (s *ServiceAccount) ForRemote(ctx context.Context, scope source.DomainRequirement) (source.RobotCredential, error) {
	if err := s.allowed.check(s.id, scope); err != nil {
		return nil, err
	}
	tok, err := mintToken(ctx, s.detect, s.id, s.options(scope))
	if err != nil {
		return nil, err
	}
	return source.NewRemoteToken(s.id, s.email, scope, source.NewSecret(tok.Value), tok.Expiry), nil
}

func (s *ServiceAccount) options(scope source.DomainRequirement) *credentials.DetectOptions {
	return &credentials.DetectOptions{
		Scopes:          scope.Scopes,
		CredentialsJSON: s.keyJSON,
	}
}
