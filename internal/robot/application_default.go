package robot

import (
	"context"
	"fmt"

	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/compute/metadata"

	"gsource-auth/internal/core/source"
)

// EmailLookup 查询运行环境默认服务账号邮箱
type EmailLookup func(ctx context.Context) (string, error)

// MetadataEmail 通过 GCE metadata server 查询默认服务账号
func MetadataEmail(ctx context.Context) (string, error) {
	if !metadata.OnGCE() {
		return "", fmt.Errorf("不在 GCE 环境中，无法查询默认服务账号")
	}
	return metadata.EmailWithContext(ctx, "default")
}

// ApplicationDefault 使用运行环境的 Application Default Credentials
type ApplicationDefault struct {
	id      string
	name    string
	email   string
	allowed AllowedScopes
	detect  Detector
	lookup  EmailLookup
}

// NewApplicationDefault email 为空时运行时查询
func NewApplicationDefault(id, name, email string, allowed []string, detect Detector, lookup EmailLookup) *ApplicationDefault {
	if detect == nil {
		detect = credentials.DetectDefault
	}
	if lookup == nil {
		lookup = MetadataEmail
	}
	return &ApplicationDefault{
		id:      id,
		name:    name,
		email:   email,
		allowed: allowed,
		detect:  detect,
		lookup:  lookup,
	}
}

func (a *ApplicationDefault) ID() string {
	return a.id
}

func (a *ApplicationDefault) Name() string {
	return a.name
}

func (a *ApplicationDefault) AllowedScopes() AllowedScopes {
	return a.allowed
}

// Username 优先使用配置的邮箱，其次 ADC JSON 中的 client_email，最后查询 metadata server
func (a *ApplicationDefault) Username(ctx context.Context) (string, error) {
	if a.email != "" {
		return a.email, nil
	}
	if creds, err := a.detect(&credentials.DetectOptions{}); err == nil {
		if data := creds.JSON(); len(data) > 0 {
			if kf, err := parseKeyFile(data); err == nil && kf.ClientEmail != "" {
				return kf.ClientEmail, nil
			}
		}
	}
	email, err := a.lookup(ctx)
	if err != nil {
		return "", source.AuthenticationFailure(a.id, err)
	}
	return email, nil
}

func (a *ApplicationDefault) AccessToken(ctx context.Context, scope source.DomainRequirement) (source.Secret, error) {
	if err := a.allowed.check(a.id, scope); err != nil {
		return source.Secret{}, err
	}
	tok, err := mintToken(ctx, a.detect, a.id, &credentials.DetectOptions{Scopes: scope.Scopes})
	if err != nil {
		return source.Secret{}, err
	}
	return source.NewSecret(tok.Value), nil
}

func (a *ApplicationDefault) ForRemote(ctx context.Context, scope source.DomainRequirement) (source.RobotCredential, error) {
	if err := a.allowed.check(a.id, scope); err != nil {
		return nil, err
	}
	account, err := a.Username(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := mintToken(ctx, a.detect, a.id, &credentials.DetectOptions{Scopes: scope.Scopes})
	if err != nil {
		return nil, err
	}
	return source.NewRemoteToken(a.id, account, scope, source.NewSecret(tok.Value), tok.Expiry), nil
}
