package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/samber/lo"

	"gsource-auth/internal/core/source"
)

// Detector 获取 Google 凭据，默认使用 credentials.DetectDefault
type Detector func(opts *credentials.DetectOptions) (*auth.Credentials, error)

// AllowedScopes robot 凭据允许申请的 scope，空表示不限制
type AllowedScopes []string

// Permits 要求中的每个 scope 都在允许范围内
func (a AllowedScopes) Permits(scope source.DomainRequirement) bool {
	if len(a) == 0 {
		return true
	}
	return lo.Every([]string(a), scope.Scopes)
}

// PermitsAll 要求集合中的全部 scope 要求都被允许
func (a AllowedScopes) PermitsAll(reqs []source.DomainRequirement) bool {
	if len(a) == 0 {
		return true
	}
	return lo.Every([]string(a), source.ScopesOf(reqs))
}

func (a AllowedScopes) check(id string, scope source.DomainRequirement) error {
	if a.Permits(scope) {
		return nil
	}
	missing, _ := lo.Difference(scope.Scopes, []string(a))
	return source.AuthenticationFailure(id, fmt.Errorf("scope %s 不在允许范围内", strings.Join(missing, ",")))
}

// keyFile 服务账号 JSON key 中需要的字段
type keyFile struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

func parseKeyFile(data []byte) (keyFile, error) {
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return kf, fmt.Errorf("解析服务账号 key 失败: %w", err)
	}
	return kf, nil
}

// mintToken 以指定 scope 获取 token
func mintToken(ctx context.Context, detect Detector, id string, opts *credentials.DetectOptions) (*auth.Token, error) {
	creds, err := detect(opts)
	if err != nil {
		return nil, source.AuthenticationFailure(id, err)
	}
	tok, err := creds.Token(ctx)
	if err != nil {
		return nil, source.AuthenticationFailure(id, err)
	}
	if tok == nil || tok.Value == "" {
		return nil, source.AuthenticationFailure(id, fmt.Errorf("token 为空"))
	}
	return tok, nil
}
