package service

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/zap"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/dto"
	"gsource-auth/internal/pkg/git"
	pkgErrors "gsource-auth/pkg/errors"
)

// RepoVerifier 使用用户名/密码访问仓库
type RepoVerifier interface {
	Verify(ctx context.Context, repoURL, username, password string) (*git.VerifyResult, error)
}

// SourceCredentialService 桥接凭据服务
type SourceCredentialService interface {
	Lookup(ctx context.Context, acting source.Identity, req *dto.SourceLookupRequest) (*dto.SourceLookupResponse, error)
	Resolve(ctx context.Context, acting source.Identity, req *dto.SourceResolveRequest) (*dto.SourceResolveResponse, error)
	Remote(ctx context.Context, acting source.Identity, req *dto.SourceResolveRequest) (*dto.SourceRemoteResponse, error)
	Verify(ctx context.Context, acting source.Identity, req *dto.SourceVerifyRequest) (*dto.SourceVerifyResponse, error)
}

type sourceCredentialService struct {
	provider *source.Provider
	verifier RepoVerifier
	logger   *zap.Logger
}

func NewSourceCredentialService(provider *source.Provider, verifier RepoVerifier, logger *zap.Logger) SourceCredentialService {
	return &sourceCredentialService{
		provider: provider,
		verifier: verifier,
		logger:   logger,
	}
}

func (s *sourceCredentialService) Lookup(ctx context.Context, acting source.Identity, req *dto.SourceLookupRequest) (*dto.SourceLookupResponse, error) {
	typ := source.TypeUsernamePassword
	if req.Type != "" {
		typ = source.CredentialType(req.Type)
		if !typ.Known() {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "未知的凭据类型: "+req.Type)
		}
	}

	reqs := req.Requirements
	if req.URL != "" {
		var err error
		if reqs, err = repoRequirements(req.URL); err != nil {
			return nil, err
		}
	}
	scope := source.GlobalScope()
	if req.ProjectID != nil {
		scope = source.ProjectScope(*req.ProjectID)
	}

	creds, err := s.provider.Lookup(ctx, source.LookupQuery{
		Type:         typ,
		ItemScope:    scope,
		Acting:       acting,
		Requirements: reqs,
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.SourceCredentialItem, 0, len(creds))
	for _, c := range creds {
		binding, err := source.MarshalPersistent(c)
		if err != nil {
			return nil, err
		}
		items = append(items, dto.SourceCredentialItem{
			ID:            c.ID(),
			CredentialsID: c.CredentialsID(),
			Strategy:      c.Strategy().Name(),
			Description:   c.Description(ctx),
			Binding:       string(binding),
		})
	}
	return &dto.SourceLookupResponse{Items: items}, nil
}

func (s *sourceCredentialService) Resolve(ctx context.Context, acting source.Identity, req *dto.SourceResolveRequest) (*dto.SourceResolveResponse, error) {
	id, strategyName, err := s.target(req)
	if err != nil {
		return nil, err
	}
	c, err := s.resolve(ctx, acting, id, strategyName, req.URL)
	if err != nil {
		return nil, err
	}
	username, err := c.Username(ctx)
	if err != nil {
		return nil, err
	}
	password, err := c.Password(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("解析桥接凭据",
		zap.String("id", c.ID()),
		zap.String("strategy", c.Strategy().Name()),
		zap.String("username", username))
	return &dto.SourceResolveResponse{
		ID:       c.ID(),
		Strategy: c.Strategy().Name(),
		Username: username,
		Password: password.PlainText(),
	}, nil
}

// Remote 在控制端签发 token 并打包为远端快照
func (s *sourceCredentialService) Remote(ctx context.Context, acting source.Identity, req *dto.SourceResolveRequest) (*dto.SourceRemoteResponse, error) {
	id, strategyName, err := s.target(req)
	if err != nil {
		return nil, err
	}
	c, err := s.resolve(ctx, acting, id, strategyName, req.URL)
	if err != nil {
		return nil, err
	}
	snap, err := source.ForRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	data, err := source.EncodeRemote(ctx, snap)
	if err != nil {
		return nil, err
	}
	username, err := snap.Username(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.SourceRemoteResponse{
		ID:       snap.ID(),
		Strategy: snap.Strategy().Name(),
		Username: username,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	if remote, ok := snap.Remote(); ok {
		if tok, ok := remote.(*source.RemoteToken); ok {
			resp.Scopes = tok.Scopes
			if !tok.Expiry.IsZero() {
				resp.ExpiresAt = tok.Expiry.Format(time.RFC3339)
			}
		}
	}
	return resp, nil
}

// Verify 以桥接凭据访问仓库 info/refs
func (s *sourceCredentialService) Verify(ctx context.Context, acting source.Identity, req *dto.SourceVerifyRequest) (*dto.SourceVerifyResponse, error) {
	c, err := s.resolve(ctx, acting, req.ID, "", req.URL)
	if err != nil {
		return nil, err
	}
	resp := &dto.SourceVerifyResponse{
		ID:       c.ID(),
		URL:      req.URL,
		Strategy: c.Strategy().Name(),
	}

	username, err := c.Username(ctx)
	if err != nil {
		return nil, err
	}
	password, err := c.Password(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.verifier.Verify(ctx, req.URL, username, password.PlainText())
	if result != nil {
		resp.StatusCode = result.StatusCode
	}
	if err != nil {
		s.logger.Warn("仓库访问验证失败", zap.String("id", c.ID()), zap.String("url", req.URL), zap.Error(err))
		resp.Message = err.Error()
		return resp, nil
	}
	resp.OK = true
	return resp, nil
}

func (s *sourceCredentialService) resolve(ctx context.Context, acting source.Identity, id, strategyName, repoURL string) (*source.TranslatedCredential, error) {
	if acting != source.SystemIdentity {
		return nil, pkgErrors.ErrForbidden
	}
	strategy, err := s.pickStrategy(strategyName, repoURL)
	if err != nil {
		return nil, err
	}
	return s.provider.Resolve(ctx, id, strategy)
}

// target 解析请求中的凭据 ID 与策略，binding 优先
func (s *sourceCredentialService) target(req *dto.SourceResolveRequest) (string, string, error) {
	if req.Binding == "" {
		return req.ID, req.Strategy, nil
	}
	c, err := source.UnmarshalPersistent([]byte(req.Binding), s.provider.Host())
	if err != nil {
		return "", "", pkgErrors.Wrap(pkgErrors.CodeBadRequest, "binding 无效", err)
	}
	return c.CredentialsID(), c.Strategy().Name(), nil
}

// pickStrategy 显式指定优先，否则取第一个匹配 URL 的策略
func (s *sourceCredentialService) pickStrategy(name, repoURL string) (source.Strategy, error) {
	if name != "" {
		strategy, err := source.ParseStrategy(name)
		if err != nil {
			return 0, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "未知的策略", err)
		}
		if repoURL == "" {
			return strategy, nil
		}
		reqs, err := repoRequirements(repoURL)
		if err != nil {
			return 0, err
		}
		if !strategy.Matches(reqs) {
			return 0, pkgErrors.New(pkgErrors.CodeBadRequest, "策略与仓库地址不匹配")
		}
		return strategy, nil
	}
	if repoURL == "" {
		return 0, pkgErrors.New(pkgErrors.CodeBadRequest, "url 与 strategy 至少提供一个")
	}
	reqs, err := repoRequirements(repoURL)
	if err != nil {
		return 0, err
	}
	strategy, ok := s.provider.Registry().FirstMatching(reqs)
	if !ok {
		return 0, pkgErrors.New(pkgErrors.CodeBadRequest, "仓库地址不属于支持的 Google 源码服务")
	}
	return strategy, nil
}

// repoRequirements 仓库地址转换为域要求，无法识别的地址直接拒绝
func repoRequirements(repoURL string) ([]source.DomainRequirement, error) {
	reqs := source.RequirementsFromURI(repoURL)
	if len(reqs) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "无法解析的仓库地址: "+repoURL)
	}
	return reqs, nil
}
