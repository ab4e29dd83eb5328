package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gsource-auth/internal/dto"
	"gsource-auth/internal/model"
	"gsource-auth/internal/repository"
	"gsource-auth/internal/robot"
	"gsource-auth/pkg/constants"
	pkgErrors "gsource-auth/pkg/errors"
)

type RobotCredentialService interface {
	Create(ctx context.Context, req *dto.CreateRobotCredentialRequest) (*dto.RobotCredentialResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.RobotCredentialResponse, error)
	List(ctx context.Context, q *dto.ListRobotCredentialQuery) ([]*dto.RobotCredentialResponse, int64, error)
	Update(ctx context.Context, id int64, req *dto.UpdateRobotCredentialRequest) (*dto.RobotCredentialResponse, error)
	Delete(ctx context.Context, id int64) error
}

type robotCredentialService struct {
	repo    repository.RobotCredentialRepository
	cipher  SecretCipher
	factory *robot.Factory
	logger  *zap.Logger
}

func NewRobotCredentialService(repo repository.RobotCredentialRepository, cipher SecretCipher, factory *robot.Factory, logger *zap.Logger) RobotCredentialService {
	return &robotCredentialService{
		repo:    repo,
		cipher:  cipher,
		factory: factory,
		logger:  logger,
	}
}

func (s *robotCredentialService) Create(ctx context.Context, req *dto.CreateRobotCredentialRequest) (*dto.RobotCredentialResponse, error) {
	if req.Scope == string(model.ScopeProject) && req.ProjectID == nil {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "scope=project 时 project_id 必填")
	}
	if req.Scope == string(model.ScopeGlobal) {
		req.ProjectID = nil
	}

	c := &model.RobotCredential{
		Scope:         model.Scope(req.Scope),
		ProjectID:     req.ProjectID,
		Name:          req.Name,
		Kind:          req.Kind,
		AllowedScopes: lo.Uniq(req.AllowedScopes),
	}
	meta, err := s.applySecret(c, req.Key, req.Email)
	if err != nil {
		return nil, err
	}
	c.MetaJSON = meta

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("创建 robot 凭据", zap.Int64("id", c.ID), zap.String("kind", c.Kind), zap.String("name", c.Name))
	return toRobotCredentialResponse(c), nil
}

// applySecret 校验并加密 key，返回 meta_json
func (s *robotCredentialService) applySecret(c *model.RobotCredential, key json.RawMessage, email string) (datatypes.JSON, error) {
	if c.Kind == constants.RobotKindServiceAccount && len(key) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "service_account 类型必须提供 key")
	}

	// 构造一次以校验 key 格式，并提取展示字段
	r, err := s.factory.Build(robot.Record{Kind: c.Kind, Name: c.Name, Secret: key, Email: email})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeValidationError, "robot 凭据无效", err)
	}
	meta := dto.RobotCredentialMeta{Email: email}
	if sa, ok := r.(*robot.ServiceAccount); ok {
		meta.Email, _ = sa.Username(context.Background())
		meta.ProjectID = sa.ProjectID()
	}

	if len(key) > 0 {
		enc, err := s.cipher.Encrypt(key)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "凭据加密失败，请检查 crypto.aes_key 配置", err)
		}
		c.EncryptedData = enc
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "序列化 meta 失败", err)
	}
	return datatypes.JSON(data), nil
}

func (s *robotCredentialService) GetByID(ctx context.Context, id int64) (*dto.RobotCredentialResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRobotCredentialResponse(c), nil
}

func (s *robotCredentialService) List(ctx context.Context, q *dto.ListRobotCredentialQuery) ([]*dto.RobotCredentialResponse, int64, error) {
	list, total, err := s.repo.Page(ctx, q.GetPage(), q.GetPageSize(), q.Scope, q.Keyword, q.ProjectID)
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(list, func(c *model.RobotCredential, _ int) *dto.RobotCredentialResponse {
		return toRobotCredentialResponse(c)
	}), total, nil
}

func (s *robotCredentialService) Update(ctx context.Context, id int64, req *dto.UpdateRobotCredentialRequest) (*dto.RobotCredentialResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = req.Name
	if req.AllowedScopes != nil {
		c.AllowedScopes = lo.Uniq(req.AllowedScopes)
	}
	if len(req.Key) > 0 || req.Email != nil {
		email := metaOf(c).Email
		if req.Email != nil {
			email = *req.Email
		}
		key := req.Key
		if len(key) == 0 && c.EncryptedData != "" {
			plain, err := s.cipher.Decrypt(c.EncryptedData)
			if err != nil {
				return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "解密凭据失败", err)
			}
			key = plain
		}
		meta, err := s.applySecret(c, key, email)
		if err != nil {
			return nil, err
		}
		c.MetaJSON = meta
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toRobotCredentialResponse(c), nil
}

func (s *robotCredentialService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func metaOf(c *model.RobotCredential) dto.RobotCredentialMeta {
	var meta dto.RobotCredentialMeta
	if len(c.MetaJSON) > 0 {
		_ = json.Unmarshal(c.MetaJSON, &meta)
	}
	return meta
}

func toRobotCredentialResponse(c *model.RobotCredential) *dto.RobotCredentialResponse {
	if c == nil {
		return nil
	}
	resp := &dto.RobotCredentialResponse{
		ID:            c.ID,
		CredentialsID: CredentialsID(c.ID),
		Scope:         string(c.Scope),
		ProjectID:     c.ProjectID,
		Name:          c.Name,
		Kind:          c.Kind,
		Email:         metaOf(c).Email,
		AllowedScopes: c.AllowedScopes,
		LastStatus:    c.LastStatus,
		LastMessage:   c.LastMessage,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LastProbedAt != nil {
		resp.LastProbedAt = c.LastProbedAt.Format(time.RFC3339)
	}
	return resp
}
