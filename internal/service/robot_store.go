package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/dto"
	"gsource-auth/internal/model"
	"gsource-auth/internal/repository"
	"gsource-auth/internal/robot"
	pkgErrors "gsource-auth/pkg/errors"
)

// SecretCipher 凭据密文的加解密
type SecretCipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// CredentialsID robot 凭据对外的 ID
func CredentialsID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// RobotStore 基于数据库的 robot 凭据仓库
type RobotStore struct {
	repo    repository.RobotCredentialRepository
	cipher  SecretCipher
	factory *robot.Factory
	logger  *zap.Logger
}

func NewRobotStore(repo repository.RobotCredentialRepository, cipher SecretCipher, factory *robot.Factory, logger *zap.Logger) *RobotStore {
	return &RobotStore{
		repo:    repo,
		cipher:  cipher,
		factory: factory,
		logger:  logger,
	}
}

var _ source.RobotStore = (*RobotStore)(nil)

// LookupRobots 返回上下文可见、且允许要求中 scope 的 robot 凭据
func (s *RobotStore) LookupRobots(ctx context.Context, q source.RobotQuery) ([]source.RobotCredential, error) {
	if q.Acting != source.SystemIdentity {
		return nil, nil
	}
	records, err := s.repo.ListVisible(ctx, q.ItemScope.ProjectID)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeStoreError, "查询 robot 凭据失败", err)
	}

	robots := make([]source.RobotCredential, 0, len(records))
	for _, rec := range records {
		r, err := s.build(rec)
		if err != nil {
			s.logger.Warn("跳过无法解析的 robot 凭据", zap.Int64("id", rec.ID), zap.Error(err))
			continue
		}
		if !r.AllowedScopes().PermitsAll(q.Requirements) {
			continue
		}
		robots = append(robots, r)
	}
	return robots, nil
}

// GetRobot 按 ID 解析，不存在或无法解析时返回 ErrCredentialUnavailable
func (s *RobotStore) GetRobot(ctx context.Context, credentialsID string) (source.RobotCredential, error) {
	return s.Get(ctx, credentialsID)
}

// Get 同 GetRobot，返回带名称与 scope 限制的类型
func (s *RobotStore) Get(ctx context.Context, credentialsID string) (robot.Robot, error) {
	id, err := strconv.ParseInt(credentialsID, 10, 64)
	if err != nil {
		return nil, unavailable(credentialsID, err)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, unavailable(credentialsID, err)
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeStoreError, "查询 robot 凭据失败", err)
	}
	r, err := s.build(rec)
	if err != nil {
		return nil, unavailable(credentialsID, err)
	}
	return r, nil
}

func (s *RobotStore) build(rec *model.RobotCredential) (robot.Robot, error) {
	var secret []byte
	if rec.EncryptedData != "" {
		plain, err := s.cipher.Decrypt(rec.EncryptedData)
		if err != nil {
			return nil, fmt.Errorf("解密凭据失败: %w", err)
		}
		secret = plain
	}
	var meta dto.RobotCredentialMeta
	if len(rec.MetaJSON) > 0 {
		_ = json.Unmarshal(rec.MetaJSON, &meta)
	}
	return s.factory.Build(robot.Record{
		ID:            CredentialsID(rec.ID),
		Name:          rec.Name,
		Kind:          rec.Kind,
		Secret:        secret,
		Email:         meta.Email,
		AllowedScopes: lo.Uniq([]string(rec.AllowedScopes)),
	})
}

func unavailable(credentialsID string, cause error) error {
	return pkgErrors.Wrap(pkgErrors.CodeCredentialUnavailable,
		fmt.Sprintf("robot 凭据 %q 不可用", credentialsID), cause)
}
