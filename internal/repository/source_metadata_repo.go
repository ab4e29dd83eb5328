package repository

import (
	"context"

	"gorm.io/gorm"

	"gsource-auth/internal/model"
	pkgErrors "gsource-auth/pkg/errors"
)

// SourceMetadataRepository 构建来源仓储接口
type SourceMetadataRepository interface {
	Add(ctx context.Context, m *model.SourceMetadata) error
	ListByBuild(ctx context.Context, buildID int64) ([]*model.SourceMetadata, error)
	DeleteByBuild(ctx context.Context, buildID int64) error
}

type sourceMetadataRepository struct {
	db *gorm.DB
}

func NewSourceMetadataRepository(db *gorm.DB) SourceMetadataRepository {
	return &sourceMetadataRepository{db: db}
}

func (r *sourceMetadataRepository) Add(ctx context.Context, m *model.SourceMetadata) error {
	if err := conn(ctx, r.db).Create(m).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存构建来源失败", err)
	}
	return nil
}

func (r *sourceMetadataRepository) ListByBuild(ctx context.Context, buildID int64) ([]*model.SourceMetadata, error) {
	var list []*model.SourceMetadata
	err := conn(ctx, r.db).
		Where("build_id = ?", buildID).
		Order("seq ASC").
		Find(&list).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询构建来源失败", err)
	}
	return list, nil
}

func (r *sourceMetadataRepository) DeleteByBuild(ctx context.Context, buildID int64) error {
	if err := conn(ctx, r.db).Where("build_id = ?", buildID).Delete(&model.SourceMetadata{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除构建来源失败", err)
	}
	return nil
}
