package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gsource-auth/internal/model"
	pkgErrors "gsource-auth/pkg/errors"
)

// BuildRepository 构建记录仓储接口
type BuildRepository interface {
	Create(ctx context.Context, build *model.Build) error
	FindByID(ctx context.Context, id int64, opts ...QueryOption) (*model.Build, error)
	FindByJobAndNumber(ctx context.Context, job string, buildNumber int) (*model.Build, error)
	Update(ctx context.Context, build *model.Build) error
}

type buildRepository struct {
	db *gorm.DB
}

// NewBuildRepository 创建构建记录仓储实例
func NewBuildRepository(db *gorm.DB) BuildRepository {
	return &buildRepository{db: db}
}

func (r *buildRepository) Create(ctx context.Context, build *model.Build) error {
	if err := conn(ctx, r.db).Create(build).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建构建记录失败", err)
	}
	return nil
}

// FindByID 根据ID查询构建记录，可预加载 Sources
func (r *buildRepository) FindByID(ctx context.Context, id int64, opts ...QueryOption) (*model.Build, error) {
	var build model.Build
	q := conn(ctx, r.db)
	for _, opt := range opts {
		q = opt(q)
	}
	if err := q.First(&build, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询构建记录失败", err)
	}
	return &build, nil
}

// FindByJobAndNumber 根据任务名和构建号查询
func (r *buildRepository) FindByJobAndNumber(ctx context.Context, job string, buildNumber int) (*model.Build, error) {
	var build model.Build
	err := conn(ctx, r.db).
		Where("job = ? AND build_number = ?", job, buildNumber).
		First(&build).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询构建记录失败", err)
	}
	return &build, nil
}

func (r *buildRepository) Update(ctx context.Context, build *model.Build) error {
	if err := conn(ctx, r.db).Save(build).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新构建记录失败", err)
	}
	return nil
}
