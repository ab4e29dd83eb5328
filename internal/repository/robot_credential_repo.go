package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gsource-auth/internal/model"
	pkgErrors "gsource-auth/pkg/errors"
)

// RobotCredentialRepository robot 凭据仓储接口
type RobotCredentialRepository interface {
	Create(ctx context.Context, c *model.RobotCredential) error
	GetByID(ctx context.Context, id int64) (*model.RobotCredential, error)
	Update(ctx context.Context, c *model.RobotCredential) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, scope string, projectID *int64) ([]*model.RobotCredential, error)
	Page(ctx context.Context, page, pageSize int, scope, keyword string, projectID *int64) ([]*model.RobotCredential, int64, error)
	// ListVisible 全局凭据加上指定项目的凭据，projectID 为空时只返回全局凭据
	ListVisible(ctx context.Context, projectID *int64) ([]*model.RobotCredential, error)
	UpdateProbe(ctx context.Context, id int64, status, message string, at time.Time) error
}

type robotCredentialRepository struct {
	db *gorm.DB
}

func NewRobotCredentialRepository(db *gorm.DB) RobotCredentialRepository {
	return &robotCredentialRepository{db: db}
}

func (r *robotCredentialRepository) Create(ctx context.Context, c *model.RobotCredential) error {
	if err := conn(ctx, r.db).Create(c).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建 robot 凭据失败", err)
	}
	return nil
}

func (r *robotCredentialRepository) GetByID(ctx context.Context, id int64) (*model.RobotCredential, error) {
	var c model.RobotCredential
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询 robot 凭据失败", err)
	}
	return &c, nil
}

func (r *robotCredentialRepository) Update(ctx context.Context, c *model.RobotCredential) error {
	if err := conn(ctx, r.db).Save(c).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新 robot 凭据失败", err)
	}
	return nil
}

func (r *robotCredentialRepository) Delete(ctx context.Context, id int64) error {
	if err := conn(ctx, r.db).Delete(&model.RobotCredential{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除 robot 凭据失败", err)
	}
	return nil
}

func (r *robotCredentialRepository) List(ctx context.Context, scope string, projectID *int64) ([]*model.RobotCredential, error) {
	var list []*model.RobotCredential
	q := conn(ctx, r.db).Model(&model.RobotCredential{})
	if scope != "" {
		q = q.Where("scope = ?", scope)
	}
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	if err := q.Order("id DESC").Find(&list).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询 robot 凭据列表失败", err)
	}
	return list, nil
}

func (r *robotCredentialRepository) Page(ctx context.Context, page, pageSize int, scope, keyword string, projectID *int64) ([]*model.RobotCredential, int64, error) {
	var list []*model.RobotCredential
	var total int64

	query := conn(ctx, r.db).Model(&model.RobotCredential{})
	if scope != "" {
		query = query.Where("scope = ?", scope)
	}
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计 robot 凭据数量失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("id DESC").Find(&list).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询 robot 凭据列表失败", err)
	}
	return list, total, nil
}

func (r *robotCredentialRepository) ListVisible(ctx context.Context, projectID *int64) ([]*model.RobotCredential, error) {
	var list []*model.RobotCredential
	q := conn(ctx, r.db).Model(&model.RobotCredential{})
	if projectID != nil {
		q = q.Where("scope = ? OR (scope = ? AND project_id = ?)", model.ScopeGlobal, model.ScopeProject, *projectID)
	} else {
		q = q.Where("scope = ?", model.ScopeGlobal)
	}
	// 项目凭据优先，其次按创建顺序
	if err := q.Order("scope DESC, id ASC").Find(&list).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询可见 robot 凭据失败", err)
	}
	return list, nil
}

func (r *robotCredentialRepository) UpdateProbe(ctx context.Context, id int64, status, message string, at time.Time) error {
	err := conn(ctx, r.db).Model(&model.RobotCredential{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_probed_at": at,
			"last_status":    status,
			"last_message":   message,
		}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新探测结果失败", err)
	}
	return nil
}
