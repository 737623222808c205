package repository

import (
	"context"

	"gorm.io/gorm"

	"compliance-hub/backend/internal/model"
	pkgerrors "compliance-hub/backend/pkg/errors"
)

// ResponsibilityRepository 职责数据访问接口
type ResponsibilityRepository interface {
	Create(ctx context.Context, resp *model.Responsibility) error
	GetByID(ctx context.Context, id string) (*model.Responsibility, error)
	// GetByName 按名称精确匹配（忽略大小写），用于导入
	GetByName(ctx context.Context, name string) (*model.Responsibility, error)
	List(ctx context.Context, category string, includeInactive bool) ([]model.Responsibility, error)
	Update(ctx context.Context, resp *model.Responsibility) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type responsibilityRepo struct {
	db *gorm.DB
}

// NewResponsibilityRepo 创建 ResponsibilityRepository 实例
func NewResponsibilityRepo(db *gorm.DB) ResponsibilityRepository {
	return &responsibilityRepo{db: db}
}

func (r *responsibilityRepo) Create(ctx context.Context, resp *model.Responsibility) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *responsibilityRepo) GetByID(ctx context.Context, id string) (*model.Responsibility, error) {
	var resp model.Responsibility
	err := r.db.WithContext(ctx).
		Where("responsibility_id = ?", id).
		First(&resp).Error
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responsibilityRepo) GetByName(ctx context.Context, name string) (*model.Responsibility, error) {
	var resp model.Responsibility
	err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?)", name).
		First(&resp).Error
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responsibilityRepo) List(ctx context.Context, category string, includeInactive bool) ([]model.Responsibility, error) {
	var list []model.Responsibility
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}
	err := db.Order("category ASC, name ASC").Find(&list).Error
	return list, err
}

func (r *responsibilityRepo) Update(ctx context.Context, resp *model.Responsibility) error {
	oldVersion := resp.Version
	result := r.db.WithContext(ctx).
		Model(resp).
		Where("responsibility_id = ? AND version = ?", resp.ResponsibilityID, oldVersion).
		Updates(map[string]interface{}{
			"name":        resp.Name,
			"category":    resp.Category,
			"description": resp.Description,
			"is_active":   resp.IsActive,
			"updated_by":  resp.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	resp.Version = oldVersion + 1
	return nil
}

func (r *responsibilityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Responsibility{}).
		Where("responsibility_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
