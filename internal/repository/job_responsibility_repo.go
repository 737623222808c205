package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"compliance-hub/backend/internal/model"
)

// JobResponsibilityRepository 岗位职责分配数据访问接口
type JobResponsibilityRepository interface {
	Create(ctx context.Context, a *model.JobResponsibility) error
	GetByID(ctx context.Context, id string) (*model.JobResponsibility, error)
	// ListByJob 列出岗位全部分配记录（含历史），按开始日期排序
	ListByJob(ctx context.Context, jobID string) ([]model.JobResponsibility, error)
	// CountCurrentByResponsibility 统计指定日期及之后仍生效的分配数
	CountCurrentByResponsibility(ctx context.Context, responsibilityID string, day time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type jobResponsibilityRepo struct {
	db *gorm.DB
}

// NewJobResponsibilityRepo 创建 JobResponsibilityRepository 实例
func NewJobResponsibilityRepo(db *gorm.DB) JobResponsibilityRepository {
	return &jobResponsibilityRepo{db: db}
}

func (r *jobResponsibilityRepo) Create(ctx context.Context, a *model.JobResponsibility) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *jobResponsibilityRepo) GetByID(ctx context.Context, id string) (*model.JobResponsibility, error) {
	var a model.JobResponsibility
	err := r.db.WithContext(ctx).
		Preload("Responsibility").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *jobResponsibilityRepo) ListByJob(ctx context.Context, jobID string) ([]model.JobResponsibility, error) {
	var list []model.JobResponsibility
	err := r.db.WithContext(ctx).
		Preload("Responsibility", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("job_id = ?", jobID).
		Order("start_date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *jobResponsibilityRepo) CountCurrentByResponsibility(ctx context.Context, responsibilityID string, day time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.JobResponsibility{}).
		Where("responsibility_id = ? AND (end_date IS NULL OR end_date >= ?)", responsibilityID, day).
		Count(&count).Error
	return count, err
}

func (r *jobResponsibilityRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		Delete(&model.JobResponsibility{}).Error
}
