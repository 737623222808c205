package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/model"
	"compliance-hub/backend/internal/repository"
	pkgerrors "compliance-hub/backend/pkg/errors"
)

// ── 岗位模块业务错误 ──

var (
	ErrJobNotFound  = errors.New("岗位不存在")
	ErrJobCodeTaken = errors.New("岗位编码已存在")
	ErrJobInactive  = errors.New("岗位已停用")
)

// JobService 岗位业务接口
type JobService interface {
	Create(ctx context.Context, req *dto.CreateJobRequest, callerID string) (*dto.JobResponse, error)
	GetByID(ctx context.Context, id string) (*dto.JobResponse, error)
	List(ctx context.Context, req *dto.JobListRequest) ([]dto.JobResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateJobRequest, callerID string) (*dto.JobResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type jobService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewJobService 创建 JobService 实例
func NewJobService(repo *repository.Repository, logger *zap.Logger) JobService {
	return &jobService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *jobService) Create(ctx context.Context, req *dto.CreateJobRequest, callerID string) (*dto.JobResponse, error) {
	code := strings.TrimSpace(req.Code)
	if err := s.ensureCodeAvailable(ctx, code, ""); err != nil {
		return nil, err
	}

	job := &model.Job{
		Code:        code,
		Title:       strings.TrimSpace(req.Title),
		Department:  req.Department,
		Description: req.Description,
		IsActive:    true,
	}
	job.CreatedBy = &callerID
	job.UpdatedBy = &callerID

	if err := s.repo.Job.Create(ctx, job); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrJobCodeTaken
		}
		s.logger.Error("创建岗位失败", zap.Error(err))
		return nil, err
	}

	return toJobResponse(job), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *jobService) GetByID(ctx context.Context, id string) (*dto.JobResponse, error) {
	job, err := s.repo.Job.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toJobResponse(job), nil
}

// ────────────────────── List ──────────────────────

func (s *jobService) List(ctx context.Context, req *dto.JobListRequest) ([]dto.JobResponse, int64, error) {
	filter := repository.JobFilter{
		Keyword:         strings.TrimSpace(req.Keyword),
		Department:      req.Department,
		IncludeInactive: req.IncludeInactive,
	}

	jobs, total, err := s.repo.Job.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出岗位失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		result = append(result, *toJobResponse(&jobs[i]))
	}

	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *jobService) Update(ctx context.Context, id string, req *dto.UpdateJobRequest, callerID string) (*dto.JobResponse, error) {
	job, err := s.repo.Job.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code != job.Code {
			if err := s.ensureCodeAvailable(ctx, code, job.JobID); err != nil {
				return nil, err
			}
			job.Code = code
		}
	}
	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Department != nil {
		job.Department = *req.Department
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}

	job.UpdatedBy = &callerID

	if err := s.repo.Job.Update(ctx, job); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrJobCodeTaken
		}
		s.logger.Error("更新岗位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toJobResponse(job), nil
}

// ────────────────────── Delete ──────────────────────

func (s *jobService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Job.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Job.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除岗位失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

// ensureCodeAvailable 检查岗位编码未被其他岗位占用
func (s *jobService) ensureCodeAvailable(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.Job.GetByCode(ctx, code)
	if err == nil {
		if existing.JobID != selfID {
			return ErrJobCodeTaken
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	s.logger.Error("查询岗位编码失败", zap.String("code", code), zap.Error(err))
	return err
}

func toJobResponse(job *model.Job) *dto.JobResponse {
	return &dto.JobResponse{
		ID:          job.JobID,
		Code:        job.Code,
		Title:       job.Title,
		Department:  job.Department,
		Description: job.Description,
		IsActive:    job.IsActive,
		Version:     job.Version,
		CreatedAt:   job.CreatedAt.Format(timeLayout),
		UpdatedAt:   job.UpdatedAt.Format(timeLayout),
	}
}
