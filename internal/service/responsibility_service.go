package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/model"
	"compliance-hub/backend/internal/repository"
	"compliance-hub/backend/internal/weighting"
	pkgerrors "compliance-hub/backend/pkg/errors"
)

// ── 职责模块业务错误 ──

var (
	ErrResponsibilityNotFound = errors.New("职责不存在")
	ErrResponsibilityInactive = errors.New("职责已停用")
	ErrResponsibilityInUse    = errors.New("职责仍被岗位使用，无法删除")
)

// ResponsibilityService 职责业务接口
type ResponsibilityService interface {
	Create(ctx context.Context, req *dto.CreateResponsibilityRequest, callerID string) (*dto.ResponsibilityResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ResponsibilityResponse, error)
	List(ctx context.Context, req *dto.ResponsibilityListRequest) ([]dto.ResponsibilityResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateResponsibilityRequest, callerID string) (*dto.ResponsibilityResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type responsibilityService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewResponsibilityService 创建 ResponsibilityService 实例
func NewResponsibilityService(repo *repository.Repository, logger *zap.Logger) ResponsibilityService {
	return &responsibilityService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *responsibilityService) Create(ctx context.Context, req *dto.CreateResponsibilityRequest, callerID string) (*dto.ResponsibilityResponse, error) {
	resp := &model.Responsibility{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		IsActive:    true,
	}
	resp.CreatedBy = &callerID
	resp.UpdatedBy = &callerID

	if err := s.repo.Responsibility.Create(ctx, resp); err != nil {
		s.logger.Error("创建职责失败", zap.Error(err))
		return nil, err
	}

	return toResponsibilityResponse(resp), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *responsibilityService) GetByID(ctx context.Context, id string) (*dto.ResponsibilityResponse, error) {
	resp, err := s.repo.Responsibility.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponsibilityNotFound
		}
		s.logger.Error("查询职责失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toResponsibilityResponse(resp), nil
}

// ────────────────────── List ──────────────────────

func (s *responsibilityService) List(ctx context.Context, req *dto.ResponsibilityListRequest) ([]dto.ResponsibilityResponse, error) {
	list, err := s.repo.Responsibility.List(ctx, strings.TrimSpace(req.Category), req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出职责失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ResponsibilityResponse, 0, len(list))
	for i := range list {
		result = append(result, *toResponsibilityResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *responsibilityService) Update(ctx context.Context, id string, req *dto.UpdateResponsibilityRequest, callerID string) (*dto.ResponsibilityResponse, error) {
	resp, err := s.repo.Responsibility.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponsibilityNotFound
		}
		s.logger.Error("查询职责失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		resp.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		resp.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		resp.Description = *req.Description
	}
	if req.IsActive != nil {
		resp.IsActive = *req.IsActive
	}
	resp.UpdatedBy = &callerID

	if err := s.repo.Responsibility.Update(ctx, resp); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新职责失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return toResponsibilityResponse(resp), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除职责；仍有当前或未来生效的岗位分配时拒绝
func (s *responsibilityService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Responsibility.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResponsibilityNotFound
		}
		s.logger.Error("查询职责失败", zap.String("id", id), zap.Error(err))
		return err
	}

	inUse, err := s.repo.JobResponsibility.CountCurrentByResponsibility(ctx, id, weighting.Day(s.now()))
	if err != nil {
		s.logger.Error("统计职责使用情况失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if inUse > 0 {
		return ErrResponsibilityInUse
	}

	if err := s.repo.Responsibility.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除职责失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func toResponsibilityResponse(resp *model.Responsibility) *dto.ResponsibilityResponse {
	return &dto.ResponsibilityResponse{
		ID:          resp.ResponsibilityID,
		Name:        resp.Name,
		Category:    resp.Category,
		Description: resp.Description,
		IsActive:    resp.IsActive,
		Version:     resp.Version,
		CreatedAt:   resp.CreatedAt.Format(timeLayout),
		UpdatedAt:   resp.UpdatedAt.Format(timeLayout),
	}
}
