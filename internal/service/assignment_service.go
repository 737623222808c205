package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/model"
	"compliance-hub/backend/internal/repository"
	"compliance-hub/backend/internal/weighting"
	pkgerrors "compliance-hub/backend/pkg/errors"
)

// ── 岗位职责分配模块业务错误 ──

var (
	ErrAssignmentNotFound   = errors.New("岗位职责分配记录不存在")
	ErrInvalidAssignment    = errors.New("岗位职责分配参数不合法")
	ErrInvalidDate          = errors.New("日期格式必须为 YYYY-MM-DD")
	ErrWeightBudgetExceeded = errors.New("岗位职责权重合计超过 100%")
	ErrAssignmentConflict   = errors.New("岗位职责分配冲突，请刷新后重试")
)

// BudgetExceededError 权重超限，携带准入检查结果（含 MaxAllowed）
type BudgetExceededError struct {
	Decision weighting.Decision
}

func (e *BudgetExceededError) Error() string {
	return e.Decision.Reason
}

// Is 使 errors.Is(err, ErrWeightBudgetExceeded) 成立
func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrWeightBudgetExceeded
}

// AssignmentService 岗位职责分配业务接口
type AssignmentService interface {
	// ListByJob 列出岗位的职责分配，activeOn 非空时只返回该日生效的记录
	ListByJob(ctx context.Context, jobID string, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, error)
	// Check 准入预检，不落库
	Check(ctx context.Context, jobID string, req *dto.AssignResponsibilityRequest) (*dto.AdmissionCheckResponse, error)
	// Create 准入检查通过后写入分配记录
	Create(ctx context.Context, jobID string, req *dto.AssignResponsibilityRequest, callerID string) (*dto.AssignmentResponse, error)
	Delete(ctx context.Context, id string) error
	// WeightOn 岗位在指定日期的权重合计与剩余额度；on 为空取当天
	WeightOn(ctx context.Context, jobID string, on string) (*dto.JobWeightResponse, error)
	// BulkAssign 将同一职责批量分配给多个岗位，逐项返回结果
	BulkAssign(ctx context.Context, responsibilityID string, req *dto.BulkAssignRequest, callerID string) (*dto.BulkAssignResponse, error)
	// ParseImportFile 解析岗位职责导入 Excel
	ParseImportFile(reader io.Reader) ([]ImportAssignmentRow, error)
	// ImportAssignments 按行导入，逐行返回失败原因
	ImportAssignments(ctx context.Context, rows []ImportAssignmentRow, callerID string) (*dto.ImportAssignmentResponse, error)
}

type assignmentService struct {
	cfg    *config.WeightingConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(cfg *config.WeightingConfig, repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── ListByJob ──────────────────────

func (s *assignmentService) ListByJob(ctx context.Context, jobID string, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, error) {
	var activeOn *time.Time
	if req != nil && req.ActiveOn != "" {
		day, err := weighting.ParseDate(req.ActiveOn)
		if err != nil {
			return nil, ErrInvalidDate
		}
		activeOn = &day
	}

	if _, err := s.getJob(ctx, jobID); err != nil {
		return nil, err
	}

	list, err := s.repo.JobResponsibility.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Error("查询岗位职责失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		a := &list[i]
		if activeOn != nil && !weighting.Overlaps(*activeOn, activeOn, a.StartDate, a.EndDate) {
			continue
		}
		result = append(result, toAssignmentResponse(a))
	}
	return result, nil
}

// ────────────────────── Check ──────────────────────

func (s *assignmentService) Check(ctx context.Context, jobID string, req *dto.AssignResponsibilityRequest) (*dto.AdmissionCheckResponse, error) {
	entry, err := parseAssignRequest(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.getJob(ctx, jobID); err != nil {
		return nil, err
	}

	decision, err := s.evaluate(ctx, s.repo, jobID, entry)
	if err != nil {
		return nil, err
	}

	return &dto.AdmissionCheckResponse{
		Accepted:   decision.Accepted,
		Reason:     decision.Reason,
		Aggregated: decision.Aggregated,
		MaxAllowed: decision.MaxAllowed,
	}, nil
}

// ────────────────────── Create ──────────────────────

// Create 先做一次无锁预检，快速拒绝明显超限的请求；
// 通过后在事务内锁定岗位行重新计算再写入，并发写入同一岗位时串行化
func (s *assignmentService) Create(ctx context.Context, jobID string, req *dto.AssignResponsibilityRequest, callerID string) (*dto.AssignmentResponse, error) {
	entry, err := parseAssignRequest(req)
	if err != nil {
		return nil, err
	}

	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, ErrJobInactive
	}
	if err := s.ensureResponsibilityAssignable(ctx, entry.ResponsibilityID); err != nil {
		return nil, err
	}

	// 1. 预检
	decision, err := s.evaluate(ctx, s.repo, jobID, entry)
	if err != nil {
		return nil, err
	}
	if !decision.Accepted {
		return nil, &BudgetExceededError{Decision: decision}
	}

	// 2. 事务内复核并写入
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	a, err := s.admitAndInsert(ctx, s.repo.WithTx(tx), jobID, entry, callerID)
	if err != nil {
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.String("job_id", jobID), zap.Error(err))
			return nil, s.translatePersistError(err, decision)
		}
		tx = nil
	}

	s.logger.Info("岗位职责已分配",
		zap.String("job_id", jobID),
		zap.String("responsibility_id", entry.ResponsibilityID),
		zap.Int("weighting", entry.Weight),
		zap.String("assignment_id", a.AssignmentID),
	)

	return ptrAssignmentResponse(a), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 直接删除，只会降低岗位负载，无需准入检查
func (s *assignmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.JobResponsibility.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("查询岗位职责失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.JobResponsibility.Delete(ctx, id); err != nil {
		s.logger.Error("删除岗位职责失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── WeightOn ──────────────────────

func (s *assignmentService) WeightOn(ctx context.Context, jobID string, on string) (*dto.JobWeightResponse, error) {
	day := weighting.Day(s.now())
	if on != "" {
		parsed, err := weighting.ParseDate(on)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = parsed
	}

	if _, err := s.getJob(ctx, jobID); err != nil {
		return nil, err
	}

	list, err := s.repo.JobResponsibility.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Error("查询岗位职责失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	total := weighting.AggregateOverlappingWeight(day, &day, model.Entries(list))
	remaining := weighting.MaxTotalWeight - total
	if remaining < 0 {
		remaining = 0
	}

	return &dto.JobWeightResponse{
		JobID:     jobID,
		Date:      day.Format(weighting.DateLayout),
		Total:     total,
		Remaining: remaining,
	}, nil
}

// ── 内部辅助方法 ──

// admitAndInsert 在事务内锁定岗位行、重新计算并写入。
// repo 必须已绑定事务，否则行锁不生效
func (s *assignmentService) admitAndInsert(
	ctx context.Context,
	repo *repository.Repository,
	jobID string,
	entry weighting.Entry,
	callerID string,
) (*model.JobResponsibility, error) {
	job, err := repo.Job.LockByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("锁定岗位失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	if !job.IsActive {
		return nil, ErrJobInactive
	}

	decision, err := s.evaluate(ctx, repo, jobID, entry)
	if err != nil {
		return nil, err
	}
	if !decision.Accepted {
		return nil, &BudgetExceededError{Decision: decision}
	}

	a := &model.JobResponsibility{
		JobID:            jobID,
		ResponsibilityID: entry.ResponsibilityID,
		Weighting:        entry.Weight,
		StartDate:        entry.StartDate,
		EndDate:          entry.EndDate,
	}
	if callerID != "" {
		a.CreatedBy = &callerID
	}

	if err := repo.JobResponsibility.Create(ctx, a); err != nil {
		return nil, s.translatePersistError(err, decision)
	}
	return a, nil
}

// evaluate 加载岗位全部分配记录并执行准入判断
func (s *assignmentService) evaluate(ctx context.Context, repo *repository.Repository, jobID string, entry weighting.Entry) (weighting.Decision, error) {
	existing, err := repo.JobResponsibility.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Error("查询岗位职责失败", zap.String("job_id", jobID), zap.Error(err))
		return weighting.Decision{}, err
	}
	return weighting.Evaluate(entry, model.Entries(existing)), nil
}

// translatePersistError 将数据库约束错误转换为业务错误
func (s *assignmentService) translatePersistError(err error, decision weighting.Decision) error {
	switch {
	case pkgerrors.IsWeightBudgetViolation(err):
		s.logger.Warn("数据库权重约束拒绝写入", zap.Int("aggregated", decision.Aggregated), zap.Error(err))
		return fmt.Errorf("%w: 并发写入后权重合计超过上限", ErrAssignmentConflict)
	case pkgerrors.IsUniqueViolation(err):
		return fmt.Errorf("%w: 同一职责在该开始日期已存在分配", ErrAssignmentConflict)
	case pkgerrors.IsForeignKeyViolation(err):
		return ErrResponsibilityNotFound
	case pkgerrors.IsConstraintViolation(err):
		return fmt.Errorf("%w: %v", ErrInvalidAssignment, err)
	default:
		s.logger.Error("写入岗位职责失败", zap.Error(err))
		return err
	}
}

func (s *assignmentService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.repo.Job.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", jobID), zap.Error(err))
		return nil, err
	}
	return job, nil
}

func (s *assignmentService) ensureResponsibilityAssignable(ctx context.Context, id string) error {
	resp, err := s.repo.Responsibility.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResponsibilityNotFound
		}
		s.logger.Error("查询职责失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !resp.IsActive {
		return ErrResponsibilityInactive
	}
	return nil
}

// parseAssignRequest 校验请求字段，失败时返回包装了 *weighting.ValidationError 的 ErrInvalidAssignment
func parseAssignRequest(req *dto.AssignResponsibilityRequest) (weighting.Entry, error) {
	entry, err := weighting.ParseEntry(weighting.RawEntry{
		ResponsibilityID: req.ResponsibilityID,
		Weight:           req.Weighting,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	})
	if err != nil {
		return weighting.Entry{}, fmt.Errorf("%w: %w", ErrInvalidAssignment, err)
	}
	return entry, nil
}

func toAssignmentResponse(a *model.JobResponsibility) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:               a.AssignmentID,
		JobID:            a.JobID,
		ResponsibilityID: a.ResponsibilityID,
		Weighting:        a.Weighting,
		StartDate:        a.StartDate.Format(weighting.DateLayout),
		EndDate:          weighting.FormatOptionalDate(a.EndDate),
		CreatedAt:        a.CreatedAt.Format(timeLayout),
	}
	if a.Responsibility != nil {
		resp.ResponsibilityName = a.Responsibility.Name
	}
	return resp
}

func ptrAssignmentResponse(a *model.JobResponsibility) *dto.AssignmentResponse {
	resp := toAssignmentResponse(a)
	return &resp
}
