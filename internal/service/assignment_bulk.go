package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/repository"
	"compliance-hub/backend/internal/weighting"
)

const (
	reasonDuplicateJob = "请求中重复的岗位"
	reasonRolledBack   = "批量操作已整体回滚"
	reasonCommitFailed = "批次提交失败"
)

// bulkItem 去重后的待处理岗位，index 为其在请求中的位置
type bulkItem struct {
	index int
	jobID string
}

// ────────────────────── BulkAssign ──────────────────────

// BulkAssign 将同一职责按相同权重与日期分配给多个岗位。
//
// 岗位按 bulk_batch_size 分批处理，批内按岗位 ID 排序加锁以避免死锁；
// 每个岗位在独立的保存点内执行准入检查与写入，单项失败不影响同批其他岗位。
//   - best_effort: 每批一个事务，失败批次不影响后续批次
//   - atomic: 全部岗位一个事务，任一项被拒绝或失败则整体回滚
func (s *assignmentService) BulkAssign(ctx context.Context, responsibilityID string, req *dto.BulkAssignRequest, callerID string) (*dto.BulkAssignResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = s.cfg.BulkMode
	}

	entry, err := parseAssignRequest(&dto.AssignResponsibilityRequest{
		ResponsibilityID: responsibilityID,
		Weighting:        req.Weighting,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	})
	if err != nil {
		return nil, err
	}
	if err := s.ensureResponsibilityAssignable(ctx, responsibilityID); err != nil {
		return nil, err
	}

	results := make([]dto.BulkAssignItemResult, len(req.JobIDs))
	pending := make([]bulkItem, 0, len(req.JobIDs))
	seen := make(map[string]bool, len(req.JobIDs))
	for i, raw := range req.JobIDs {
		jobID := strings.TrimSpace(raw)
		results[i] = dto.BulkAssignItemResult{JobID: jobID}
		if seen[jobID] {
			results[i].Status = dto.BulkStatusSkipped
			results[i].Reason = reasonDuplicateJob
			continue
		}
		seen[jobID] = true
		pending = append(pending, bulkItem{index: i, jobID: jobID})
	}

	batches := splitBatches(pending, s.batchSize())

	if mode == config.BulkModeAtomic {
		s.runAtomic(ctx, batches, entry, callerID, results)
	} else {
		for _, batch := range batches {
			s.runBatch(ctx, batch, entry, callerID, results)
		}
	}

	resp := summarizeBulk(mode, results)
	s.logger.Info("批量分配职责完成",
		zap.String("responsibility_id", responsibilityID),
		zap.String("mode", mode),
		zap.Int("total", resp.Total),
		zap.Int("created", resp.Created),
		zap.Int("rejected", resp.Rejected),
		zap.Int("skipped", resp.Skipped),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// runBatch best_effort 模式：一批一个事务
func (s *assignmentService) runBatch(ctx context.Context, batch []bulkItem, entry weighting.Entry, callerID string, results []dto.BulkAssignItemResult) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启批次事务失败", zap.Error(err))
		for _, item := range batch {
			markFailed(&results[item.index], "开启事务失败")
		}
		return
	}

	repo := s.repo.WithTx(tx)
	for n, item := range batch {
		results[item.index] = s.assignOne(ctx, tx, repo, n, item.jobID, entry, callerID)
	}

	if tx == nil {
		return
	}
	if err := tx.Commit().Error; err != nil {
		s.logger.Error("提交批次事务失败", zap.Error(err))
		for _, item := range batch {
			if results[item.index].Status == dto.BulkStatusCreated {
				markFailed(&results[item.index], reasonCommitFailed)
			}
		}
	}
}

// runAtomic atomic 模式：全部批次共用一个事务
func (s *assignmentService) runAtomic(ctx context.Context, batches [][]bulkItem, entry weighting.Entry, callerID string, results []dto.BulkAssignItemResult) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启批量事务失败", zap.Error(err))
		for _, batch := range batches {
			for _, item := range batch {
				markFailed(&results[item.index], "开启事务失败")
			}
		}
		return
	}

	repo := s.repo.WithTx(tx)
	ok := true
	n := 0
	for _, batch := range batches {
		for _, item := range batch {
			r := s.assignOne(ctx, tx, repo, n, item.jobID, entry, callerID)
			results[item.index] = r
			if r.Status == dto.BulkStatusRejected || r.Status == dto.BulkStatusFailed {
				ok = false
			}
			n++
		}
	}

	reason := reasonRolledBack
	if ok && tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交批量事务失败", zap.Error(err))
			ok = false
			reason = reasonCommitFailed
		}
	}
	if ok {
		return
	}

	if tx != nil {
		tx.Rollback()
	}
	for i := range results {
		if results[i].Status == dto.BulkStatusCreated {
			markFailed(&results[i], reason)
		}
	}
}

// assignOne 在保存点内完成单个岗位的准入与写入。
// PostgreSQL 事务内出错后需回滚到保存点才能继续执行后续语句
func (s *assignmentService) assignOne(
	ctx context.Context,
	tx *gorm.DB,
	repo *repository.Repository,
	seq int,
	jobID string,
	entry weighting.Entry,
	callerID string,
) dto.BulkAssignItemResult {
	result := dto.BulkAssignItemResult{JobID: jobID}
	if jobID == "" {
		result.Status = dto.BulkStatusRejected
		result.Reason = ErrJobNotFound.Error()
		return result
	}

	savepoint := fmt.Sprintf("bulk_item_%d", seq)
	if tx != nil {
		if err := tx.SavePoint(savepoint).Error; err != nil {
			s.logger.Error("创建保存点失败", zap.String("job_id", jobID), zap.Error(err))
			markFailed(&result, "创建保存点失败")
			return result
		}
	}

	a, err := s.admitAndInsert(ctx, repo, jobID, entry, callerID)
	if err == nil {
		result.Status = dto.BulkStatusCreated
		result.AssignmentID = a.AssignmentID
		return result
	}

	if tx != nil {
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			s.logger.Error("回滚保存点失败", zap.String("job_id", jobID), zap.Error(rbErr))
		}
	}

	var budgetErr *BudgetExceededError
	switch {
	case errors.As(err, &budgetErr):
		maxAllowed := budgetErr.Decision.MaxAllowed
		result.Status = dto.BulkStatusRejected
		result.Reason = budgetErr.Error()
		result.MaxAllowed = &maxAllowed
	case errors.Is(err, ErrJobNotFound), errors.Is(err, ErrJobInactive):
		result.Status = dto.BulkStatusRejected
		result.Reason = err.Error()
	case errors.Is(err, ErrAssignmentConflict), errors.Is(err, ErrInvalidAssignment),
		errors.Is(err, ErrResponsibilityNotFound):
		markFailed(&result, err.Error())
	default:
		markFailed(&result, "写入失败")
	}
	return result
}

func (s *assignmentService) batchSize() int {
	if s.cfg == nil || s.cfg.BulkBatchSize <= 0 {
		return 50
	}
	return s.cfg.BulkBatchSize
}

// splitBatches 按请求顺序切分批次，批内按岗位 ID 排序
func splitBatches(items []bulkItem, size int) [][]bulkItem {
	var batches [][]bulkItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := make([]bulkItem, end-start)
		copy(batch, items[start:end])
		sort.Slice(batch, func(i, j int) bool { return batch[i].jobID < batch[j].jobID })
		batches = append(batches, batch)
	}
	return batches
}

func markFailed(r *dto.BulkAssignItemResult, reason string) {
	r.Status = dto.BulkStatusFailed
	r.AssignmentID = ""
	r.Reason = reason
	r.MaxAllowed = nil
}

func summarizeBulk(mode string, results []dto.BulkAssignItemResult) *dto.BulkAssignResponse {
	resp := &dto.BulkAssignResponse{Mode: mode, Total: len(results), Items: results}
	for _, r := range results {
		switch r.Status {
		case dto.BulkStatusCreated:
			resp.Created++
		case dto.BulkStatusRejected:
			resp.Rejected++
		case dto.BulkStatusSkipped:
			resp.Skipped++
		case dto.BulkStatusFailed:
			resp.Failed++
		}
	}
	return resp
}
