package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/weighting"
)

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（岗位编码/职责/权重/开始日期）")
)

// ImportAssignmentRow Excel 导入解析后的单行数据，字段均为原始文本
type ImportAssignmentRow struct {
	Row            int
	JobCode        string
	Responsibility string // 职责名称或 ID
	Weighting      string
	StartDate      string
	EndDate        string
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile 解析导入 Excel 文件（第一个工作表，首行为表头，列序不限）
func (s *assignmentService) ParseImportFile(reader io.Reader) ([]ImportAssignmentRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	// 读取原始值：日期单元格返回序列号而非按显示格式渲染的文本
	excelRows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseImportHeader(excelRows[0])
	for _, key := range []string{"job_code", "responsibility", "weighting", "start_date"} {
		if colIndex[key] < 0 {
			return nil, ErrImportBadHeader
		}
	}

	get := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	var rows []ImportAssignmentRow
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		item := ImportAssignmentRow{
			Row:            i + 1,
			JobCode:        get(r, "job_code"),
			Responsibility: get(r, "responsibility"),
			Weighting:      get(r, "weighting"),
			StartDate:      normalizeImportDate(get(r, "start_date"), date1904),
			EndDate:        normalizeImportDate(get(r, "end_date"), date1904),
		}
		if item.JobCode == "" && item.Responsibility == "" && item.Weighting == "" && item.StartDate == "" && item.EndDate == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// normalizeImportDate 将 Excel 日期序列号转换为 YYYY-MM-DD；
// 文本日期原样返回，格式问题留给 ParseEntry 报告
func normalizeImportDate(v string, date1904 bool) string {
	if v == "" {
		return v
	}
	if _, err := weighting.ParseDate(v); err == nil {
		return v
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t.Format(weighting.DateLayout)
}

func parseImportHeader(header []string) map[string]int {
	idx := map[string]int{
		"job_code":       -1,
		"responsibility": -1,
		"weighting":      -1,
		"start_date":     -1,
		"end_date":       -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "岗位编码", "job_code":
			idx["job_code"] = i
		case "职责", "responsibility":
			idx["responsibility"] = i
		case "权重", "权重(%)", "weighting":
			idx["weighting"] = i
		case "开始日期", "start_date":
			idx["start_date"] = i
		case "结束日期", "end_date":
			idx["end_date"] = i
		}
	}
	return idx
}

// ────────────────────── ImportAssignments ──────────────────────

// ImportAssignments 导入岗位职责分配。
//
// 第一阶段逐行校验字段并解析岗位与职责，不写库；
// 第二阶段在一个事务中逐行执行准入检查与写入，行与行之间以保存点隔离，
// 被拒绝的行不影响其他行。后写入的行会计入先写入行的权重
func (s *assignmentService) ImportAssignments(ctx context.Context, rows []ImportAssignmentRow, callerID string) (*dto.ImportAssignmentResponse, error) {
	resp := &dto.ImportAssignmentResponse{Total: len(rows)}

	type validatedRow struct {
		row   int
		jobID string
		entry weighting.Entry
	}
	var validRows []validatedRow

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportRowError{Row: row, Reason: reason})
	}

	// 第一阶段：校验
	for _, row := range rows {
		weight, err := strconv.Atoi(row.Weighting)
		if err != nil {
			fail(row.Row, fmt.Sprintf("权重不是整数: %q", row.Weighting))
			continue
		}

		respID, err := s.resolveResponsibility(ctx, row.Responsibility)
		if err != nil {
			if errors.Is(err, ErrResponsibilityNotFound) || errors.Is(err, ErrResponsibilityInactive) {
				fail(row.Row, fmt.Sprintf("%s: %s", err.Error(), row.Responsibility))
				continue
			}
			return nil, err
		}

		entry, err := weighting.ParseEntry(weighting.RawEntry{
			ResponsibilityID: respID,
			Weight:           weight,
			StartDate:        row.StartDate,
			EndDate:          row.EndDate,
		})
		if err != nil {
			fail(row.Row, err.Error())
			continue
		}

		job, err := s.repo.Job.GetByCode(ctx, row.JobCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fail(row.Row, fmt.Sprintf("岗位不存在: %s", row.JobCode))
				continue
			}
			s.logger.Error("查询岗位失败", zap.String("code", row.JobCode), zap.Error(err))
			return nil, err
		}

		validRows = append(validRows, validatedRow{row: row.Row, jobID: job.JobID, entry: entry})
	}

	if len(validRows) == 0 {
		sortImportErrors(resp)
		return resp, nil
	}

	// 第二阶段：事务内逐行写入
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

	txRepo := s.repo.WithTx(tx)
	for n, vr := range validRows {
		result := s.assignOne(ctx, tx, txRepo, n, vr.jobID, vr.entry, callerID)
		if result.Status == dto.BulkStatusCreated {
			resp.Success++
			continue
		}
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportRowError{
			Row:        vr.row,
			Reason:     result.Reason,
			MaxAllowed: result.MaxAllowed,
		})
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交导入事务失败", zap.Error(err))
			return nil, err
		}
		tx = nil
	}

	sortImportErrors(resp)
	s.logger.Info("导入岗位职责完成",
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// sortImportErrors 两阶段的失败行合并后按 Excel 行号排序
func sortImportErrors(resp *dto.ImportAssignmentResponse) {
	sort.SliceStable(resp.Errors, func(i, j int) bool { return resp.Errors[i].Row < resp.Errors[j].Row })
}

// resolveResponsibility 按 ID 或名称查找可分配的职责
func (s *assignmentService) resolveResponsibility(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrResponsibilityNotFound
	}
	if _, err := uuid.Parse(ref); err == nil {
		if err := s.ensureResponsibilityAssignable(ctx, ref); err != nil {
			return "", err
		}
		return ref, nil
	}

	r, err := s.repo.Responsibility.GetByName(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrResponsibilityNotFound
		}
		s.logger.Error("查询职责失败", zap.String("name", ref), zap.Error(err))
		return "", err
	}
	if !r.IsActive {
		return "", ErrResponsibilityInactive
	}
	return r.ResponsibilityID, nil
}
