package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/model"
	"compliance-hub/backend/internal/repository"
	"compliance-hub/backend/internal/weighting"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoAssignments = errors.New("该岗位暂无职责分配")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

const calendarProductID = "-//compliance-hub//job-responsibilities//ZH"

// ExportService 导出业务接口
//
// 导出内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写出
type ExportService interface {
	// ExportJobAssignments 导出岗位职责分配为 Excel，末尾附当日权重合计
	ExportJobAssignments(ctx context.Context, jobID string) (*bytes.Buffer, string, error)
	// ExportJobCalendar 导出岗位职责分配为 iCalendar，每条分配一个全天事件
	ExportJobCalendar(ctx context.Context, jobID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.WeightingConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.WeightingConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportJobAssignments 导出 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：岗位编码 + 名称
//   - 第 2 行：表头 | 职责 | 类别 | 权重(%) | 开始日期 | 结束日期 | 今日生效 |
//   - 数据行按开始日期排序
//   - 末行：今日权重合计

func (s *exportService) ExportJobAssignments(ctx context.Context, jobID string) (*bytes.Buffer, string, error) {
	job, list, err := s.load(ctx, jobID)
	if err != nil {
		return nil, "", err
	}

	today := weighting.Day(s.now())

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "岗位职责"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "E", 14)
	f.SetColWidth(sheetName, "F", "F", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s 职责权重", job.Code, job.Title))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"职责", "类别", "权重(%)", "开始日期", "结束日期", "今日生效"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "F2", headerStyle)

	// 数据行
	row := 3
	for i := range list {
		a := &list[i]
		name, category := a.ResponsibilityID, ""
		if a.Responsibility != nil {
			name, category = a.Responsibility.Name, a.Responsibility.Category
		}
		active := "否"
		if weighting.Overlaps(today, &today, a.StartDate, a.EndDate) {
			active = "是"
		}
		endText := weighting.FormatOptionalDate(a.EndDate)
		if endText == "" {
			endText = "长期"
		}

		f.SetCellValue(sheetName, cell("A", row), name)
		f.SetCellValue(sheetName, cell("B", row), category)
		f.SetCellValue(sheetName, cell("C", row), a.Weighting)
		f.SetCellValue(sheetName, cell("D", row), a.StartDate.Format(weighting.DateLayout))
		f.SetCellValue(sheetName, cell("E", row), endText)
		f.SetCellValue(sheetName, cell("F", row), active)
		row++
	}

	// 合计行
	total := weighting.AggregateOverlappingWeight(today, &today, model.Entries(list))
	f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("%s 合计", today.Format(weighting.DateLayout)))
	f.SetCellValue(sheetName, cell("C", row), total)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("岗位职责_%s.xlsx", job.Code)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportJobCalendar 导出 iCalendar
// ═══════════════════════════════════════════════════════════
//
// DTEND 按 RFC 5545 全天事件语义取结束日期的次日；
// 长期有效的分配以 calendar_horizon_days 截断展示

func (s *exportService) ExportJobCalendar(ctx context.Context, jobID string) (*bytes.Buffer, string, error) {
	job, list, err := s.load(ctx, jobID)
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	horizon := weighting.Day(now).AddDate(0, 0, s.horizonDays())

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s %s", job.Code, job.Title))

	for i := range list {
		a := &list[i]
		start := weighting.Day(a.StartDate)

		var end time.Time
		if a.EndDate != nil {
			end = weighting.Day(*a.EndDate)
		} else {
			end = horizon
			if end.Before(start) {
				end = start.AddDate(0, 0, s.horizonDays())
			}
		}

		name := a.ResponsibilityID
		if a.Responsibility != nil {
			name = a.Responsibility.Name
		}

		event := cal.AddEvent(a.AssignmentID + "@compliance-hub")
		event.SetDtStampTime(now)
		event.SetCreatedTime(a.CreatedAt)
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(end.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s (%d%%)", name, a.Weighting))
		if a.EndDate == nil {
			event.SetDescription(fmt.Sprintf("岗位 %s，长期有效", job.Code))
		} else {
			event.SetDescription(fmt.Sprintf("岗位 %s", job.Code))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("岗位职责_%s.ics", job.Code)
	return buf, filename, nil
}

// ── 辅助函数 ──

func (s *exportService) load(ctx context.Context, jobID string) (*model.Job, []model.JobResponsibility, error) {
	job, err := s.repo.Job.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", jobID), zap.Error(err))
		return nil, nil, err
	}

	list, err := s.repo.JobResponsibility.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Error("查询岗位职责失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, nil, err
	}
	if len(list) == 0 {
		return nil, nil, ErrExportNoAssignments
	}
	return job, list, nil
}

func (s *exportService) horizonDays() int {
	if s.cfg == nil || s.cfg.CalendarHorizonDays <= 0 {
		return 365
	}
	return s.cfg.CalendarHorizonDays
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
