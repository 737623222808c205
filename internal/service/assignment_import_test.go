package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func buildImportFile(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("写入测试行失败: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试文件失败: %v", err)
	}
	return buf
}

func TestAssignmentService_ParseImportFile(t *testing.T) {
	svc, _ := setupTestAssignmentService()

	buf := buildImportFile(t, [][]any{
		{"权重", "岗位编码", "职责", "开始日期", "结束日期"},
		{"30", "J001", "风险评估", "2026-01-01", ""},
		{"", "", "", "", ""},
		{"20", "J001", "合规审计", "2026-02-01", "2026-12-31"},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("空行应被跳过，期望2行，实际=%d", len(rows))
	}
	if rows[0].Weighting != "30" || rows[0].JobCode != "J001" || rows[0].Row != 2 {
		t.Errorf("列序应按表头解析，实际 %+v", rows[0])
	}
	if rows[1].Row != 4 || rows[1].EndDate != "2026-12-31" {
		t.Errorf("行号应对应 Excel 行，实际 %+v", rows[1])
	}
}

func TestAssignmentService_ParseImportFile_DateCells(t *testing.T) {
	svc, _ := setupTestAssignmentService()

	buf := buildImportFile(t, [][]any{
		{"权重", "岗位编码", "职责", "开始日期", "结束日期"},
		{"30", "J001", "风险评估", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("期望1行，实际=%d", len(rows))
	}
	if rows[0].StartDate != "2026-01-01" || rows[0].EndDate != "2026-12-31" {
		t.Fatalf("日期单元格应转换为 YYYY-MM-DD，实际 %+v", rows[0])
	}

	resp, err := svc.ImportAssignments(context.Background(), rows, "admin-1")
	if err != nil {
		t.Fatalf("导入应成功返回结果: %v", err)
	}
	if resp.Success != 1 || resp.Failed != 0 {
		t.Errorf("日期单元格行应导入成功: %+v", resp)
	}
}

func TestAssignmentService_ParseImportFile_BadHeader(t *testing.T) {
	svc, _ := setupTestAssignmentService()

	buf := buildImportFile(t, [][]any{
		{"岗位编码", "职责"},
		{"J001", "风险评估"},
	})
	if _, err := svc.ParseImportFile(buf); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际: %v", err)
	}
}

func TestAssignmentService_ImportAssignments(t *testing.T) {
	svc, repos := setupTestAssignmentService()

	rows := []ImportAssignmentRow{
		{Row: 2, JobCode: "J001", Responsibility: "风险评估", Weighting: "60", StartDate: "2026-01-01"},
		{Row: 3, JobCode: "J001", Responsibility: "合规审计", Weighting: "50", StartDate: "2026-02-01"},
		{Row: 4, JobCode: "J404", Responsibility: "培训", Weighting: "10", StartDate: "2026-01-01"},
		{Row: 5, JobCode: "J001", Responsibility: "不存在的职责", Weighting: "10", StartDate: "2026-01-01"},
		{Row: 6, JobCode: "J001", Responsibility: "培训", Weighting: "abc", StartDate: "2026-01-01"},
		{Row: 7, JobCode: "J001", Responsibility: "培训", Weighting: "40", StartDate: "2026-01-01", EndDate: "2026-12-31"},
	}

	resp, err := svc.ImportAssignments(context.Background(), rows, "admin-1")
	if err != nil {
		t.Fatalf("导入应成功返回结果: %v", err)
	}
	if resp.Total != 6 || resp.Success != 2 || resp.Failed != 4 {
		t.Errorf("汇总不符: %+v", resp)
	}

	failedRows := map[int]bool{}
	for _, e := range resp.Errors {
		failedRows[e.Row] = true
		if e.Row == 3 && (e.MaxAllowed == nil || *e.MaxAllowed != 40) {
			t.Errorf("第3行应携带 max_allowed=40，实际=%v", e.MaxAllowed)
		}
	}
	for i := 1; i < len(resp.Errors); i++ {
		if resp.Errors[i-1].Row > resp.Errors[i].Row {
			t.Errorf("失败明细应按行号升序，实际 %d 在 %d 之前", resp.Errors[i-1].Row, resp.Errors[i].Row)
		}
	}
	for _, row := range []int{3, 4, 5, 6} {
		if !failedRows[row] {
			t.Errorf("第%d行应失败", row)
		}
	}
	if len(repos.assign.items) != 2 {
		t.Errorf("期望写入2条，实际=%d", len(repos.assign.items))
	}
}
