package weighting

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinWeight 单条职责最小权重
	MinWeight = 1
	// MaxTotalWeight 单个岗位任一日期的权重上限（百分比）
	MaxTotalWeight = 100
)

// Entry 岗位上的一条职责权重记录
type Entry struct {
	ResponsibilityID string
	Weight           int
	StartDate        time.Time
	EndDate          *time.Time // nil = 长期有效
}

// RawEntry 边界输入（请求体、导入行等），字段均为未校验的原始值
type RawEntry struct {
	ResponsibilityID string
	Weight           int
	StartDate        string
	EndDate          string
}

// FieldError 单个字段的校验问题
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError 记录校验失败，包含全部字段问题
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "职责权重记录校验失败: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// ParseEntry 将原始记录转换为 Entry，字段非法时返回 *ValidationError
func ParseEntry(raw RawEntry) (Entry, error) {
	verr := &ValidationError{}

	if strings.TrimSpace(raw.ResponsibilityID) == "" {
		verr.add("responsibility_id", "不能为空")
	}
	if raw.Weight < MinWeight || raw.Weight > MaxTotalWeight {
		verr.add("weighting", fmt.Sprintf("必须在 %d-%d 之间", MinWeight, MaxTotalWeight))
	}

	var start time.Time
	var err error
	if raw.StartDate == "" {
		verr.add("start_date", "不能为空")
	} else if start, err = ParseDate(raw.StartDate); err != nil {
		verr.add("start_date", "格式必须为 YYYY-MM-DD")
	}

	end, err := ParseOptionalDate(raw.EndDate)
	if err != nil {
		verr.add("end_date", "格式必须为 YYYY-MM-DD")
	}

	if len(verr.Fields) == 0 && end != nil && end.Before(start) {
		verr.add("end_date", "不能早于开始日期")
	}

	if len(verr.Fields) > 0 {
		return Entry{}, verr
	}

	return Entry{
		ResponsibilityID: strings.TrimSpace(raw.ResponsibilityID),
		Weight:           raw.Weight,
		StartDate:        start,
		EndDate:          end,
	}, nil
}

// Validate 校验已构造的 Entry（来自数据库或内部调用）
func (e Entry) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(e.ResponsibilityID) == "" {
		verr.add("responsibility_id", "不能为空")
	}
	if e.Weight < MinWeight || e.Weight > MaxTotalWeight {
		verr.add("weighting", fmt.Sprintf("必须在 %d-%d 之间", MinWeight, MaxTotalWeight))
	}
	if e.StartDate.IsZero() {
		verr.add("start_date", "不能为空")
	}
	if e.EndDate != nil && Day(*e.EndDate).Before(Day(e.StartDate)) {
		verr.add("end_date", "不能早于开始日期")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
