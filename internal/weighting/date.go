package weighting

import (
	"fmt"
	"time"
)

// DateLayout ISO 日历日期格式
const DateLayout = "2006-01-02"

// OpenEnd 无结束日期时用于比较的哨兵日期
var OpenEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// ParseDate 解析 "2026-01-31" 形式的日期（UTC 零点）
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效日期 %q: %w", s, err)
	}
	return t, nil
}

// ParseOptionalDate 空字符串视为无结束日期
func ParseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Day 丢弃时间部分，统一为 UTC 日历日
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EffectiveEnd nil 结束日期替换为 OpenEnd
func EffectiveEnd(end *time.Time) time.Time {
	if end == nil {
		return OpenEnd
	}
	return Day(*end)
}

// FormatOptionalDate nil 输出空字符串
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
