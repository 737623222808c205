package weighting

import "time"

// Overlaps 判断两个日期区间是否有交集。
//
// 两端均为闭区间：共享边界日也视为重叠；end 为 nil 表示无结束日期。
func Overlaps(startA time.Time, endA *time.Time, startB time.Time, endB *time.Time) bool {
	a := Day(startA)
	b := Day(startB)
	return !a.After(EffectiveEnd(endB)) && !b.After(EffectiveEnd(endA))
}

// AggregateOverlappingWeight 计算与新区间重叠的已占用权重。
//
// 按职责分组，每组取重叠条目中的最大权重（同一职责的历史条目不重复计数），
// 再对所有职责求和。无重叠时返回 0。
func AggregateOverlappingWeight(newStart time.Time, newEnd *time.Time, existing []Entry) int {
	maxByResponsibility := make(map[string]int)
	for _, e := range existing {
		if !Overlaps(newStart, newEnd, e.StartDate, e.EndDate) {
			continue
		}
		if cur, ok := maxByResponsibility[e.ResponsibilityID]; !ok || e.Weight > cur {
			maxByResponsibility[e.ResponsibilityID] = e.Weight
		}
	}

	total := 0
	for _, w := range maxByResponsibility {
		total += w
	}
	return total
}

// ActiveOn 过滤出在指定日期生效的条目
func ActiveOn(day time.Time, entries []Entry) []Entry {
	var result []Entry
	for _, e := range entries {
		if Overlaps(day, &day, e.StartDate, e.EndDate) {
			result = append(result, e)
		}
	}
	return result
}
