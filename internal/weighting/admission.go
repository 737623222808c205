package weighting

import "fmt"

// Decision 准入检查结果
type Decision struct {
	Accepted   bool
	Reason     string
	Aggregated int // 新区间内已占用的权重
	MaxAllowed int // 新区间内仍可分配的最大权重
}

// CanAdmit 已占用权重 + 新权重 <= 100 时准入。
// 权重越界同样以拒绝结果返回，不产生 error。
func CanAdmit(newWeight, aggregated int) Decision {
	maxAllowed := MaxTotalWeight - aggregated
	if maxAllowed < 0 {
		maxAllowed = 0
	}

	d := Decision{Aggregated: aggregated, MaxAllowed: maxAllowed}

	switch {
	case newWeight < MinWeight || newWeight > MaxTotalWeight:
		d.Reason = fmt.Sprintf("权重必须在 %d-%d 之间", MinWeight, MaxTotalWeight)
	case aggregated+newWeight > MaxTotalWeight:
		d.Reason = fmt.Sprintf("该时段已分配 %d%%，加上 %d%% 将超过 %d%%，最多还可分配 %d%%",
			aggregated, newWeight, MaxTotalWeight, maxAllowed)
	default:
		d.Accepted = true
	}
	return d
}

// Evaluate 对候选记录执行完整检查：字段校验 → 重叠聚合 → 准入判断
func Evaluate(candidate Entry, existing []Entry) Decision {
	if err := candidate.Validate(); err != nil {
		return Decision{Reason: err.Error()}
	}
	aggregated := AggregateOverlappingWeight(candidate.StartDate, candidate.EndDate, existing)
	return CanAdmit(candidate.Weight, aggregated)
}
