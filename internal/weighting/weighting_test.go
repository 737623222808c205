package weighting

import (
	"errors"
	"testing"
	"time"
)

// ── 测试辅助 ──

func d(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dp(s string) *time.Time {
	t := d(s)
	return &t
}

// ── Overlaps 测试 ──

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		startA time.Time
		endA   *time.Time
		startB time.Time
		endB   *time.Time
		want   bool
	}{
		{"相邻不接触", d("2026-01-01"), dp("2026-01-31"), d("2026-02-01"), dp("2026-02-28"), false},
		{"共享边界日", d("2026-01-01"), dp("2026-01-31"), d("2026-01-31"), dp("2026-02-28"), true},
		{"包含", d("2026-01-01"), dp("2026-12-31"), d("2026-03-01"), dp("2026-03-02"), true},
		{"两个无结束区间", d("2026-01-01"), nil, d("2026-01-01"), nil, true},
		{"无结束区间覆盖之后的区间", d("2026-01-01"), nil, d("2030-06-01"), dp("2030-06-30"), true},
		{"无结束区间不覆盖之前的区间", d("2026-01-01"), nil, d("2025-01-01"), dp("2025-12-31"), false},
		{"零长度区间与自身", d("2026-05-05"), dp("2026-05-05"), d("2026-05-05"), dp("2026-05-05"), true},
		{"零长度区间在外", d("2026-05-05"), dp("2026-05-05"), d("2026-05-06"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.startA, tt.endA, tt.startB, tt.endB); got != tt.want {
				t.Errorf("Overlaps(A,B) 期望=%v，实际=%v", tt.want, got)
			}
			// 对称性
			if got := Overlaps(tt.startB, tt.endB, tt.startA, tt.endA); got != tt.want {
				t.Errorf("Overlaps(B,A) 期望=%v，实际=%v", tt.want, got)
			}
		})
	}
}

func TestOverlaps_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	early := time.Date(2026, 1, 31, 0, 1, 0, 0, time.UTC)
	if !Overlaps(d("2026-01-01"), &early, late, nil) {
		t.Error("同一日历日应视为重叠")
	}
}

// ── AggregateOverlappingWeight 测试 ──

func TestAggregate_Empty(t *testing.T) {
	if got := AggregateOverlappingWeight(d("2026-01-01"), nil, nil); got != 0 {
		t.Errorf("期望0，实际=%d", got)
	}
}

func TestAggregate_MaxNotSumWithinResponsibility(t *testing.T) {
	existing := []Entry{
		{ResponsibilityID: "R1", Weight: 20, StartDate: d("2026-01-01"), EndDate: dp("2026-03-31")},
		{ResponsibilityID: "R1", Weight: 35, StartDate: d("2026-02-01"), EndDate: nil},
	}
	got := AggregateOverlappingWeight(d("2026-02-15"), dp("2026-02-20"), existing)
	if got != 35 {
		t.Errorf("同一职责应取最大值35，实际=%d", got)
	}
}

func TestAggregate_IgnoresNonOverlapping(t *testing.T) {
	existing := []Entry{
		{ResponsibilityID: "R1", Weight: 60, StartDate: d("2025-01-01"), EndDate: dp("2025-12-31")},
		{ResponsibilityID: "R2", Weight: 10, StartDate: d("2026-01-01"), EndDate: nil},
	}
	got := AggregateOverlappingWeight(d("2026-01-01"), dp("2026-01-31"), existing)
	if got != 10 {
		t.Errorf("期望10，实际=%d", got)
	}
}

func TestAggregate_OnlyOverlappingEntriesOfGroupCount(t *testing.T) {
	existing := []Entry{
		{ResponsibilityID: "R1", Weight: 80, StartDate: d("2025-01-01"), EndDate: dp("2025-06-30")},
		{ResponsibilityID: "R1", Weight: 30, StartDate: d("2026-01-01"), EndDate: nil},
	}
	got := AggregateOverlappingWeight(d("2026-02-01"), nil, existing)
	if got != 30 {
		t.Errorf("历史的80不应计入，期望30，实际=%d", got)
	}
}

// ── CanAdmit 测试 ──

func TestCanAdmit_Boundary(t *testing.T) {
	ok := CanAdmit(40, 60)
	if !ok.Accepted {
		t.Fatalf("60+40=100 应准入: %s", ok.Reason)
	}

	rej := CanAdmit(41, 60)
	if rej.Accepted {
		t.Fatal("60+41 应被拒绝")
	}
	if rej.MaxAllowed != 40 {
		t.Errorf("期望 MaxAllowed=40，实际=%d", rej.MaxAllowed)
	}
	if rej.Reason == "" {
		t.Error("拒绝时应给出原因")
	}
}

func TestCanAdmit_WeightOutOfRange(t *testing.T) {
	for _, w := range []int{0, -5, 101} {
		if CanAdmit(w, 0).Accepted {
			t.Errorf("权重 %d 不应准入", w)
		}
	}
}

func TestCanAdmit_EmptyJobAcceptsAnyValidWeight(t *testing.T) {
	for _, w := range []int{1, 50, 100} {
		if !CanAdmit(w, AggregateOverlappingWeight(d("2026-01-01"), nil, nil)).Accepted {
			t.Errorf("空岗位应接受权重 %d", w)
		}
	}
}

func TestCanAdmit_OverCommittedFloorsMaxAllowed(t *testing.T) {
	got := CanAdmit(1, 120)
	if got.Accepted || got.MaxAllowed != 0 {
		t.Errorf("期望拒绝且 MaxAllowed=0，实际 accepted=%v max=%d", got.Accepted, got.MaxAllowed)
	}
}

// ── Evaluate 端到端 ──

func TestEvaluate_EndToEndReject(t *testing.T) {
	existing := []Entry{
		{ResponsibilityID: "R1", Weight: 50, StartDate: d("2026-01-01"), EndDate: dp("2026-06-30")},
		{ResponsibilityID: "R2", Weight: 30, StartDate: d("2026-03-01"), EndDate: nil},
	}
	candidate := Entry{ResponsibilityID: "R3", Weight: 25, StartDate: d("2026-04-01"), EndDate: dp("2026-04-30")}

	got := Evaluate(candidate, existing)
	if got.Accepted {
		t.Fatal("80+25=105 应被拒绝")
	}
	if got.Aggregated != 80 {
		t.Errorf("期望 Aggregated=80，实际=%d", got.Aggregated)
	}
	if got.MaxAllowed != 20 {
		t.Errorf("期望 MaxAllowed=20，实际=%d", got.MaxAllowed)
	}
}

func TestEvaluate_InvalidCandidate(t *testing.T) {
	got := Evaluate(Entry{ResponsibilityID: "R1", Weight: 10, StartDate: d("2026-02-01"), EndDate: dp("2026-01-01")}, nil)
	if got.Accepted {
		t.Error("结束日期早于开始日期应被拒绝")
	}
}

// ── ParseEntry 测试 ──

func TestParseEntry_Valid(t *testing.T) {
	e, err := ParseEntry(RawEntry{ResponsibilityID: " R1 ", Weight: 30, StartDate: "2026-01-01"})
	if err != nil {
		t.Fatalf("应解析成功: %v", err)
	}
	if e.ResponsibilityID != "R1" || e.EndDate != nil {
		t.Errorf("解析结果不符: %+v", e)
	}
}

func TestParseEntry_CollectsAllFieldErrors(t *testing.T) {
	_, err := ParseEntry(RawEntry{Weight: 0, StartDate: "01/02/2026", EndDate: "bad"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 *ValidationError，实际: %v", err)
	}
	if len(verr.Fields) != 4 {
		t.Errorf("期望4个字段错误，实际=%d (%v)", len(verr.Fields), verr)
	}
}

func TestParseEntry_EndBeforeStart(t *testing.T) {
	_, err := ParseEntry(RawEntry{ResponsibilityID: "R1", Weight: 10, StartDate: "2026-02-01", EndDate: "2026-01-31"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "end_date" {
		t.Errorf("期望 end_date 校验错误，实际: %v", err)
	}
}

func TestActiveOn(t *testing.T) {
	entries := []Entry{
		{ResponsibilityID: "R1", Weight: 10, StartDate: d("2026-01-01"), EndDate: dp("2026-01-31")},
		{ResponsibilityID: "R2", Weight: 20, StartDate: d("2026-01-31"), EndDate: nil},
		{ResponsibilityID: "R3", Weight: 30, StartDate: d("2026-02-01"), EndDate: nil},
	}
	got := ActiveOn(d("2026-01-31"), entries)
	if len(got) != 2 {
		t.Errorf("期望2条生效记录，实际=%d", len(got))
	}
}
