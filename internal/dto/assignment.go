package dto

// ── 岗位职责分配模块 DTO ──

// AssignResponsibilityRequest 为岗位分配职责请求
// 日期格式 YYYY-MM-DD；end_date 为空表示长期有效。字段校验在 Service 层统一完成
type AssignResponsibilityRequest struct {
	ResponsibilityID string `json:"responsibility_id"`
	Weighting        int    `json:"weighting"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
}

// AssignmentListRequest 岗位职责列表查询参数
type AssignmentListRequest struct {
	ActiveOn string `form:"active_on"` // 仅返回该日期生效的记录
}

// AssignmentResponse 岗位职责分配响应
type AssignmentResponse struct {
	ID                 string `json:"id"`
	JobID              string `json:"job_id"`
	ResponsibilityID   string `json:"responsibility_id"`
	ResponsibilityName string `json:"responsibility_name,omitempty"`
	Weighting          int    `json:"weighting"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// AdmissionCheckResponse 准入预检结果
type AdmissionCheckResponse struct {
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
	Aggregated int    `json:"aggregated"`  // 区间内已占用权重
	MaxAllowed int    `json:"max_allowed"` // 区间内仍可分配的最大权重
}

// JobWeightResponse 岗位某日权重汇总
type JobWeightResponse struct {
	JobID     string `json:"job_id"`
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
}

// ── 批量分配 ──

// BulkAssignRequest 将一个职责批量分配到多个岗位
type BulkAssignRequest struct {
	JobIDs    []string `json:"job_ids"    binding:"required,min=1,max=1000,dive,uuid"`
	Weighting int      `json:"weighting"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Mode      string   `json:"mode"       binding:"omitempty,oneof=best_effort atomic"`
}

// 批量分配单项状态
const (
	BulkStatusCreated  = "created"
	BulkStatusRejected = "rejected" // 权重超限或岗位不可用
	BulkStatusSkipped  = "skipped"  // 请求中重复的岗位
	BulkStatusFailed   = "failed"   // 持久化失败或整体回滚
)

// BulkAssignItemResult 单个岗位的分配结果
type BulkAssignItemResult struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
	MaxAllowed   *int   `json:"max_allowed,omitempty"`
}

// BulkAssignResponse 批量分配结果
type BulkAssignResponse struct {
	Mode     string                 `json:"mode"`
	Total    int                    `json:"total"`
	Created  int                    `json:"created"`
	Rejected int                    `json:"rejected"`
	Skipped  int                    `json:"skipped"`
	Failed   int                    `json:"failed"`
	Items    []BulkAssignItemResult `json:"items"`
}

// ── Excel 导入 ──

// ImportAssignmentResponse 批量导入岗位职责结果
type ImportAssignmentResponse struct {
	Total   int              `json:"total"`
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError 导入错误详情
type ImportRowError struct {
	Row        int    `json:"row"`
	Reason     string `json:"reason"`
	MaxAllowed *int   `json:"max_allowed,omitempty"`
}
