package dto

// ── 岗位模块 DTO ──

// CreateJobRequest 创建岗位请求
type CreateJobRequest struct {
	Code        string `json:"code"        binding:"required,min=1,max=50"`
	Title       string `json:"title"       binding:"required,min=2,max=200"`
	Department  string `json:"department"  binding:"omitempty,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// UpdateJobRequest 更新岗位请求
type UpdateJobRequest struct {
	Code        *string `json:"code"        binding:"omitempty,min=1,max=50"`
	Title       *string `json:"title"       binding:"omitempty,min=2,max=200"`
	Department  *string `json:"department"  binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// JobListRequest 岗位列表查询参数
type JobListRequest struct {
	PaginationRequest
	Keyword         string `form:"keyword"`
	Department      string `form:"department"`
	IncludeInactive bool   `form:"include_inactive"`
}

// JobResponse 岗位信息响应
type JobResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Department  string `json:"department,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
