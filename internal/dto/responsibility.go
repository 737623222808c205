package dto

// ── 职责模块 DTO ──

// CreateResponsibilityRequest 创建职责请求
type CreateResponsibilityRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=200"`
	Category    string `json:"category"    binding:"omitempty,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// UpdateResponsibilityRequest 更新职责请求
type UpdateResponsibilityRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=200"`
	Category    *string `json:"category"    binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// ResponsibilityListRequest 职责列表查询参数
type ResponsibilityListRequest struct {
	Category        string `form:"category"`
	IncludeInactive bool   `form:"include_inactive"`
}

// ResponsibilityResponse 职责信息响应
type ResponsibilityResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
