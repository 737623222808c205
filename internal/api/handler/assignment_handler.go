package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/service"
	"compliance-hub/backend/internal/weighting"
	"compliance-hub/backend/pkg/response"
)

// AssignmentHandler 岗位职责分配 HTTP 处理器
type AssignmentHandler struct {
	svc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(svc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

// ListByJob 岗位职责列表
// GET /api/v1/jobs/:id/responsibilities?active_on=YYYY-MM-DD
func (h *AssignmentHandler) ListByJob(c *gin.Context) {
	jobID, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.svc.ListByJob(c.Request.Context(), jobID, &req)
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Check 准入预检
// POST /api/v1/jobs/:id/responsibilities/check
func (h *AssignmentHandler) Check(c *gin.Context) {
	jobID, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	var req dto.AssignResponsibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Check(c.Request.Context(), jobID, &req)
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// Create 为岗位分配职责
// POST /api/v1/jobs/:id/responsibilities
func (h *AssignmentHandler) Create(c *gin.Context) {
	jobID, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	var req dto.AssignResponsibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), jobID, &req, callerID)
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.Created(c, result)
}

// Delete 删除分配记录
// DELETE /api/v1/job-responsibilities/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "分配记录ID")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// WeightOn 岗位某日权重合计
// GET /api/v1/jobs/:id/weight?on=YYYY-MM-DD
func (h *AssignmentHandler) WeightOn(c *gin.Context) {
	jobID, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	result, err := h.svc.WeightOn(c.Request.Context(), jobID, c.Query("on"))
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// BulkAssign 将职责批量分配到多个岗位
// POST /api/v1/responsibilities/:id/bulk-assign
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	respID, ok := MustGetUUIDParam(c, "id", "职责ID")
	if !ok {
		return
	}

	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.BulkAssign(c.Request.Context(), respID, &req, callerID)
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportAssignments 从 Excel 导入岗位职责
// POST /api/v1/import/job-responsibilities (multipart, 字段 file)
func (h *AssignmentHandler) ImportAssignments(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 22005, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	rows, err := h.svc.ParseImportFile(file)
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	result, err := h.svc.ImportAssignments(c.Request.Context(), rows, callerID)
	if err != nil {
		handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAssignmentError 统一处理分配模块业务错误
func handleAssignmentError(c *gin.Context, err error) {
	var budgetErr *service.BudgetExceededError
	if errors.As(err, &budgetErr) {
		response.ErrorWithData(c, 422, 22002, "权重合计超过 100%", gin.H{
			"aggregated":  budgetErr.Decision.Aggregated,
			"max_allowed": budgetErr.Decision.MaxAllowed,
			"reason":      budgetErr.Decision.Reason,
		})
		return
	}

	var verr *weighting.ValidationError
	if errors.As(err, &verr) {
		response.ErrorWithData(c, 400, 10001, "参数校验失败", verr)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidAssignment):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 22004, "日期格式必须为 YYYY-MM-DD")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 22001, "分配记录不存在")
	case errors.Is(err, service.ErrAssignmentConflict):
		response.ErrorWithDetails(c, 409, 22003, "分配冲突，请刷新后重试", conflictDetails(err))
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows),
		errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 22005, err.Error())
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrJobInactive):
		handleJobError(c, err)
	case errors.Is(err, service.ErrResponsibilityNotFound), errors.Is(err, service.ErrResponsibilityInactive):
		handleResponsibilityError(c, err)
	default:
		response.InternalError(c)
	}
}

// conflictDetails 取出冲突错误在哨兵之外附带的原因，裸哨兵返回空串
func conflictDetails(err error) string {
	prefix := service.ErrAssignmentConflict.Error() + ": "
	if msg := err.Error(); strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return ""
}
