package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/service"
	pkgerrors "compliance-hub/backend/pkg/errors"
	"compliance-hub/backend/pkg/response"
)

// ResponsibilityHandler 职责模块 HTTP 处理器
type ResponsibilityHandler struct {
	respSvc service.ResponsibilityService
}

// NewResponsibilityHandler 创建 ResponsibilityHandler
func NewResponsibilityHandler(respSvc service.ResponsibilityService) *ResponsibilityHandler {
	return &ResponsibilityHandler{respSvc: respSvc}
}

// ListResponsibilities 职责列表
// GET /api/v1/responsibilities
func (h *ResponsibilityHandler) ListResponsibilities(c *gin.Context) {
	var req dto.ResponsibilityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.respSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetResponsibility 职责详情
// GET /api/v1/responsibilities/:id
func (h *ResponsibilityHandler) GetResponsibility(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "职责ID")
	if !ok {
		return
	}

	resp, err := h.respSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleResponsibilityError(c, err)
		return
	}

	response.OK(c, resp)
}

// CreateResponsibility 创建职责
// POST /api/v1/responsibilities
func (h *ResponsibilityHandler) CreateResponsibility(c *gin.Context) {
	var req dto.CreateResponsibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.respSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleResponsibilityError(c, err)
		return
	}

	response.Created(c, resp)
}

// UpdateResponsibility 更新职责
// PUT /api/v1/responsibilities/:id
func (h *ResponsibilityHandler) UpdateResponsibility(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "职责ID")
	if !ok {
		return
	}

	var req dto.UpdateResponsibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.respSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleResponsibilityError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteResponsibility 删除职责
// DELETE /api/v1/responsibilities/:id
func (h *ResponsibilityHandler) DeleteResponsibility(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "职责ID")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.respSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleResponsibilityError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleResponsibilityError 统一处理职责模块业务错误
func handleResponsibilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResponsibilityNotFound):
		response.NotFound(c, 21001, "职责不存在")
	case errors.Is(err, service.ErrResponsibilityInUse):
		response.Conflict(c, 21002, "职责仍被岗位使用，无法删除")
	case errors.Is(err, service.ErrResponsibilityInactive):
		response.BadRequest(c, 21003, "职责已停用")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10005, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
