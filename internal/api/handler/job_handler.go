package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/service"
	pkgerrors "compliance-hub/backend/pkg/errors"
	"compliance-hub/backend/pkg/response"
)

// JobHandler 岗位模块 HTTP 处理器
type JobHandler struct {
	jobSvc service.JobService
}

// NewJobHandler 创建 JobHandler
func NewJobHandler(jobSvc service.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

// ListJobs 岗位列表
// GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	jobs, total, err := h.jobSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, jobs, total, req.GetPage(), req.GetPageSize())
}

// GetJob 岗位详情
// GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	job, err := h.jobSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleJobError(c, err)
		return
	}

	response.OK(c, job)
}

// CreateJob 创建岗位
// POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	job, err := h.jobSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleJobError(c, err)
		return
	}

	response.Created(c, job)
}

// UpdateJob 更新岗位
// PUT /api/v1/jobs/:id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	var req dto.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	job, err := h.jobSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleJobError(c, err)
		return
	}

	response.OK(c, job)
}

// DeleteJob 删除岗位
// DELETE /api/v1/jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.jobSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleJobError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleJobError 统一处理岗位模块业务错误
func handleJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		response.NotFound(c, 20001, "岗位不存在")
	case errors.Is(err, service.ErrJobCodeTaken):
		response.Conflict(c, 20002, "岗位编码已存在")
	case errors.Is(err, service.ErrJobInactive):
		response.BadRequest(c, 20003, "岗位已停用")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10005, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
