package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"compliance-hub/backend/internal/service"
	"compliance-hub/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportJobAssignments 导出岗位职责 Excel
// GET /api/v1/export/jobs/:id/responsibilities.xlsx
func (h *ExportHandler) ExportJobAssignments(c *gin.Context) {
	jobID, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportJobAssignments(c.Request.Context(), jobID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportJobCalendar 导出岗位职责日历
// GET /api/v1/export/jobs/:id/responsibilities.ics
func (h *ExportHandler) ExportJobCalendar(c *gin.Context) {
	jobID, ok := MustGetUUIDParam(c, "id", "岗位ID")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportJobCalendar(c.Request.Context(), jobID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeICS, buf.Bytes())
}

// attachment 写入文件下载响应
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		response.NotFound(c, 20001, "岗位不存在")
	case errors.Is(err, service.ErrExportNoAssignments):
		response.NotFound(c, 23001, "该岗位暂无职责分配")
	default:
		response.InternalError(c)
	}
}
