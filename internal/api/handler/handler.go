package handler

import (
	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth           *AuthHandler
	User           *UserHandler
	Job            *JobHandler
	Responsibility *ResponsibilityHandler
	Assignment     *AssignmentHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		Auth:           NewAuthHandler(svc.Auth, &cfg.Auth),
		User:           NewUserHandler(svc.User),
		Job:            NewJobHandler(svc.Job),
		Responsibility: NewResponsibilityHandler(svc.Responsibility),
		Assignment:     NewAssignmentHandler(svc.Assignment),
		Export:         NewExportHandler(svc.Export),
	}
}
